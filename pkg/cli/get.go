package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one mock endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ep, err := apiClient().GetEndpoint(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(ep)
		}

		fmt.Printf("ID:      %s\n", ep.ID)
		fmt.Printf("Route:   %s %s\n", ep.Method, ep.Path)
		fmt.Printf("Status:  %d (%s)\n", ep.StatusCode, ep.Status)
		if ep.Delay != nil {
			fmt.Printf("Delay:   %s\n", ep.Delay.Duration())
		}
		if len(ep.Tags) > 0 {
			fmt.Printf("Tags:    %v\n", ep.Tags)
		}
		fmt.Printf("Created: %s\n", ep.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated: %s\n", ep.UpdatedAt.Format("2006-01-02 15:04:05"))
		if ep.Response != nil {
			fmt.Println("Response:")
			return printJSON(ep.Response)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
