package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered mock endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoints, err := apiClient().ListEndpoints()
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(endpoints)
		}
		if len(endpoints) == 0 {
			fmt.Println("No endpoints registered. Add one with 'mockbird add'.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMETHOD\tPATH\tSTATUS\tSTATE")
		for _, ep := range endpoints {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", ep.ID, ep.Method, ep.Path, ep.StatusCode, ep.Status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
