package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a starter collection file",
	Long: `Write a commented starter collection to mockbird.yaml (or the given
path). The file demonstrates HTTP, WebSocket, and GraphQL mock
definitions and loads with 'mockbird serve --config <file>'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "mockbird.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteStarter(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		fmt.Printf("Start the server with: mockbird serve --config %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
