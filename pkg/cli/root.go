package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags shared by every subcommand.
	adminURL   string
	adminToken string
	jsonOutput bool

	// Version is injected during build.
	Version = "dev"
	// Commit is injected during build.
	Commit = "none"
	// BuildDate is injected during build.
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "mockbird",
	Short: "mockbird is a programmable HTTP/WebSocket/GraphQL mock server",
	Long: `mockbird serves configurable mock endpoints over HTTP, WebSocket, and
GraphQL on a single port. Endpoints are registered through the admin API
or loaded from collection files, and responses can be shaped by
conditions, scenarios, environments, rate limits, auth checks,
templating, and upstream proxying.

Without a subcommand, mockbird starts the server, same as
'mockbird serve'. Manage a running server with the other commands or
the admin API under /api/admin.`,
	Args:          cobra.NoArgs,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultAdminURL() string {
	if v := os.Getenv("MOCKBIRD_ADMIN_URL"); v != "" {
		return v
	}
	return "http://localhost:3001"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&adminURL, "admin-url", defaultAdminURL(), "Base URL of a running mockbird server")
	rootCmd.PersistentFlags().StringVar(&adminToken, "token", os.Getenv("ADMIN_TOKEN"), "Admin API bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results as JSON")
}

// apiClient builds an admin client from the persistent flags.
func apiClient() *Client {
	return NewClient(adminURL, adminToken)
}
