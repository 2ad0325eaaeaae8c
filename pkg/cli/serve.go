package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/engine"
	"github.com/mockbird/mockbird/pkg/logging"
	"github.com/mockbird/mockbird/pkg/validation"
)

var serveFlags struct {
	port           int
	configPath     string
	replace        bool
	dataFile       string
	logLevel       string
	logFormat      string
	validateSpec   string
	validateReject bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock server in the foreground",
	Long: `Start the mock server. Mock traffic is served under /mock, WebSocket
mocks under /ws, registered GraphQL paths at their own locations, and
the admin API under /api/admin, all on one port.

Configuration comes from environment variables (PORT, NODE_ENV,
TEAM_ENABLED, TEAM_REQUIRE_AUTH, ADMIN_TOKENS) with flags taking
precedence. The server persists endpoints to the data file and restores
them on the next start. SIGINT or SIGTERM shuts down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if serveFlags.port != 0 {
		cfg.Port = serveFlags.port
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(serveFlags.logLevel),
		Format: logging.ParseFormat(serveFlags.logFormat),
	})

	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithVersion(Version),
		engine.WithDataFile(serveFlags.dataFile),
	}

	if serveFlags.configPath != "" {
		collection, err := config.Load(serveFlags.configPath)
		if err != nil {
			return fmt.Errorf("loading collection: %w", err)
		}
		opts = append(opts, engine.WithCollection(collection, serveFlags.replace))
	}

	if serveFlags.validateSpec != "" {
		validator, err := validation.NewOpenAPIValidator(serveFlags.validateSpec)
		if err != nil {
			return fmt.Errorf("loading OpenAPI document: %w", err)
		}
		log.Info("request validation enabled", "spec", validator.Title(), "reject", serveFlags.validateReject)
		opts = append(opts, engine.WithOpenAPIValidator(validator, serveFlags.validateReject))
	}

	srv := engine.New(cfg, opts...)
	if err := srv.Start(); err != nil {
		return err
	}

	fmt.Printf("mockbird listening on http://localhost:%d\n", cfg.Port)
	fmt.Printf("  mock endpoints:  http://localhost:%d/mock\n", cfg.Port)
	fmt.Printf("  admin API:       http://localhost:%d/api/admin\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 0, "Listen port (overrides PORT, default 3001)")
	serveCmd.Flags().StringVarP(&serveFlags.configPath, "config", "c", "", "Collection file or directory to load at startup")
	serveCmd.Flags().BoolVar(&serveFlags.replace, "replace", false, "Replace persisted endpoints with the loaded collection")
	serveCmd.Flags().StringVar(&serveFlags.dataFile, "data-file", "", "Endpoint snapshot path (default data/endpoints.json)")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveFlags.logFormat, "log-format", "text", "Log format (text, json)")
	serveCmd.Flags().StringVar(&serveFlags.validateSpec, "validate-spec", "", "OpenAPI document to validate mock requests against")
	serveCmd.Flags().BoolVar(&serveFlags.validateReject, "validate-reject", false, "Reject requests failing OpenAPI validation instead of logging them")

	rootCmd.AddCommand(serveCmd)
}
