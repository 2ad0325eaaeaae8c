// mockbird - programmable HTTP/WebSocket/GraphQL mock server.
package main

import (
	"github.com/mockbird/mockbird/pkg/cli"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
