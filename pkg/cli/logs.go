package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/requestlog"
)

var logsFlags struct {
	endpointID string
	method     string
	status     int
	path       string
	limit      int
	clear      bool
	follow     bool
	stats      bool
}

// followInterval is the poll period in follow mode. The admin API has
// no streaming surface, so follow tails by asking for anything newer
// than the last entry seen.
const followInterval = time.Second

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the request log of a running server",
	Long: `Show captured mock requests, newest first.

Examples:
  mockbird logs
  mockbird logs --method POST --status 404 -n 50
  mockbird logs --follow
  mockbird logs --stats
  mockbird logs --clear`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func runLogs(cmd *cobra.Command, args []string) error {
	client := apiClient()

	if logsFlags.clear {
		if err := client.ClearLogs(); err != nil {
			return err
		}
		fmt.Println("Logs cleared.")
		return nil
	}
	if logsFlags.stats {
		stats, err := client.LogStats()
		if err != nil {
			return err
		}
		return printJSON(stats)
	}

	filter := LogFilter{
		EndpointID: logsFlags.endpointID,
		Method:     logsFlags.method,
		Status:     logsFlags.status,
		Path:       logsFlags.path,
		Limit:      logsFlags.limit,
	}

	if logsFlags.follow {
		return followLogs(client, filter)
	}

	entries, err := client.Logs(filter)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No requests logged yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMETHOD\tPATH\tSTATUS\tMS\tENDPOINT")
	for _, e := range entries {
		printLogRow(w, e)
	}
	return w.Flush()
}

// followLogs polls for new entries until interrupted.
func followLogs(client *Client, filter LogFilter) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()

	var lastSeen time.Time
	// Seed the watermark so follow shows only new traffic.
	if entries, err := client.Logs(LogFilter{Limit: 1}); err == nil && len(entries) > 0 {
		lastSeen = entries[0].Timestamp
	}

	fmt.Fprintln(os.Stderr, "Following request log, Ctrl+C to stop.")
	for {
		select {
		case <-sigCh:
			return nil
		case <-ticker.C:
			entries, err := client.Logs(filter)
			if err != nil {
				fmt.Fprintln(os.Stderr, "poll failed:", err)
				continue
			}
			// Newest first; collect unseen and print oldest first.
			var fresh []*requestlog.Entry
			for _, e := range entries {
				if !e.Timestamp.After(lastSeen) {
					break
				}
				fresh = append(fresh, e)
			}
			for i := len(fresh) - 1; i >= 0; i-- {
				e := fresh[i]
				if jsonOutput {
					_ = printJSON(e)
				} else {
					fmt.Printf("%s %-6s %-30s %d (%dms)\n",
						e.Timestamp.Format("15:04:05"), e.Method, e.Path, e.ResponseStatus, e.ResponseTime)
				}
				lastSeen = e.Timestamp
			}
		}
	}
}

func printLogRow(w *tabwriter.Writer, e *requestlog.Entry) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
		e.Timestamp.Format("15:04:05"), e.Method, e.Path, e.ResponseStatus, e.ResponseTime, e.EndpointID)
}

func init() {
	logsCmd.Flags().StringVar(&logsFlags.endpointID, "endpoint", "", "Filter by endpoint id")
	logsCmd.Flags().StringVarP(&logsFlags.method, "method", "m", "", "Filter by HTTP method")
	logsCmd.Flags().IntVar(&logsFlags.status, "status", 0, "Filter by response status")
	logsCmd.Flags().StringVar(&logsFlags.path, "path", "", "Filter by path substring")
	logsCmd.Flags().IntVarP(&logsFlags.limit, "limit", "n", 20, "Number of entries to show")
	logsCmd.Flags().BoolVar(&logsFlags.clear, "clear", false, "Clear all logs")
	logsCmd.Flags().BoolVarP(&logsFlags.follow, "follow", "f", false, "Stream new entries as they arrive")
	logsCmd.Flags().BoolVar(&logsFlags.stats, "stats", false, "Show aggregated log statistics")

	rootCmd.AddCommand(logsCmd)
}
