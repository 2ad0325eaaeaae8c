package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var wsFlags struct {
	timeout time.Duration
	headers []string
	wait    time.Duration
}

var wsCmd = &cobra.Command{
	Use:   "ws",
	Short: "WebSocket test client",
	Long: `Connect to a mock WebSocket endpoint for manual testing.

The target is either a full ws:// URL or a bare endpoint path, which is
resolved against --admin-url under the /ws prefix.`,
}

var wsConnectCmd = &cobra.Command{
	Use:   "connect <path-or-url>",
	Short: "Interactive session: type messages, see responses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := wsDial(args[0])
		if err != nil {
			return err
		}
		defer conn.Close()

		done := make(chan struct{})
		go wsReadLoop(conn, done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		fmt.Fprintln(os.Stderr, "Connected. Type a message and press Enter; Ctrl+C to quit.")
		lines := make(chan string)
		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
			close(lines)
		}()

		for {
			select {
			case <-sigCh:
				return wsClose(conn)
			case <-done:
				fmt.Fprintln(os.Stderr, "Connection closed by server.")
				return nil
			case line, ok := <-lines:
				if !ok {
					return wsClose(conn)
				}
				if strings.TrimSpace(line) == "" {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
					return fmt.Errorf("send: %w", err)
				}
			}
		}
	},
}

var wsSendCmd = &cobra.Command{
	Use:   "send <path-or-url> <message>",
	Short: "Send one message, print the reply, disconnect",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := wsDial(args[0])
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(args[1])); err != nil {
			return fmt.Errorf("send: %w", err)
		}

		_ = conn.SetReadDeadline(time.Now().Add(wsFlags.wait))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			fmt.Fprintln(os.Stderr, "No reply within", wsFlags.wait)
			return wsClose(conn)
		}
		fmt.Println(string(msg))
		return wsClose(conn)
	},
}

var wsListenCmd = &cobra.Command{
	Use:   "listen <path-or-url>",
	Short: "Print every message the server sends until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := wsDial(args[0])
		if err != nil {
			return err
		}
		defer conn.Close()

		done := make(chan struct{})
		go wsReadLoop(conn, done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		fmt.Fprintln(os.Stderr, "Listening, Ctrl+C to stop.")
		select {
		case <-sigCh:
			return wsClose(conn)
		case <-done:
			fmt.Fprintln(os.Stderr, "Connection closed by server.")
			return nil
		}
	},
}

var wsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show WebSocket engine statistics from the admin API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := apiClient().WebSocketStats()
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

// wsDial resolves the target and opens the connection. Bare paths are
// joined with the admin URL under /ws.
func wsDial(target string) (*websocket.Conn, error) {
	wsURL, err := resolveWSURL(target)
	if err != nil {
		return nil, err
	}

	header := make(map[string][]string)
	for _, h := range wsFlags.headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q: want key:value", h)
		}
		header[strings.TrimSpace(k)] = []string{strings.TrimSpace(v)}
	}

	dialer := websocket.Dialer{HandshakeTimeout: wsFlags.timeout}
	conn, resp, err := dialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connecting to %s: %s", wsURL, resp.Status)
		}
		return nil, fmt.Errorf("connecting to %s: %w", wsURL, err)
	}
	return conn, nil
}

func resolveWSURL(target string) (string, error) {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		return target, nil
	}

	base, err := url.Parse(adminURL)
	if err != nil {
		return "", fmt.Errorf("invalid admin URL %q: %w", adminURL, err)
	}
	scheme := "ws"
	if base.Scheme == "https" {
		scheme = "wss"
	}
	path := target
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, "/ws/") {
		path = "/ws" + path
	}
	return fmt.Sprintf("%s://%s%s", scheme, base.Host, path), nil
}

// wsReadLoop prints incoming messages until the connection drops.
func wsReadLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		fmt.Printf("< %s\n", msg)
	}
}

func wsClose(conn *websocket.Conn) error {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return nil
}

func init() {
	wsCmd.PersistentFlags().DurationVarP(&wsFlags.timeout, "timeout", "t", 30*time.Second, "Connection timeout")
	wsCmd.PersistentFlags().StringArrayVarP(&wsFlags.headers, "header", "H", nil, "Handshake header (key:value), repeatable")
	wsSendCmd.Flags().DurationVar(&wsFlags.wait, "wait", 3*time.Second, "How long to wait for a reply")

	wsCmd.AddCommand(wsConnectCmd, wsSendCmd, wsListenCmd, wsStatsCmd)
	rootCmd.AddCommand(wsCmd)
}
