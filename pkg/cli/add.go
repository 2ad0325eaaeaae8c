package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

var addFlags struct {
	method      string
	path        string
	status      int
	body        string
	headers     []string
	delay       int
	tags        []string
	interactive bool
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a mock endpoint on a running server",
	Long: `Register an HTTP mock endpoint through the admin API.

The response body is given as inline JSON, or as a file reference with
an @ prefix. Plain strings that are not valid JSON are used verbatim.

Examples:
  mockbird add --method GET --path /users/:id --status 200 \
    --body '{"id": "{{$request.path.id}}"}'

  mockbird add --method POST --path /orders --status 201 --body @order.json

  mockbird add -i`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addFlags.interactive {
		if err := addForm(); err != nil {
			return err
		}
	}
	if addFlags.path == "" {
		return errors.New("--path is required (or use -i for the interactive form)")
	}

	body, err := parseBodyArg(addFlags.body)
	if err != nil {
		return err
	}
	headers, err := parseHeaderArgs(addFlags.headers)
	if err != nil {
		return err
	}

	ep := &endpoint.Endpoint{
		Method:          strings.ToUpper(addFlags.method),
		Path:            addFlags.path,
		StatusCode:      addFlags.status,
		Response:        body,
		ResponseHeaders: headers,
		Tags:            addFlags.tags,
	}
	if addFlags.delay > 0 {
		ep.Delay = endpoint.FixedDelay(addFlags.delay)
	}

	created, err := apiClient().CreateEndpoint(ep)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(created)
	}
	fmt.Printf("Created %s %s (id %s)\n", created.Method, created.Path, created.ID)
	fmt.Printf("Try it: curl %s/mock%s\n", adminURL, displayPath(created.Path))
	return nil
}

// addForm fills the add flags from an interactive prompt.
func addForm() error {
	method := "GET"
	path := addFlags.path
	status := strconv.Itoa(addFlags.status)
	body := addFlags.body

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Method").
				Options(
					huh.NewOption("GET", "GET"),
					huh.NewOption("POST", "POST"),
					huh.NewOption("PUT", "PUT"),
					huh.NewOption("DELETE", "DELETE"),
					huh.NewOption("PATCH", "PATCH"),
					huh.NewOption("HEAD", "HEAD"),
					huh.NewOption("OPTIONS", "OPTIONS"),
				).
				Value(&method),
			huh.NewInput().
				Title("Path").
				Placeholder("/api/users/:id").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("path is required")
					}
					return nil
				}).
				Value(&path),
			huh.NewInput().
				Title("Status code").
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 100 || n > 599 {
						return errors.New("want a status between 100 and 599")
					}
					return nil
				}).
				Value(&status),
			huh.NewText().
				Title("Response body (JSON)").
				Placeholder(`{"message": "ok"}`).
				Value(&body),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	addFlags.method = method
	addFlags.path = path
	addFlags.status, _ = strconv.Atoi(status)
	addFlags.body = body
	return nil
}

// parseBodyArg interprets the --body value: @file reads a file, valid
// JSON is used structurally, anything else becomes a plain string.
func parseBodyArg(arg string) (any, error) {
	if arg == "" {
		return nil, nil
	}
	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("reading body file: %w", err)
		}
		raw = data
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw), nil
	}
	return v, nil
}

// parseHeaderArgs splits repeated key:value flags.
func parseHeaderArgs(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(args))
	for _, h := range args {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q: want key:value", h)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

// displayPath strips :params down to an example-friendly form.
func displayPath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = "1"
		}
	}
	return strings.Join(segs, "/")
}

func init() {
	addCmd.Flags().StringVarP(&addFlags.method, "method", "X", "GET", "HTTP method")
	addCmd.Flags().StringVar(&addFlags.path, "path", "", "Path pattern, :name segments bind parameters")
	addCmd.Flags().IntVar(&addFlags.status, "status", 200, "Response status code")
	addCmd.Flags().StringVar(&addFlags.body, "body", "", "Response body (inline JSON or @file)")
	addCmd.Flags().StringArrayVarP(&addFlags.headers, "header", "H", nil, "Response header (key:value), repeatable")
	addCmd.Flags().IntVar(&addFlags.delay, "delay", 0, "Response delay in milliseconds")
	addCmd.Flags().StringSliceVar(&addFlags.tags, "tag", nil, "Endpoint tag, repeatable")
	addCmd.Flags().BoolVarP(&addFlags.interactive, "interactive", "i", false, "Fill in the endpoint interactively")

	rootCmd.AddCommand(addCmd)
}
