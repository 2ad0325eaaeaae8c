package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/requestlog"
)

// Client speaks to the admin API of a running mockbird server. Every
// response arrives in the standard envelope; Client unwraps it and
// turns failure envelopes into errors.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates an admin client for the given base URL. token may
// be empty when the server runs without team auth.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope mirrors httputil.Envelope with the payload left raw so each
// call site can decode into its own type.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// do performs one admin request and decodes the envelope payload into
// out when out is non-nil.
func (c *Client) do(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach %s (is the server running?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("unexpected response from %s: status %d", c.baseURL, resp.StatusCode)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return fmt.Errorf("%s", msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// Health checks that the server answers and returns the health payload.
func (c *Client) Health() (map[string]any, error) {
	var out map[string]any
	if err := c.do(http.MethodGet, "/api/admin/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEndpoints returns every registered HTTP endpoint.
func (c *Client) ListEndpoints() ([]*endpoint.Endpoint, error) {
	var out []*endpoint.Endpoint
	if err := c.do(http.MethodGet, "/api/admin/endpoints", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEndpoint returns one endpoint by id.
func (c *Client) GetEndpoint(id string) (*endpoint.Endpoint, error) {
	var out endpoint.Endpoint
	if err := c.do(http.MethodGet, "/api/admin/endpoints/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEndpoint registers a new endpoint and returns it with the
// server-assigned id and timestamps.
func (c *Client) CreateEndpoint(ep *endpoint.Endpoint) (*endpoint.Endpoint, error) {
	var out endpoint.Endpoint
	if err := c.do(http.MethodPost, "/api/admin/endpoints", ep, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEndpoint replaces an endpoint definition.
func (c *Client) UpdateEndpoint(id string, ep *endpoint.Endpoint) (*endpoint.Endpoint, error) {
	var out endpoint.Endpoint
	if err := c.do(http.MethodPut, "/api/admin/endpoints/"+url.PathEscape(id), ep, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEndpoint removes an endpoint.
func (c *Client) DeleteEndpoint(id string) error {
	return c.do(http.MethodDelete, "/api/admin/endpoints/"+url.PathEscape(id), nil, nil)
}

// LogFilter narrows a request log query.
type LogFilter struct {
	EndpointID string
	Method     string
	Status     int
	Path       string
	Limit      int
}

// Logs returns request log entries, newest first.
func (c *Client) Logs(f LogFilter) ([]*requestlog.Entry, error) {
	q := url.Values{}
	if f.EndpointID != "" {
		q.Set("endpointId", f.EndpointID)
	}
	if f.Method != "" {
		q.Set("method", f.Method)
	}
	if f.Status != 0 {
		q.Set("status", strconv.Itoa(f.Status))
	}
	if f.Path != "" {
		q.Set("path", f.Path)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/api/admin/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []*requestlog.Entry
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearLogs drops every request log entry.
func (c *Client) ClearLogs() error {
	return c.do(http.MethodDelete, "/api/admin/logs", nil, nil)
}

// LogStats returns the aggregated request log statistics.
func (c *Client) LogStats() (map[string]any, error) {
	var out map[string]any
	if err := c.do(http.MethodGet, "/api/admin/logs/stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WebSocketStats returns the WebSocket engine statistics.
func (c *Client) WebSocketStats() (map[string]any, error) {
	var out map[string]any
	if err := c.do(http.MethodGet, "/api/admin/websocket/stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
