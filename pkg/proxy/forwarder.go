// Package proxy forwards matched mock requests to a real upstream and
// relays the answer, optionally caching successful responses. A proxied
// request short-circuits the rest of the response pipeline.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/logging"
)

// maxResponseBytes caps how much of an upstream response is read.
const maxResponseBytes = 10 << 20 // 10 MB

// forwardedHeaders are copied from the incoming request to the
// upstream call; everything else is dropped.
var forwardedHeaders = []string{"Authorization", "X-Api-Key", "Accept", "Accept-Language"}

// hopHeaders are stripped from upstream responses before relaying.
var hopHeaders = []string{"Content-Encoding", "Transfer-Encoding", "Connection"}

// Result is a relayed upstream response.
type Result struct {
	Status    int
	Header    http.Header
	Body      []byte
	FromCache bool
}

// DecodedBody returns the body as parsed JSON when the upstream said it
// was JSON, else as a string. Used when capturing proxied traffic in
// the request log.
func (r *Result) DecodedBody() any {
	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		var v any
		if err := json.Unmarshal(r.Body, &v); err == nil {
			return v
		}
	}
	return string(r.Body)
}

// UpstreamError wraps a failed upstream call with the target URL so
// callers can surface it in the 502 body.
type UpstreamError struct {
	Target string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("proxy request to %s failed: %v", e.Target, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Forwarder performs upstream calls for proxy-enabled endpoints.
type Forwarder struct {
	client *http.Client
	cache  *Cache
	log    *slog.Logger
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithClient replaces the HTTP client, mainly for tests.
func WithClient(c *http.Client) Option {
	return func(f *Forwarder) { f.client = c }
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(f *Forwarder) {
		if log != nil {
			f.log = log
		}
	}
}

// NewForwarder creates a Forwarder with a shared cache. Per-call
// timeouts come from each endpoint's proxy config, so the underlying
// client carries none.
func NewForwarder(opts ...Option) *Forwarder {
	f := &Forwarder{
		client: &http.Client{},
		cache:  NewCache(),
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Cache exposes the response cache for admin operations.
func (f *Forwarder) Cache() *Cache {
	return f.cache
}

// RewritePath applies the first matching rewrite rule to the path.
// Rules with invalid regexes are skipped.
func RewritePath(rules []endpoint.PathRewrite, path string) string {
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			continue
		}
		if re.MatchString(path) {
			return re.ReplaceAllString(path, rule.Replacement)
		}
	}
	return path
}

// TargetURL joins the upstream base URL with the rewritten path and the
// original query string.
func TargetURL(cfg *endpoint.ProxyConfig, path, rawQuery string) string {
	base := strings.TrimSuffix(cfg.TargetURL, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := base + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// Forward sends the request upstream and relays the response. The
// mockPath is the request path with the mount prefix already stripped;
// body is the captured request body (may be nil).
//
// On a failed call the returned error is an *UpstreamError carrying the
// resolved target URL.
func (f *Forwarder) Forward(r *http.Request, cfg *endpoint.ProxyConfig, mockPath string, body []byte) (*Result, error) {
	rewritten := RewritePath(cfg.PathRewrite, mockPath)
	target := TargetURL(cfg, rewritten, r.URL.RawQuery)
	key := CacheKey(r.Method, target, body)

	defer f.cache.maybeSweep()

	if cfg.CacheResponse {
		if res, ok := f.cache.Get(key); ok {
			f.log.Debug("proxy cache hit", "target", target)
			return res, nil
		}
	}

	ctx, cancel := contextWithTimeout(r, cfg)
	defer cancel()

	var reqBody io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead && len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, reqBody)
	if err != nil {
		return nil, &UpstreamError{Target: target, Err: err}
	}

	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Warn("proxy request failed", "target", target, "error", err)
		return nil, &UpstreamError{Target: target, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Target: target, Err: err}
	}

	header := resp.Header.Clone()
	for _, name := range hopHeaders {
		header.Del(name)
	}

	res := &Result{
		Status: resp.StatusCode,
		Header: header,
		Body:   respBody,
	}

	if cfg.CacheResponse && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		f.cache.Put(key, res, cfg.CacheTTLDuration())
	}

	return res, nil
}

// contextWithTimeout derives the upstream call context from the
// incoming request so client disconnects cancel the call.
func contextWithTimeout(r *http.Request, cfg *endpoint.ProxyConfig) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), cfg.TimeoutDuration())
}
