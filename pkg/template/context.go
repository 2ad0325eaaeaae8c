package template

import (
	"net/http"
	"net/url"
)

// Context holds the request data available to template expressions.
type Context struct {
	// Query holds the request query parameters; accessors read the first
	// value of a key.
	Query url.Values

	// Headers holds the request headers.
	Headers http.Header

	// Body is the parsed JSON request body, or nil when the body was
	// absent or not JSON.
	Body any

	// PathParams are the :name bindings extracted by the path matcher.
	PathParams map[string]string
}

// NewContext builds a template context from an HTTP request. The body is
// passed in pre-parsed because the dispatcher reads it once and shares it
// with condition matching and the request log.
func NewContext(r *http.Request, pathParams map[string]string, body any) *Context {
	return &Context{
		Query:      r.URL.Query(),
		Headers:    r.Header,
		Body:       body,
		PathParams: pathParams,
	}
}
