package requestlog

import "time"

// Sentinel endpoint IDs for requests that never resolved to an endpoint.
const (
	// EndpointNotFound marks entries for requests no endpoint matched.
	EndpointNotFound = "not-found"

	// EndpointError marks entries for requests that failed inside the
	// pipeline with an internal error.
	EndpointError = "error"
)

// Entry is one captured HTTP mock request/response pair.
type Entry struct {
	// ID is assigned by the store on append when empty.
	ID string `json:"id"`

	// EndpointID is the matched endpoint's ID, or one of the sentinels
	// EndpointNotFound and EndpointError.
	EndpointID string `json:"endpointId"`

	// Method is the HTTP method of the request.
	Method string `json:"method"`

	// Path is the request path with the mock prefix stripped.
	Path string `json:"path"`

	// URL is the full request URI as received.
	URL string `json:"url"`

	// QueryParams holds the first value of each query key.
	QueryParams map[string]string `json:"queryParams,omitempty"`

	// RequestHeaders holds the first value of each request header.
	RequestHeaders map[string]string `json:"requestHeaders,omitempty"`

	// RequestBody is the parsed JSON body, or the raw string when the body
	// is not JSON.
	RequestBody any `json:"requestBody,omitempty"`

	// ResponseStatus is the HTTP status written to the client.
	ResponseStatus int `json:"responseStatus"`

	// ResponseData is the response body as sent.
	ResponseData any `json:"responseData,omitempty"`

	// ResponseTime is the observed handling time in milliseconds.
	ResponseTime int `json:"responseTime"`

	// Timestamp is when the entry was appended.
	Timestamp time.Time `json:"timestamp"`

	ClientIP  string `json:"clientIp,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}
