// Package validation rejects requests that do not conform to declared
// shapes. Endpoints can require body fields or attach an inline JSON
// Schema; the whole server can additionally be checked against an
// OpenAPI document.
package validation
