// Package graphql serves mock GraphQL endpoints driven by resolver
// registrations rather than a schema.
//
// An endpoint is a URL path plus an ordered list of resolvers. Each
// incoming operation is parsed just far enough to learn its type and
// name; the first enabled resolver whose operation name, operation
// type, and variables all match produces the reply. Unmatched
// operations fall back to the endpoint's default response, or to a
// standard "no resolver found" error envelope.
//
// All replies use the GraphQL response shape {data, errors} and, with
// the sole exception of an unreadable or query-less request body, are
// served with HTTP 200.
package graphql
