// Package matching implements request matching for the mock engine.
//
// It covers three concerns:
//
//   - Path patterns: literal segments plus :name parameter slots, compiled
//     once and matched segment-wise against request paths.
//   - Conditional responses: operators (eq, neq, contains, startsWith,
//     endsWith, regex, exists) applied to query parameters, headers, and
//     dot-paths into the request body.
//   - JSON lookups: dot-separated paths resolved against decoded JSON
//     values, shared by conditions, templates, and WebSocket message
//     patterns.
//
// Matching never fails a request: invalid regular expressions and
// unresolvable paths simply do not match.
package matching
