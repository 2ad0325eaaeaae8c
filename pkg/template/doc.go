// Package template substitutes {{$...}} expressions in response bodies.
//
// An expression is a whitespace-separated token list inside {{$ and }}:
// generators such as uuid, timestamp, or randomInt, and request accessors
// such as request.query, request.header, request.body, and request.path.
// Accessors take their argument either as a second token
// ({{$request.query search}}) or in dotted form ({{$request.query.search}}).
//
// Substitution is applied recursively through arrays and object values;
// only strings are rewritten. Unknown expressions and expressions with bad
// arguments are left verbatim so that mock authors can see what failed to
// expand. Template processing never fails the request.
package template
