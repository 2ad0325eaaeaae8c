package graphql

import (
	"regexp"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Request is the body of a GraphQL HTTP request.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Operation is what the engine learned about a request from its query
// document: the operation type and the effective operation name.
type Operation struct {
	Type endpoint.OperationType
	Name string
}

var operationRe = regexp.MustCompile(`^(query|mutation|subscription)\b\s*([_A-Za-z][_0-9A-Za-z]*)?`)

// Operation parses the request's query document. The effective name is
// the request's operationName when set, otherwise the name parsed from
// the document.
func (r *Request) Operation() Operation {
	op := parseDocument(r.Query, r.OperationName)
	if r.OperationName != "" {
		op.Name = r.OperationName
	}
	return op
}

// parseDocument extracts the operation type and declared name from a
// query document. A full AST parse is tried first; documents the parser
// rejects fall back to a prefix scan. wantName selects the operation in
// multi-operation documents. Anything unrecognisable counts as an
// anonymous query, matching shorthand `{...}` syntax.
func parseDocument(query, wantName string) Operation {
	source := &ast.Source{
		Name:  "request",
		Input: query,
	}
	if doc, err := parser.ParseQuery(source); err == nil && len(doc.Operations) > 0 {
		def := doc.Operations[0]
		if wantName != "" {
			for _, cand := range doc.Operations {
				if cand.Name == wantName {
					def = cand
					break
				}
			}
		}
		return Operation{Type: operationType(def.Operation), Name: def.Name}
	}

	trimmed := strings.TrimSpace(query)
	if m := operationRe.FindStringSubmatch(trimmed); m != nil {
		return Operation{Type: endpoint.OperationType(m[1]), Name: m[2]}
	}
	return Operation{Type: endpoint.OperationQuery}
}

func operationType(op ast.Operation) endpoint.OperationType {
	switch op {
	case ast.Mutation:
		return endpoint.OperationMutation
	case ast.Subscription:
		return endpoint.OperationSubscription
	default:
		return endpoint.OperationQuery
	}
}
