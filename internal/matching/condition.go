package matching

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// ConditionInput carries the request values conditions are evaluated
// against. Body is the decoded JSON request body, nil when the request had
// none or it was not valid JSON.
type ConditionInput struct {
	Query  url.Values
	Header http.Header
	Body   any
}

// MatchConditional returns the first conditional response whose conditions
// all match the request, or nil when none does.
func MatchConditional(responses []endpoint.ConditionalResponse, in ConditionInput) *endpoint.ConditionalResponse {
	for i := range responses {
		if EvalConditions(responses[i].Conditions, in) {
			return &responses[i]
		}
	}
	return nil
}

// EvalConditions reports whether every condition matches (AND semantics).
func EvalConditions(conds []endpoint.Condition, in ConditionInput) bool {
	for _, c := range conds {
		if !evalCondition(c, in) {
			return false
		}
	}
	return true
}

func evalCondition(c endpoint.Condition, in ConditionInput) bool {
	value, defined := lookupSource(c, in)
	if c.Operator == endpoint.OpExists {
		return defined && value != ""
	}
	if !defined {
		return false
	}
	return CompareValue(c.Operator, value, c.Value)
}

// lookupSource extracts the condition's value from the request. The second
// return distinguishes an absent source from a present-but-empty one.
func lookupSource(c endpoint.Condition, in ConditionInput) (string, bool) {
	switch c.Source {
	case endpoint.SourceQuery:
		vs, ok := in.Query[c.Field]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	case endpoint.SourceHeader:
		if in.Header == nil {
			return "", false
		}
		vs, ok := in.Header[http.CanonicalHeaderKey(c.Field)]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	case endpoint.SourceBody:
		v, ok := LookupPath(in.Body, c.Field)
		if !ok {
			return "", false
		}
		return Stringify(v), true
	default:
		return "", false
	}
}

// CompareValue applies a condition operator to an extracted value. Invalid
// regular expressions never match.
func CompareValue(op endpoint.ConditionOperator, value, expected string) bool {
	switch op {
	case endpoint.OpEquals:
		return value == expected
	case endpoint.OpNotEquals:
		return value != expected
	case endpoint.OpContains:
		return strings.Contains(value, expected)
	case endpoint.OpStartsWith:
		return strings.HasPrefix(value, expected)
	case endpoint.OpEndsWith:
		return strings.HasSuffix(value, expected)
	case endpoint.OpRegex:
		re, err := regexp.Compile(expected)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	case endpoint.OpExists:
		return value != ""
	default:
		return false
	}
}
