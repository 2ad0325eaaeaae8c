package matching

import "strings"

type patternSegment struct {
	value   string
	isParam bool
}

// Pattern is a compiled path pattern of literal segments and :name
// parameter slots, e.g. /users/:id/orders.
type Pattern struct {
	raw      string
	segments []patternSegment
	exact    bool
}

// CompilePattern parses a path pattern. Segments beginning with a colon
// become named parameters; empty segments from duplicate or trailing
// slashes are dropped.
func CompilePattern(raw string) Pattern {
	p := Pattern{raw: raw, exact: true}
	for _, seg := range SplitPath(raw) {
		if len(seg) > 1 && seg[0] == ':' {
			p.segments = append(p.segments, patternSegment{value: seg[1:], isParam: true})
			p.exact = false
		} else {
			p.segments = append(p.segments, patternSegment{value: seg})
		}
	}
	return p
}

// SplitPath splits a request path on slashes, discarding empty segments.
func SplitPath(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// IsExact reports whether the pattern has no parameter slots. When both an
// exact and a parametric pattern match a request, the exact one wins.
func (p Pattern) IsExact() bool { return p.exact }

// String returns the original pattern text.
func (p Pattern) String() string { return p.raw }

// Match tests a request path against the pattern. Segment counts must
// agree; literal segments compare exactly and parameter slots bind any
// non-empty segment. On success the bound parameters are returned, nil
// when the pattern has none.
func (p Pattern) Match(path string) (map[string]string, bool) {
	segs := SplitPath(path)
	if len(segs) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, ps := range p.segments {
		if ps.isParam {
			if params == nil {
				params = make(map[string]string)
			}
			params[ps.value] = segs[i]
			continue
		}
		if ps.value != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// MatchPath is a one-shot convenience for callers that do not keep
// compiled patterns around.
func MatchPath(pattern, path string) (map[string]string, bool) {
	return CompilePattern(pattern).Match(path)
}
