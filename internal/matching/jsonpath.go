package matching

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"
)

// maxExprCache caps the parsed dot-path cache. Paths come from endpoint
// and conditional configs, which churn under admin edits, so the cache
// is dropped wholesale once it outgrows the cap.
const maxExprCache = 256

var (
	exprMu    sync.RWMutex
	exprCache = make(map[string]jp.Expr)
)

// LookupPath descends a decoded JSON value along a dot-separated path such
// as user.address.city. Purely numeric segments index into arrays
// (items.0.name). Returns the resolved value and whether the path resolved
// at all; a JSON null resolves to (nil, true).
func LookupPath(data any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}
	expr, err := compilePath(path)
	if err != nil {
		return nil, false
	}
	results := expr.Get(data)
	if len(results) == 0 {
		// Get does not distinguish a missing key from an explicit null,
		// so probe the parent for the latter.
		return lookupNull(data, path)
	}
	return results[0], true
}

// lookupNull reports whether the path resolves to an explicit JSON null.
func lookupNull(data any, path string) (any, bool) {
	segs := strings.Split(path, ".")
	current := data
	for _, seg := range segs {
		switch t := current.(type) {
		case map[string]any:
			v, ok := t[seg]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			n, err := strconv.Atoi(seg)
			if err != nil || n < 0 || n >= len(t) {
				return nil, false
			}
			current = t[n]
		default:
			return nil, false
		}
	}
	return current, true
}

// compilePath translates a dot-path into JSONPath syntax and caches the
// parsed expression: items.0.name becomes $.items[0].name.
func compilePath(path string) (jp.Expr, error) {
	exprMu.RLock()
	cached, ok := exprCache[path]
	exprMu.RUnlock()
	if ok {
		return cached, nil
	}

	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil, fmt.Errorf("empty segment in path %q", path)
		}
		if isDigits(seg) {
			b.WriteByte('[')
			b.WriteString(seg)
			b.WriteByte(']')
			continue
		}
		b.WriteByte('.')
		b.WriteString(seg)
	}

	expr, err := jp.ParseString(b.String())
	if err != nil {
		return nil, err
	}

	exprMu.Lock()
	if len(exprCache) >= maxExprCache {
		exprCache = make(map[string]jp.Expr, maxExprCache)
	}
	exprCache[path] = expr
	exprMu.Unlock()
	return expr, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Stringify renders a JSON value the way comparisons and templates see it:
// strings verbatim, numbers and booleans in their JSON form, null as the
// empty string, and composites JSON-encoded.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
