package template

import (
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/mockbird/mockbird/internal/matching"
)

// Engine substitutes {{$...}} expressions. It is stateless and safe for
// concurrent use.
type Engine struct {
	logger *slog.Logger
}

// New creates a template engine logging internal substitution failures to
// the default logger.
func New() *Engine {
	return &Engine{logger: slog.Default()}
}

// NewWithLogger creates a template engine with an explicit logger.
func NewWithLogger(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// templateRegex matches {{$expression}} with optional inner whitespace.
var templateRegex = regexp.MustCompile(`\{\{\$\s*([^}]*?)\s*\}\}`)

// Process substitutes every {{$...}} expression in template. Expressions
// that fail to evaluate stay verbatim; any unexpected failure returns the
// input unchanged.
func (e *Engine) Process(template string, ctx *Context) (result string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("template processing failed", "panic", r)
			result = template
		}
	}()

	result = templateRegex.ReplaceAllStringFunc(template, func(match string) string {
		expr := templateRegex.FindStringSubmatch(match)[1]
		value, ok := e.evaluate(expr, ctx)
		if !ok {
			e.logger.Debug("template expression left verbatim", "expression", expr)
			return match
		}
		return value
	})
	return result
}

// ProcessValue recursively substitutes expressions in the string values of
// an arbitrary JSON value. Non-string scalars are returned unchanged.
func (e *Engine) ProcessValue(data any, ctx *Context) any {
	switch v := data.(type) {
	case string:
		return e.Process(v, ctx)
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = e.ProcessValue(val, ctx)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = e.ProcessValue(val, ctx)
		}
		return result
	default:
		return data
	}
}

// evaluate resolves a single expression. ok=false leaves it verbatim.
func (e *Engine) evaluate(expr string, ctx *Context) (string, bool) {
	tokens := strings.Fields(expr)
	if len(tokens) == 0 {
		return "", false
	}

	switch tokens[0] {
	case "timestamp":
		return funcTimestamp(), true
	case "isoDate":
		return funcISODate(), true
	case "uuid":
		return funcUUID(), true
	case "randomBoolean":
		return funcRandomBoolean(), true
	case "randomName":
		return funcRandomName(), true
	case "randomEmail":
		return funcRandomEmail(), true

	case "randomInt":
		min, ok1 := intArg(tokens, 1, 0)
		max, ok2 := intArg(tokens, 2, 1000)
		if !ok1 || !ok2 || min > max {
			return "", false
		}
		return funcRandomInt(min, max), true

	case "randomFloat":
		min, ok1 := floatArg(tokens, 1, 0)
		max, ok2 := floatArg(tokens, 2, 1)
		precision, ok3 := intArg(tokens, 3, 2)
		if !ok1 || !ok2 || !ok3 || min > max || precision < 0 {
			return "", false
		}
		return funcRandomFloat(min, max, precision), true

	case "randomString":
		length, ok := intArg(tokens, 1, 10)
		if !ok || length < 0 {
			return "", false
		}
		return funcRandomString(length), true
	}

	if strings.HasPrefix(tokens[0], "request.") {
		return e.evaluateRequest(tokens, ctx)
	}
	return "", false
}

// evaluateRequest resolves request.* accessors. The key comes from the
// second token, or from the dotted tail of the first.
func (e *Engine) evaluateRequest(tokens []string, ctx *Context) (string, bool) {
	accessor, key, _ := strings.Cut(tokens[0][len("request."):], ".")
	if key == "" && len(tokens) > 1 {
		key = tokens[1]
	}
	if ctx == nil {
		return "", true
	}

	switch accessor {
	case "query":
		if values, ok := ctx.Query[key]; ok && len(values) > 0 {
			return values[0], true
		}
		return "", true
	case "header":
		if values, ok := ctx.Headers[http.CanonicalHeaderKey(key)]; ok && len(values) > 0 {
			return values[0], true
		}
		return "", true
	case "body":
		if value, ok := matching.LookupPath(ctx.Body, key); ok {
			return matching.Stringify(value), true
		}
		return "", true
	case "path":
		return ctx.PathParams[key], true
	}
	return "", false
}

func intArg(tokens []string, i, def int) (int, bool) {
	if i >= len(tokens) {
		return def, true
	}
	n, err := strconv.Atoi(tokens[i])
	if err != nil {
		return 0, false
	}
	return n, true
}

func floatArg(tokens []string, i int, def float64) (float64, bool) {
	if i >= len(tokens) {
		return def, true
	}
	f, err := strconv.ParseFloat(tokens[i], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
