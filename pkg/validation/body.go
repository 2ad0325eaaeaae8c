package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Compiled schemas are cached by their serialised form, so endpoints
// sharing a schema share one compilation.
var (
	schemaMu    sync.RWMutex
	schemaCache = map[string]*jsonschema.Schema{}
)

// CheckBody validates raw request body bytes against the endpoint's
// rules. An empty body counts as absent: required fields fail and a
// schema sees JSON null.
func CheckBody(rules *endpoint.ValidationRules, raw []byte) *Result {
	result := &Result{Valid: true}
	if rules.IsEmpty() {
		return result
	}

	var body any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			result.AddError(&FieldError{
				Location: LocationBody,
				Code:     CodeInvalidJSON,
				Message:  "request body is not valid JSON: " + err.Error(),
			})
			return result
		}
	}

	if len(rules.Required) > 0 {
		checkRequired(rules.Required, body, result)
	}
	if rules.Schema != nil {
		checkSchema(rules.Schema, body, result)
	}
	return result
}

func checkRequired(required []string, body any, result *Result) {
	fields, _ := body.(map[string]any)
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			result.AddError(&FieldError{
				Field:    name,
				Location: LocationBody,
				Code:     CodeRequired,
				Message:  fmt.Sprintf("missing required field %q", name),
			})
		}
	}
}

func checkSchema(schema, body any, result *Result) {
	compiled, err := compileSchema(schema)
	if err != nil {
		result.AddError(&FieldError{
			Code:    CodeSchema,
			Message: "schema compilation failed: " + err.Error(),
		})
		return
	}

	if err := compiled.Validate(body); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			collectSchemaErrors(ve, result)
		} else {
			result.AddError(&FieldError{Code: CodeSchema, Message: err.Error()})
		}
	}
}

func compileSchema(schema any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	key := string(data)

	schemaMu.RLock()
	compiled, ok := schemaCache[key]
	schemaMu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", strings.NewReader(key)); err != nil {
		return nil, err
	}
	compiled, err = compiler.Compile("schema.json")
	if err != nil {
		return nil, err
	}

	schemaMu.Lock()
	schemaCache[key] = compiled
	schemaMu.Unlock()
	return compiled, nil
}

// collectSchemaErrors flattens the validation error tree into one entry
// per leaf cause.
func collectSchemaErrors(err *jsonschema.ValidationError, result *Result) {
	if len(err.Causes) == 0 {
		result.AddError(&FieldError{
			Field:    pointerToField(err.InstanceLocation),
			Location: LocationBody,
			Code:     CodeSchema,
			Message:  err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, result)
	}
}

// pointerToField turns a JSON Pointer instance location into the dotted
// form used everywhere else ("/items/0/name" -> "items.0.name").
func pointerToField(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return ""
	}
	return strings.ReplaceAll(pointer, "/", ".")
}
