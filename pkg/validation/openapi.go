package validation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/mockbird/mockbird/pkg/logging"
)

// OpenAPIValidator checks incoming requests against an OpenAPI 3
// document.
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
}

// NewOpenAPIValidator loads an OpenAPI document (JSON or YAML) from
// disk.
func NewOpenAPIValidator(specFile string) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromFile(specFile)
	if err != nil {
		return nil, fmt.Errorf("loading OpenAPI document: %w", err)
	}
	return newOpenAPIValidator(doc)
}

// NewOpenAPIValidatorFromData builds a validator from document bytes.
func NewOpenAPIValidatorFromData(data []byte) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}
	return newOpenAPIValidator(doc)
}

func newOpenAPIValidator(doc *openapi3.T) (*OpenAPIValidator, error) {
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	// Server URLs in the document play no part in matching; requests
	// are routed by path alone.
	doc.Servers = nil

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("building OpenAPI router: %w", err)
	}
	return &OpenAPIValidator{doc: doc, router: router}, nil
}

// Title returns the document's info title, for startup logging.
func (v *OpenAPIValidator) Title() string {
	if v.doc.Info == nil {
		return ""
	}
	return v.doc.Info.Title
}

// ValidateRequest checks one request against the document. The request
// body is restored before returning so downstream handlers can read it.
func (v *OpenAPIValidator) ValidateRequest(r *http.Request) *Result {
	result := &Result{Valid: true}

	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		result.AddError(&FieldError{
			Code:    CodeNoRoute,
			Message: fmt.Sprintf("no documented operation matches %s %s", r.Method, r.URL.Path),
		})
		return result
	}

	var raw []byte
	if r.Body != nil && r.Body != http.NoBody {
		raw, err = io.ReadAll(r.Body)
		if err != nil {
			result.AddError(&FieldError{
				Location: LocationBody,
				Code:     CodeInvalidJSON,
				Message:  "reading request body: " + err.Error(),
			})
			return result
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			MultiError: true,
			// Auth simulation happens in the endpoint pipeline, so
			// the document's security schemes are not enforced here.
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}
	err = openapi3filter.ValidateRequest(r.Context(), input)

	if raw != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
	}
	if err != nil {
		collectRequestErrors(err, result)
	}
	return result
}

// Middleware enforces the document on every request passing through.
// With reject false, mismatches are logged and the request continues.
func (v *OpenAPIValidator) Middleware(reject bool, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := v.ValidateRequest(r)
			if result.Valid {
				next.ServeHTTP(w, r)
				return
			}
			for _, fe := range result.Errors {
				logger.Warn("request does not match OpenAPI document",
					"method", r.Method,
					"path", r.URL.Path,
					"location", fe.Location,
					"field", fe.Field,
					"detail", fe.Message)
			}
			if !reject {
				next.ServeHTTP(w, r)
				return
			}
			WriteFailure(w, http.StatusBadRequest, result)
		})
	}
}

func collectRequestErrors(err error, result *Result) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			collectRequestErrors(e, result)
		}
		return
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		collectRequestError(reqErr, result)
		return
	}

	var secErr *openapi3filter.SecurityRequirementsError
	if errors.As(err, &secErr) {
		result.AddError(&FieldError{
			Location: LocationHeader,
			Code:     CodeSchema,
			Message:  "security requirements not met: " + secErr.Error(),
		})
		return
	}

	result.AddError(&FieldError{Code: CodeSchema, Message: err.Error()})
}

func collectRequestError(reqErr *openapi3filter.RequestError, result *Result) {
	field := ""
	location := LocationBody
	if reqErr.Parameter != nil {
		field = reqErr.Parameter.Name
		location = reqErr.Parameter.In
	}

	// With MultiError set, a body with several schema violations
	// arrives as a nested MultiError.
	var multi openapi3.MultiError
	if errors.As(reqErr.Err, &multi) {
		for _, e := range multi {
			addRequestError(reqErr, e, field, location, result)
		}
		return
	}
	addRequestError(reqErr, reqErr.Err, field, location, result)
}

func addRequestError(reqErr *openapi3filter.RequestError, cause error, field, location string, result *Result) {
	var schemaErr *openapi3.SchemaError
	if errors.As(cause, &schemaErr) {
		if path := joinPointer(schemaErr.JSONPointer()); path != "" {
			field = path
		}
		message := schemaErr.Reason
		if message == "" {
			message = schemaErr.Error()
		}
		result.AddError(&FieldError{
			Field:    field,
			Location: location,
			Code:     CodeSchema,
			Message:  message,
		})
		return
	}

	message := reqErr.Reason
	if cause != nil {
		if message != "" {
			message += ": "
		}
		message += cause.Error()
	}
	if message == "" {
		message = reqErr.Error()
	}
	result.AddError(&FieldError{
		Field:    field,
		Location: location,
		Code:     CodeSchema,
		Message:  message,
	})
}

func joinPointer(segments []string) string {
	return strings.Join(segments, ".")
}
