package validation

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petDoc = `
openapi: 3.0.3
info:
  title: Pet API
  version: "1.0"
paths:
  /pets:
    post:
      parameters:
        - name: tag
          in: query
          required: false
          schema:
            type: string
            enum: [dog, cat]
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                age:
                  type: integer
                  minimum: 0
      responses:
        "201":
          description: created
  /pets/{petId}:
    get:
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
      responses:
        "200":
          description: ok
`

func newPetValidator(t *testing.T) *OpenAPIValidator {
	t.Helper()
	v, err := NewOpenAPIValidatorFromData([]byte(petDoc))
	require.NoError(t, err)
	return v
}

func postPets(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestNewOpenAPIValidatorFromData(t *testing.T) {
	v := newPetValidator(t)
	assert.Equal(t, "Pet API", v.Title())
}

func TestNewOpenAPIValidatorFromDataInvalid(t *testing.T) {
	_, err := NewOpenAPIValidatorFromData([]byte("openapi: 3.0.3\npaths: {}\n"))
	assert.Error(t, err)
}

func TestNewOpenAPIValidatorMissingFile(t *testing.T) {
	_, err := NewOpenAPIValidator("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidateRequestValid(t *testing.T) {
	v := newPetValidator(t)

	r := postPets(`{"name": "rex", "age": 3}`)
	result := v.ValidateRequest(r)
	assert.True(t, result.Valid)

	// The body must survive validation for the handler behind it.
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "rex", "age": 3}`, string(raw))
}

func TestValidateRequestBodyViolations(t *testing.T) {
	v := newPetValidator(t)

	result := v.ValidateRequest(postPets(`{"age": -1}`))
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)

	var messages []string
	for _, fe := range result.Errors {
		assert.Equal(t, LocationBody, fe.Location)
		assert.Equal(t, CodeSchema, fe.Code)
		messages = append(messages, fe.Message)
	}
	joined := strings.Join(messages, "; ")
	assert.Contains(t, joined, "name")
}

func TestValidateRequestQueryParam(t *testing.T) {
	v := newPetValidator(t)

	r := postPets(`{"name": "rex"}`)
	r.URL.RawQuery = "tag=bird"
	result := v.ValidateRequest(r)
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "tag", result.Errors[0].Field)
	assert.Equal(t, LocationQuery, result.Errors[0].Location)
}

func TestValidateRequestPathParam(t *testing.T) {
	v := newPetValidator(t)

	r := httptest.NewRequest(http.MethodGet, "/pets/not-a-number", nil)
	result := v.ValidateRequest(r)
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "petId", result.Errors[0].Field)
	assert.Equal(t, LocationPath, result.Errors[0].Location)
}

func TestValidateRequestNoRoute(t *testing.T) {
	v := newPetValidator(t)

	result := v.ValidateRequest(httptest.NewRequest(http.MethodGet, "/unknown", nil))
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeNoRoute, result.Errors[0].Code)
}

func TestMiddlewareRejects(t *testing.T) {
	v := newPetValidator(t)

	var gotBody string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
	})
	handler := v.Middleware(true, nil)(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postPets(`{"age": "old"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, gotBody)

	var body struct {
		Error   string        `json:"error"`
		Details []*FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Validation Failed", body.Error)
	assert.NotEmpty(t, body.Details)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, postPets(`{"name": "rex"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name": "rex"}`, gotBody)
}

func TestMiddlewareLogOnly(t *testing.T) {
	v := newPetValidator(t)

	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	handler := v.Middleware(false, nil)(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postPets(`{"age": "old"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
