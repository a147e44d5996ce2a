package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads a single JSON document into dst. Unknown fields are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return result.InvalidField("body", "request body is required")
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return result.InvalidField("body", "request body is required")
		}
		return result.InvalidField("body", fmt.Sprintf("malformed JSON: %v", err))
	}
	if decoder.More() {
		return result.InvalidField("body", "request body must contain a single JSON document")
	}
	return nil
}

// PathUUID parses a chi URL parameter as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, result.InvalidField(name, "must be a valid UUID")
	}
	return id, nil
}

// BindQuery binds an optional form-style query parameter into dest, which must be a pointer.
// dest is left untouched when the parameter is absent.
func BindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return result.InvalidField(name, fmt.Sprintf("invalid query parameter: %v", err))
	}
	return nil
}

// BindQueries binds several optional parameters, collecting every failure into one validation error.
func BindQueries(r *http.Request, params map[string]any) error {
	fields := result.FieldErrors{}
	for name, dest := range params {
		if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
			fields.Add(name, fmt.Sprintf("invalid query parameter: %v", err))
		}
	}
	if len(fields) > 0 {
		return result.Validation(fields)
	}
	return nil
}

// QueryUUID reads an optional UUID query parameter.
func QueryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	var raw *string
	if err := BindQuery(r, name, &raw); err != nil {
		return nil, err
	}
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, result.InvalidField(name, "must be a valid UUID")
	}
	return &id, nil
}
