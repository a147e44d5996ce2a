package main

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/zenGate-Global/wedding-admin/contracts"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	platformmiddleware "github.com/zenGate-Global/wedding-admin/platform/go/middleware"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

// newSpecValidator builds request validation middleware from the named contract.
// Requests that do not match the contract get a problem response before reaching the handler.
func newSpecValidator(name string) (func(http.Handler) http.Handler, error) {
	spec, err := contracts.Load(name)
	if err != nil {
		return nil, err
	}
	// Paths in the contracts are absolute, so server matching is skipped.
	spec.Servers = nil

	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: platformmiddleware.ValidateBearerAuth,
		},
		ErrorHandler: writeValidationProblem,
	}), nil
}

func writeValidationProblem(w http.ResponseWriter, message string, statusCode int) {
	title := http.StatusText(statusCode)
	if title == "" {
		title = "Request rejected"
	}
	problem := httpapi.NewProblem(statusCode, title, message)
	if statusCode == http.StatusBadRequest {
		problem.Code = result.CodeValidation
	}
	httpapi.WriteProblem(w, problem)
}

func specValidators(names ...string) (map[string]func(http.Handler) http.Handler, error) {
	out := make(map[string]func(http.Handler) http.Handler, len(names))
	for _, name := range names {
		v, err := newSpecValidator(name)
		if err != nil {
			return nil, fmt.Errorf("build %s validator: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
