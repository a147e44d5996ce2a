// Package httpapi holds the JSON and problem+json plumbing shared by every domain handler.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeProblem = "application/problem+json"

	problemTypeBase = "https://wedding-admin.dev/problems/"
)

// Problem is an RFC 7807 document extended with the result code, optional details and per-field errors.
type Problem struct {
	Type     string              `json:"type,omitempty"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Code     result.Code         `json:"code,omitempty"`
	Details  any                 `json:"details,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

// StatusFor maps a result code onto its HTTP status.
func StatusFor(code result.Code) int {
	switch code {
	case result.CodeValidation:
		return http.StatusBadRequest
	case result.CodeNotFound:
		return http.StatusNotFound
	case result.CodeDuplicateEntry, result.CodeSchedulingConflict, result.CodeCircularReference:
		return http.StatusConflict
	case result.CodeCapacityExceeded:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func titleFor(code result.Code) string {
	switch code {
	case result.CodeValidation:
		return "Validation failed"
	case result.CodeNotFound:
		return "Resource not found"
	case result.CodeDuplicateEntry:
		return "Duplicate entry"
	case result.CodeSchedulingConflict:
		return "Scheduling conflict"
	case result.CodeCircularReference:
		return "Circular reference"
	case result.CodeCapacityExceeded:
		return "Capacity exceeded"
	default:
		return "Internal server error"
	}
}

func problemType(code result.Code) string {
	switch code {
	case result.CodeValidation:
		return problemTypeBase + "validation-error"
	case result.CodeNotFound:
		return problemTypeBase + "not-found"
	case result.CodeDuplicateEntry:
		return problemTypeBase + "duplicate-entry"
	case result.CodeSchedulingConflict:
		return problemTypeBase + "scheduling-conflict"
	case result.CodeCircularReference:
		return problemTypeBase + "circular-reference"
	case result.CodeCapacityExceeded:
		return problemTypeBase + "capacity-exceeded"
	default:
		return problemTypeBase + "internal-error"
	}
}

// ProblemFromError converts a service error into a problem document.
// Internal failures never leak their cause to the client.
func ProblemFromError(err error, instance string) Problem {
	rerr, ok := result.As(err)
	if !ok {
		rerr = result.Unknown(err)
	}

	status := StatusFor(rerr.Code)
	problem := Problem{
		Type:     problemType(rerr.Code),
		Title:    titleFor(rerr.Code),
		Status:   status,
		Detail:   rerr.Message,
		Instance: instance,
		Code:     rerr.Code,
		Details:  rerr.Details,
	}
	if status >= http.StatusInternalServerError {
		problem.Detail = "an unexpected error occurred"
		problem.Details = nil
	}
	if len(rerr.Fields) > 0 {
		problem.Errors = make(map[string][]string, len(rerr.Fields))
		for field, messages := range rerr.Fields {
			problem.Errors[field] = append([]string(nil), messages...)
		}
	}
	return problem
}

// NewProblem builds a problem for failures raised outside the service layer (auth, rate limiting, routing).
func NewProblem(status int, title, detail string) Problem {
	return Problem{
		Type:   problemTypeBase + slugForStatus(status),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

func slugForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusTooManyRequests:
		return "rate-limited"
	case http.StatusBadRequest:
		return "validation-error"
	case http.StatusNotFound:
		return "not-found"
	default:
		return "internal-error"
	}
}

// WriteProblem serialises problem with the problem+json media type.
func WriteProblem(w http.ResponseWriter, problem Problem) {
	w.Header().Set("Content-Type", ContentTypeProblem)
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// WriteJSON serialises body with the given status. A nil body writes only the status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
