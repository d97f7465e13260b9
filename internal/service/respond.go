package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/classroll/internal/enrollment"
	"github.com/mmynk/classroll/internal/middleware"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error    string   `json:"error"`
	Field    string   `json:"field,omitempty"`
	Fields   []string `json:"fields,omitempty"`
	Group    string   `json:"group,omitempty"`
	Capacity *int     `json:"capacity,omitempty"`
	Count    *int     `json:"count,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// requestError marks a malformed request (bad JSON, bad path parameter).
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors to HTTP status codes:
// not found → 404, validation and capacity → 400, anything else → 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr         *requestError
		validationErrs enrollment.ValidationErrors
		validationErr  *enrollment.ValidationError
		notFound       *enrollment.NotFoundError
		full           *enrollment.CapacityExceededError
	)

	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: reqErr.msg})

	case errors.As(err, &validationErrs):
		resp := errorResponse{Error: validationErrs.Error(), Fields: validationErrs.Fields()}
		if len(validationErrs) > 0 {
			resp.Field = validationErrs[0].Field
		}
		writeJSON(w, http.StatusBadRequest, resp)

	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  validationErr.Error(),
			Field:  validationErr.Field,
			Fields: []string{validationErr.Field},
		})

	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error()})

	case errors.As(err, &full):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    full.Error(),
			Group:    full.Group,
			Capacity: &full.Capacity,
			Count:    &full.Count,
		})

	default:
		slog.Error("Request failed with internal error",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON reads the request body into v. Field errors raised while
// decoding are returned as is so they map to a validation response.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var fieldErr *enrollment.ValidationError
		if errors.As(err, &fieldErr) {
			return fieldErr
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, badRequest("invalid %s %q", name, raw)
	}
	return &id, nil
}

// optionalID keeps nil IDs readable in log lines.
func optionalID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
