// Package httputil centralizes JSON response writing and request decoding so
// handlers stay declarative. Error responses expose stable codes; internal
// error details never leak to clients.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	derrors "comply/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError maps a domain error code to an HTTP status and writes the error
// body. Internal and unavailable errors omit the description so infrastructure
// detail stays out of responses.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	body := errorBody{Error: string(code)}

	var de *derrors.Error
	if errors.As(err, &de) && !opaque(code) {
		body.ErrorDescription = de.Message
	}

	WriteJSON(w, statusFor(code), body)
}

func opaque(code derrors.Code) bool {
	return code == derrors.CodeInternal || code == derrors.CodeUnavailable
}

func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeInvalidInput, derrors.CodeBadRequest:
		return http.StatusBadRequest
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict:
		return http.StatusConflict
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeForbidden:
		return http.StatusForbidden
	case derrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON request body into T, answering 400 itself on failure.
// The second return value reports whether decoding succeeded.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "request body rejected", "error", err)
		}
		WriteError(w, derrors.New(derrors.CodeBadRequest, "malformed request body"))
		return req, false
	}
	return req, true
}
