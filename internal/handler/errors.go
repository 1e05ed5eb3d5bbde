package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pkordes/carpool/internal/domain"
)

// Error codes carried in ErrorDetail.Code.
const (
	codeValidation   = "validation_error"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeForbidden    = "forbidden"
	codeUnauthorized = "unauthorized"
	codeTooLarge     = "request_too_large"
	codeUnavailable  = "unavailable"
	codeInternal     = "internal_error"
)

// errorStatus maps an error onto its HTTP status and code by domain kind.
func errorStatus(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, codeTooLarge
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, codeValidation
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, codeConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// WriteError renders err as an ErrorResponse. Infrastructure failures are
// logged and answered with a generic message so no storage detail leaks.
// Its signature matches middleware.ErrorWriter.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	var message string
	switch status {
	case http.StatusInternalServerError:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		message = "internal server error"
	case http.StatusServiceUnavailable:
		slog.WarnContext(r.Context(), "request failed after retries", "path", r.URL.Path, "error", err)
		message = "service temporarily unavailable, retry the request"
	case http.StatusUnauthorized:
		message = "missing or invalid bearer token"
	case http.StatusRequestEntityTooLarge:
		message = "request body too large"
	default:
		message = domain.Message(err)
	}

	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("handler: encode response", "error", err)
	}
}

// decodeJSON decodes a request body into dst, rejecting unknown fields and
// trailing data. Malformed bodies are validation errors.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: request body is required", domain.ErrValidation)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: request body: %s", domain.ErrValidation, decodeMessage(err))
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", domain.ErrValidation)
	}
	return nil
}

// decodeMessage strips decoder internals from an error for the client.
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	case errors.As(err, &syntaxErr):
		return "malformed JSON"
	}
	return domain.Message(err)
}
