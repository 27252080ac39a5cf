package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/discround/internal/errors"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnknownParticipant = "UNKNOWN_PARTICIPANT"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status   int    `json:"-"`
	Code     string `json:"code"`
	Message  string `json:"error"`
	Field    string `json:"field,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrUnauthorized   = &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	ErrInternalServer = &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
)

// BadRequest creates a 400 error for malformed requests
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		return ErrInternalServer
	}

	out := &APIError{Message: appErr.Message, Field: appErr.Field, PlayerID: appErr.PlayerID}
	switch appErr.Kind {
	case errors.ErrValidation:
		out.Status, out.Code = http.StatusBadRequest, ErrCodeValidation
	case errors.ErrUnknownParticipant:
		out.Status, out.Code = http.StatusUnprocessableEntity, ErrCodeUnknownParticipant
	case errors.ErrForbidden:
		out.Status, out.Code = http.StatusForbidden, ErrCodeForbidden
	case errors.ErrConflict:
		out.Status, out.Code = http.StatusConflict, ErrCodeConflict
	case errors.ErrInvalidState:
		out.Status, out.Code = http.StatusConflict, ErrCodeInvalidState
	case errors.ErrNotFound:
		out.Status, out.Code = http.StatusNotFound, ErrCodeNotFound
	default:
		return ErrInternalServer
	}
	return out
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondError writes an error response, logging anything that maps to a 500
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := ToAPIError(err)
	if apiErr.Status == http.StatusInternalServerError && h.Log != nil {
		h.Log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes JSON from request body into the target.
// Unknown fields and trailing data are rejected.
func decodeJSON(r *http.Request, target interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if err == io.EOF {
			return errors.Validation("request body is empty")
		}
		return errors.Validationf("invalid JSON: %v", err)
	}
	if dec.More() {
		return errors.Validation("invalid JSON: unexpected data after body")
	}
	return nil
}

// parseIntParam extracts a positive integer URL parameter
func parseIntParam(r *http.Request, name string) (int, error) {
	param := chi.URLParam(r, name)
	if param == "" {
		return 0, errors.Validation("missing " + name).WithField(name)
	}
	n, err := strconv.Atoi(param)
	if err != nil || n < 1 {
		return 0, errors.Validationf("%s must be a positive integer", name).WithField(name)
	}
	return n, nil
}
