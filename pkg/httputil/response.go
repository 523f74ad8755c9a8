package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tradiesite/tradiesite/internal/domain"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body of the form {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ErrorFromDomain maps an application error onto the wire format.
func ErrorFromDomain(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		Error(w, appErr.HTTPStatus, appErr.Message)
		return
	}
	Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return domain.ValidationError("request body is required")
	}
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		return domain.ValidationError("invalid JSON: " + err.Error())
	}
	return nil
}
