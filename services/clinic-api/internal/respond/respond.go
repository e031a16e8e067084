// Package respond writes the API's JSON envelopes.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/medplanner/medplanner/services/clinic-api/internal/validate"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"message": ...}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// ValidationFailed writes the 400 envelope carrying per-field errors.
func ValidationFailed(w http.ResponseWriter, errs []validate.FieldError) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation failed",
		"errors":  errs,
	})
}
