package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lumenresearch/newsroom/internal/content"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondValidation reports blank required fields first, the way the
// admin form expects, and any other rejected field otherwise.
func respondValidation(w http.ResponseWriter, err error) {
	fields := map[string]string{}
	for name, fieldErr := range content.FieldErrors(err) {
		fields[name] = fieldErr.Error()
	}

	message := "Invalid request"
	if missing := content.MissingFields(err); len(missing) > 0 {
		message = "Missing required fields: " + strings.Join(missing, ", ")
	} else if names := content.FieldNames(err); len(names) > 0 {
		message = "Invalid fields: " + strings.Join(names, ", ")
	}

	respondJSON(w, http.StatusBadRequest, errorResponse{Error: message, Fields: fields})
}
