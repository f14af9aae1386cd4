// Package middleware provides HTTP middleware and response helpers for the
// API server: request logging, API key authentication, the admin guard, and
// JSON:API error rendering.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/vitae-dev/vitae/infrastructure/api/jsonapi"
)

// RespondJSON writes v as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// RespondError writes a JSON:API error document with the given status.
func RespondError(w http.ResponseWriter, status int, title, detail string) {
	doc := jsonapi.NewErrorResponse(jsonapi.NewError(http.StatusText(status), title, detail))
	RespondJSON(w, status, doc)
}
