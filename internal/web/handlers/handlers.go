// Package handlers contains the JSON HTTP handlers. They decode requests,
// call the domain layer, and translate domain errors into status codes;
// everything else lives below them.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/schoolhouse-dev/schoolhouse/internal/database"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db *database.DB
}

// New creates the handler set over the domain layer.
func New(db *database.DB) *Handlers {
	return &Handlers{db: db}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
