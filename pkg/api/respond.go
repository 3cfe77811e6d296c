package api

import (
	"encoding/json"
	"net/http"

	"github.com/smith3v/meowfacts/pkg/facts"
	"github.com/smith3v/meowfacts/pkg/logger"
)

const maxBodyBytes = 5 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// factsUnavailable is the 500 body for fact reads: the error plus a fact the
// UI can still show.
func factsUnavailable(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error": msg,
		"fact":  []string{facts.FallbackFact},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
