package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/securelearn/securelearn-backend/internal/progress"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the engine's typed errors onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	var (
		ve *progress.ValidationError
		nf *progress.NotFoundError
		se *progress.StorageError
		ce *progress.ConfigurationError
	)
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.As(err, &nf):
		http.Error(w, nf.Error(), http.StatusNotFound)
	case errors.As(err, &se):
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	case errors.As(err, &ce):
		http.Error(w, ce.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
