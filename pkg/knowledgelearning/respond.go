package knowledgelearning

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// respondError maps the store error taxonomy onto HTTP statuses.
func (a *App) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrAccessDenied):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		a.log.Error().Err(err).Msg("request failed")
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
