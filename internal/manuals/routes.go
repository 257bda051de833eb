package manuals

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/manualview/internal/manual"
)

// RegisterRoutes mounts the manual API routes.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/manuals", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/{id}", handleGet(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			slog.ErrorContext(r.Context(), "listing manuals failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to fetch manuals list")
			return
		}
		WriteJSON(w, http.StatusOK, list)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid manual id")
			return
		}
		m, err := store.Get(r.Context(), id)
		if errors.Is(err, manual.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Manual not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "fetching manual failed", "id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to fetch details for manual "+strconv.Itoa(id))
			return
		}
		WriteJSON(w, http.StatusOK, m.Wire())
	}
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
