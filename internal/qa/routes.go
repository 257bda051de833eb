package qa

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/manualview/internal/manuals"
)

// RegisterRoutes mounts the question answering API.
func RegisterRoutes(r chi.Router, engine *Engine, log *Log) {
	r.Post("/api/qa", handleAsk(engine))
	if log != nil {
		r.Get("/api/qa/history", handleHistory(log))
	}
}

type askRequest struct {
	Question *string `json:"question"`
}

func handleAsk(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt != "application/json" {
			manuals.WriteError(w, http.StatusBadRequest, "Request must be JSON")
			return
		}
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			manuals.WriteError(w, http.StatusBadRequest, "Request must be JSON")
			return
		}
		if req.Question == nil {
			manuals.WriteError(w, http.StatusBadRequest, "Missing 'question' in request body")
			return
		}

		ans, err := engine.Ask(r.Context(), *req.Question)
		switch {
		case errors.Is(err, ErrEmptyQuestion):
			manuals.WriteError(w, http.StatusBadRequest, "Missing 'question' in request body")
			return
		case errors.Is(err, ErrNoProvider):
			manuals.WriteError(w, http.StatusInternalServerError, "AI model is not configured")
			return
		case err != nil:
			slog.ErrorContext(r.Context(), "answering question failed", "error", err)
			manuals.WriteError(w, http.StatusInternalServerError, "Failed to get answer from AI model")
			return
		}
		manuals.WriteJSON(w, http.StatusOK, ans)
	}
}

func handleHistory(log *Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := log.Recent(r.Context(), limit)
		if err != nil {
			slog.ErrorContext(r.Context(), "listing qa history failed", "error", err)
			manuals.WriteError(w, http.StatusInternalServerError, "Failed to fetch question history")
			return
		}
		manuals.WriteJSON(w, http.StatusOK, entries)
	}
}
