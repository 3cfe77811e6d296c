package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/smith3v/meowfacts/pkg/cats"
	"github.com/smith3v/meowfacts/pkg/leaderboard"
	"github.com/smith3v/meowfacts/pkg/logger"
)

type scoreRequest struct {
	Score      int    `json:"score"`
	Game       string `json:"game"`
	Difficulty string `json:"difficulty"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	leaders, err := leaderboard.Top(r.Context(), q.Get("game"), q.Get("difficulty"))
	if err != nil {
		logger.Error("failed to load leaderboard", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaders": leaders})
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user := currentUser(r)
	outcome, err := leaderboard.Submit(r.Context(), leaderboard.Submission{
		UserID:     user.ID,
		Username:   user.Username,
		Score:      req.Score,
		Game:       req.Game,
		Difficulty: req.Difficulty,
	})
	if errors.Is(err, leaderboard.ErrInvalidScore) {
		errorJSON(w, http.StatusBadRequest, "Invalid score or game")
		return
	}
	if err != nil {
		logger.Error("failed to submit score", "user_id", user.ID, "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to submit score")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "outcome": outcome.String()})
}

func (s *Server) handleCats(w http.ResponseWriter, r *http.Request) {
	list, err := cats.ByCategory(r.Context(), chi.URLParam(r, "category"))
	if errors.Is(err, cats.ErrUnknownCategory) {
		errorJSON(w, http.StatusNotFound, "Unknown category")
		return
	}
	if err != nil {
		logger.Error("failed to load cats", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to fetch cats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cats": list})
}
