package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/smith3v/meowfacts/pkg/factid"
	"github.com/smith3v/meowfacts/pkg/facts"
	"github.com/smith3v/meowfacts/pkg/logger"
)

func (s *Server) handleRandomFacts(w http.ResponseWriter, r *http.Request) {
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	list, err := facts.Random(r.Context(), count, r.URL.Query().Get("difficulty"))
	if err != nil {
		logger.Error("failed to fetch facts", "error", err)
		factsUnavailable(w, "Failed to fetch facts")
		return
	}
	if len(list) == 0 {
		list = []string{facts.FallbackFact}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fact": list})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := facts.Count(r.Context())
	if err != nil {
		logger.Error("failed to count facts", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to count facts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	fact, err := facts.Daily(r.Context(), s.now().UTC())
	if errors.Is(err, facts.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "No facts available",
			"text":  facts.FallbackFact,
		})
		return
	}
	if err != nil {
		logger.Error("failed to fetch daily fact", "error", err)
		factsUnavailable(w, "Failed to fetch daily fact")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":   factid.DisplayID(fact.ID, fact.Text),
		"text": fact.Text,
	})
}

func (s *Server) handlePopulate(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		errorJSON(w, http.StatusServiceUnavailable, "No fact provider configured")
		return
	}
	stored, err := facts.Populate(r.Context(), s.source, s.populateCount)
	switch {
	case errors.Is(err, facts.ErrAlreadyPopulated):
		errorJSON(w, http.StatusBadRequest, "Facts table is already populated")
		return
	case errors.Is(err, facts.ErrProviderEmpty):
		errorJSON(w, http.StatusBadGateway, "Fact provider returned no facts")
		return
	case err != nil:
		logger.Error("failed to populate facts", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to populate facts")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Successfully populated %d facts", stored),
	})
}

type encounterRequest struct {
	FactID uint `json:"factId"`
}

func (s *Server) handleEncounter(w http.ResponseWriter, r *http.Request) {
	var req encounterRequest
	if err := decodeJSON(w, r, &req); err != nil || req.FactID == 0 {
		errorJSON(w, http.StatusBadRequest, "factId is required")
		return
	}
	user := currentUser(r)
	err := facts.Encounter(r.Context(), user.ID, req.FactID)
	if errors.Is(err, facts.ErrNotFound) {
		errorJSON(w, http.StatusNotFound, "Fact not found")
		return
	}
	if err != nil {
		logger.Error("failed to record encounter", "user_id", user.ID, "fact_id", req.FactID, "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to record encounter")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleUserFacts(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	known, err := facts.UserFacts(r.Context(), user.ID)
	if err != nil {
		logger.Error("failed to load user facts", "user_id", user.ID, "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to load user facts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": known})
}
