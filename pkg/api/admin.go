package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/smith3v/meowfacts/pkg/facts"
	"github.com/smith3v/meowfacts/pkg/importexport"
	"github.com/smith3v/meowfacts/pkg/logger"
)

type factView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type factTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	list, err := facts.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		logger.Error("failed to list facts", "error", err)
		factsUnavailable(w, "Failed to fetch facts")
		return
	}
	out := make([]factView, len(list))
	for i, f := range list {
		out[i] = factView{ID: f.ID, Text: f.Text}
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": out})
}

func (s *Server) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var req factTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	fact, err := facts.Create(r.Context(), req.Text)
	if errors.Is(err, facts.ErrEmptyText) {
		errorJSON(w, http.StatusBadRequest, "Fact text is required")
		return
	}
	if err != nil {
		logger.Error("failed to create fact", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to create fact")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": fact.ID})
}

func factIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := factIDParam(r)
	if !ok {
		errorJSON(w, http.StatusBadRequest, "invalid fact id")
		return
	}
	var req factTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch err := facts.Update(r.Context(), id, req.Text); {
	case errors.Is(err, facts.ErrEmptyText):
		errorJSON(w, http.StatusBadRequest, "Fact text is required")
	case errors.Is(err, facts.ErrNotFound):
		errorJSON(w, http.StatusNotFound, "Fact not found")
	case err != nil:
		logger.Error("failed to update fact", "fact_id", id, "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to update fact")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := factIDParam(r)
	if !ok {
		errorJSON(w, http.StatusBadRequest, "invalid fact id")
		return
	}
	switch err := facts.Delete(r.Context(), id); {
	case errors.Is(err, facts.ErrNotFound):
		errorJSON(w, http.StatusNotFound, "Fact not found")
	case err != nil:
		logger.Error("failed to delete fact", "fact_id", id, "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to delete fact")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	list, err := facts.List(r.Context(), "")
	if err != nil {
		logger.Error("failed to load facts for export", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to export facts")
		return
	}
	data, err := importexport.BuildExportCSV(list)
	if err != nil {
		logger.Error("failed to build export csv", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to export facts")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", importexport.ExportFilename(s.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleImport accepts the CSV either as the raw body or as a multipart
// "file" field.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "multipart upload needs a file field")
			return
		}
		defer file.Close()
		body = file
	}
	data, err := io.ReadAll(body)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	records, skipped, err := importexport.ParseFactsCSV(data)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "Failed to parse CSV")
		return
	}
	if len(records) == 0 {
		errorJSON(w, http.StatusBadRequest, "No valid facts found to import")
		return
	}
	inserted, updated, err := importexport.UpsertFacts(r.Context(), records)
	if err != nil {
		logger.Error("failed to import facts", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to import facts")
		return
	}
	logger.Info("facts imported", "inserted", inserted, "updated", updated, "skipped", skipped)
	writeJSON(w, http.StatusOK, map[string]int{
		"inserted": inserted,
		"updated":  updated,
		"skipped":  skipped,
	})
}
