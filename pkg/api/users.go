package api

import (
	"errors"
	"net/http"

	"github.com/smith3v/meowfacts/pkg/auth"
	"github.com/smith3v/meowfacts/pkg/logger"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := auth.Register(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		errorJSON(w, http.StatusBadRequest, "Username and password required")
		return
	case errors.Is(err, auth.ErrUsernameTaken):
		errorJSON(w, http.StatusConflict, "Username already exists")
		return
	case err != nil:
		logger.Error("failed to register user", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    userView{ID: user.ID, Username: user.Username, Points: user.Points},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := auth.Login(r.Context(), req.Username, req.Password, s.now())
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		errorJSON(w, http.StatusBadRequest, "Username and password required")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		errorJSON(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		logger.Error("failed to log in", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if err := s.signer.SetCookie(w, res.SessionID, res.ExpiresAt); err != nil {
		logger.Error("failed to sign session cookie", "user_id", res.User.ID, "error", err)
		errorJSON(w, http.StatusInternalServerError, "Login failed")
		return
	}

	body := map[string]any{
		"success": true,
		"user":    userView{ID: res.User.ID, Username: res.User.Username, Points: res.Points},
	}
	if res.DailyFact != nil {
		body["dailyFact"] = res.DailyFact
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sid, err := s.signer.FromRequest(r); err == nil {
		if err := auth.Logout(r.Context(), sid); err != nil {
			logger.Error("failed to delete session", "error", err)
			errorJSON(w, http.StatusInternalServerError, "Logout failed")
			return
		}
	}
	s.signer.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user, _, err := s.sessionUser(r)
	if errors.Is(err, auth.ErrNoSession) {
		writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
		return
	}
	if err != nil {
		logger.Error("failed to resolve session", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Failed to check session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true, "user": user})
}
