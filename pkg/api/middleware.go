package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/smith3v/meowfacts/pkg/auth"
	"github.com/smith3v/meowfacts/pkg/logger"
)

type ctxKey int

const userKey ctxKey = iota

// logging logs each request with method, path, status, and duration.
func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// recovery catches panics and returns a 500.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.Error("panic in handler", "path", r.URL.Path, "panic", err)
				errorJSON(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// sessionUser resolves the request's cookie to a live session.
func (s *Server) sessionUser(r *http.Request) (auth.SessionUser, string, error) {
	sid, err := s.signer.FromRequest(r)
	if err != nil {
		return auth.SessionUser{}, "", err
	}
	user, err := auth.Lookup(r.Context(), sid, s.now())
	return user, sid, err
}

// requireUser rejects requests without a valid session with 401.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, err := s.sessionUser(r)
		if errors.Is(err, auth.ErrNoSession) {
			errorJSON(w, http.StatusUnauthorized, "login required")
			return
		}
		if err != nil {
			logger.Error("failed to resolve session", "error", err)
			errorJSON(w, http.StatusInternalServerError, "failed to resolve session")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) auth.SessionUser {
	user, _ := r.Context().Value(userKey).(auth.SessionUser)
	return user
}
