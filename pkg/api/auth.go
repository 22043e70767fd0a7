// pkg/api/auth.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hydrapp/hydration-reminder/pkg/db"
	"github.com/hydrapp/hydration-reminder/pkg/logger"
)

type contextKey int

const userContextKey contextKey = iota

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := db.CreateUser(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email is already registered")
		case errors.Is(err, db.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Error("failed to create user", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}
	session, err := db.CreateSession(user.ID, time.Now().UTC())
	if err != nil {
		logger.Error("failed to create session", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := db.AuthenticateUser(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		logger.Error("failed to authenticate user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	session, err := db.CreateSession(user.ID, time.Now().UTC())
	if err != nil {
		logger.Error("failed to create session", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		if err := db.DeleteSession(token); err != nil {
			logger.Error("failed to delete session", "error", err)
		}
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := db.UserBySessionToken(token, time.Now().UTC())
		if err != nil {
			if errors.Is(err, db.ErrSessionNotFound) {
				writeError(w, http.StatusUnauthorized, "session expired or invalid")
				return
			}
			logger.Error("failed to resolve session", "error", err)
			writeError(w, http.StatusInternalServerError, "authentication failed")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil || !s.adminAccounts[user.Email] {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) *db.User {
	user, _ := r.Context().Value(userContextKey).(*db.User)
	return user
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
