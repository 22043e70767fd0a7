// pkg/api/handlers_push.go
package api

import (
	"errors"
	"net/http"

	"github.com/hydrapp/hydration-reminder/pkg/db"
	"github.com/hydrapp/hydration-reminder/pkg/logger"
)

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (s *Server) handlePushKey(w http.ResponseWriter, r *http.Request) {
	if s.pushPublicKey == "" {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": s.pushPublicKey})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := db.UpsertSubscription(user.ID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		if errors.Is(err, db.ErrInvalidSubscription) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("failed to upsert subscription", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register subscription")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       sub.ID,
		"endpoint": sub.Endpoint,
		"isActive": sub.IsActive,
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var req unsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := db.DeleteSubscription(user.ID, req.Endpoint); err != nil {
		if errors.Is(err, db.ErrSubscriptionNotFound) {
			writeError(w, http.StatusNotFound, "subscription not found")
			return
		}
		logger.Error("failed to delete subscription", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
