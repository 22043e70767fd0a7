// pkg/api/handlers_prefs.go
package api

import (
	"errors"
	"net/http"

	"github.com/hydrapp/hydration-reminder/pkg/db"
	"github.com/hydrapp/hydration-reminder/pkg/logger"
)

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	writeJSON(w, http.StatusOK, user.Preferences())
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var prefs db.Preferences
	if !decodeJSON(w, r, &prefs) {
		return
	}
	allowTest := s.testAccounts[user.Email]
	if err := db.UpdatePreferences(user.ID, prefs, allowTest); err != nil {
		if errors.Is(err, db.ErrInvalidPreferences) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("failed to update preferences", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
