// pkg/api/handlers_admin.go
package api

import (
	"errors"
	"net/http"

	"github.com/hydrapp/hydration-reminder/pkg/notify"
)

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	s.controller.EnterProductionMode()
	writeJSON(w, http.StatusOK, s.controller.Status())
}

func (s *Server) handleSchedulerStartTest(w http.ResponseWriter, r *http.Request) {
	s.controller.EnterTestMode()
	writeJSON(w, http.StatusOK, s.controller.Status())
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	s.controller.Stop()
	writeJSON(w, http.StatusOK, s.controller.Status())
}

func (s *Server) handleSchedulerTrigger(w http.ResponseWriter, r *http.Request) {
	mode := notify.ModeProduction
	if r.URL.Query().Get("mode") == "test" {
		mode = notify.ModeTest
	}
	if err := s.controller.TriggerOnce(mode); err != nil {
		if errors.Is(err, notify.ErrProductionLocked) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "trigger failed")
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Status())
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status())
}
