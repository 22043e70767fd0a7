// pkg/api/handlers_water.go
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hydrapp/hydration-reminder/pkg/db"
	"github.com/hydrapp/hydration-reminder/pkg/logger"
)

type waterLogRequest struct {
	AmountML int        `json:"amountMl"`
	LoggedAt *time.Time `json:"loggedAt,omitempty"`
}

type waterLogResponse struct {
	ID       uint      `json:"id"`
	AmountML int       `json:"amountMl"`
	LoggedAt time.Time `json:"loggedAt"`
}

func (s *Server) handleCreateWaterLog(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var req waterLogRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	loggedAt := time.Now().UTC()
	if req.LoggedAt != nil {
		loggedAt = req.LoggedAt.UTC()
	}
	log, err := db.CreateWaterLog(user.ID, req.AmountML, loggedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, waterLogResponse{ID: log.ID, AmountML: log.AmountML, LoggedAt: log.LoggedAt})
}

func (s *Server) handleListWaterLogs(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	from := parseTimeParam(r, "from")
	to := parseTimeParam(r, "to")

	logs, err := db.ListWaterLogs(user.ID, from, to)
	if err != nil {
		logger.Error("failed to list water logs", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load water logs")
		return
	}
	out := make([]waterLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, waterLogResponse{ID: l.ID, AmountML: l.AmountML, LoggedAt: l.LoggedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteWaterLog(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log id")
		return
	}
	if err := db.DeleteWaterLog(user.ID, uint(id)); err != nil {
		if errors.Is(err, db.ErrWaterLogNotFound) {
			writeError(w, http.StatusNotFound, "water log not found")
			return
		}
		logger.Error("failed to delete water log", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete water log")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type waterStatsResponse struct {
	DailyGoalML int             `json:"dailyGoalMl"`
	Days        []db.DailyTotal `json:"days"`
}

func (s *Server) handleWaterStats(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = parsed
	}

	loc := time.UTC
	if user.Timezone != "" {
		if parsed, err := time.LoadLocation(user.Timezone); err == nil {
			loc = parsed
		}
	}

	totals, err := db.DailyTotals(user.ID, days, loc, time.Now().UTC())
	if err != nil {
		logger.Error("failed to aggregate water stats", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, waterStatsResponse{DailyGoalML: user.DailyGoalML, Days: totals})
}

func parseTimeParam(r *http.Request, name string) time.Time {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
