// pkg/api/server.go
package api

import (
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hydrapp/hydration-reminder/pkg/config"
	"github.com/hydrapp/hydration-reminder/pkg/notify"
)

// Server wires the HTTP surface over the stores and the scheduler
// controller.
type Server struct {
	controller    *notify.Controller
	pushPublicKey string
	adminAccounts map[string]bool
	testAccounts  map[string]bool
}

func NewServer(cfg *config.Config, controller *notify.Controller) *Server {
	return &Server{
		controller:    controller,
		pushPublicKey: cfg.Push.VAPIDPublicKey,
		adminAccounts: toEmailSet(cfg.Scheduler.AdminAccounts),
		testAccounts:  toEmailSet(cfg.Scheduler.TestAccounts),
	}
}

func toEmailSet(emails []string) map[string]bool {
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		set[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return set
}

// Router builds the chi router with the full API surface.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)

			r.Get("/preferences", s.handleGetPreferences)
			r.Put("/preferences", s.handleUpdatePreferences)

			r.Get("/push/key", s.handlePushKey)
			r.Post("/push/subscribe", s.handleSubscribe)
			r.Delete("/push/subscribe", s.handleUnsubscribe)

			r.Post("/water", s.handleCreateWaterLog)
			r.Get("/water", s.handleListWaterLogs)
			r.Delete("/water/{id}", s.handleDeleteWaterLog)
			r.Get("/water/stats", s.handleWaterStats)

			r.Route("/admin/scheduler", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/start", s.handleSchedulerStart)
				r.Post("/start-test", s.handleSchedulerStartTest)
				r.Post("/stop", s.handleSchedulerStop)
				r.Post("/trigger", s.handleSchedulerTrigger)
				r.Get("/status", s.handleSchedulerStatus)
			})
		})
	})

	return r
}
