// Package api serves the Mini App HTTP surface. All responses share the
// {"success": ...} envelope the frontend was built against.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/mrosiy/tarot-miniapp/internal/config"
	"github.com/mrosiy/tarot-miniapp/internal/service"
)

type Server struct {
	cfg      config.Config
	log      *slog.Logger
	users    *service.UserService
	readings *service.ReadingService
	history  *service.HistoryService
	payments *service.PaymentService
	progress *service.ProgressionService
	admin    *service.AdminService
	validate *validator.Validate
	router   *chi.Mux
}

func NewServer(cfg config.Config, log *slog.Logger, users *service.UserService, readings *service.ReadingService, history *service.HistoryService, payments *service.PaymentService, progress *service.ProgressionService, admin *service.AdminService) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		users:    users,
		readings: readings,
		history:  history,
		payments: payments,
		progress: progress,
		admin:    admin,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverJSON)
	// CORS runs before identity so preflight requests never hit auth.
	r.Use(s.cors)

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/auth", s.handleAuth)
	r.Get("/api/rates", s.handleRates)

	r.Group(func(authed chi.Router) {
		authed.Use(s.withIdentity)
		authed.Get("/api/user", s.handleUser)
		authed.Post("/api/reading", s.handleReading)
		authed.Get("/api/history", s.handleHistory)
		authed.Post("/api/payment", s.handlePayment)
		authed.Get("/api/achievements", s.handleAchievements)

		authed.Route("/api/admin", func(adm chi.Router) {
			adm.Use(s.requireAdmin)
			adm.Get("/stats", s.handleAdminStats)
			adm.Get("/users", s.handleAdminUsers)
			adm.Post("/add_requests", s.handleAdminAddRequests)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.fail(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.fail(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.ListenAddr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Reading responses wait on the oracle, which can take a minute.
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("api shutdown error", "err", err)
		}
	}()

	s.log.Info("api listening", "addr", s.cfg.ListenAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}
