package api

import (
	"fmt"
	"net/http"
	"time"

	"ms-parking/internal/auth"
	"ms-parking/internal/logger"
	"ms-parking/internal/models"
	"ms-parking/internal/realtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	BasePath       string
	AllowedOrigins []string
	Handler        *Handler
	WS             http.Handler
	SSE            *realtime.SSEHandler
}

// NewRouter builds the full HTTP surface: REST endpoints under BasePath plus
// /ws, the gate event stream and /healthz.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler
	log := h.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(requestLogger(log))

	r.Get("/healthz", h.Health)
	if cfg.WS != nil {
		r.Handle("/ws", cfg.WS)
	}
	if cfg.SSE != nil {
		r.Get("/events/gates/{gateId}", cfg.SSE.HandleGateEvents)
	}

	base := cfg.BasePath
	if base == "" {
		base = "/api/v1"
	}

	r.Route(base, func(r chi.Router) {
		r.Use(h.Auth.Authenticate)

		r.Post("/auth/login", h.Login)
		r.With(auth.RequireRole(models.RoleEmployee, models.RoleAdmin)).Post("/auth/logout", h.Logout)

		r.Route("/master", func(r chi.Router) {
			r.Get("/gates", h.ListGates)
			r.Get("/zones", h.ListZones)
			r.Get("/categories", h.ListCategories)
		})

		r.Get("/subscriptions/{id}", h.GetSubscription)

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/checkin", h.CheckIn)
			r.With(auth.RequireRole(models.RoleEmployee, models.RoleAdmin)).Post("/checkout", h.Checkout)
			r.Get("/{id}", h.GetTicket)
			r.Get("/{id}/qr", h.GetTicketQR)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/reports/parking-state", h.ParkingStateReport)
			r.Put("/categories/{id}", h.UpdateCategory)
			r.Put("/zones/{id}/open", h.SetZoneOpen)
			r.Post("/rush-hours", h.AddRushWindow)
			r.Post("/vacations", h.AddVacation)
			r.Get("/subscriptions", h.ListSubscriptions)
		})
	})

	log.Info("ROUTER", fmt.Sprintf("Routes registered under %s", base))
	return r
}

// requestLogger logs every request once it has been served.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", status), time.Since(start).String())
		})
	}
}
