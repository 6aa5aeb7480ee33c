// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/worktrace/worktrace/internal/config"
	"github.com/worktrace/worktrace/internal/metrics"
	"github.com/worktrace/worktrace/internal/middleware"
	"github.com/worktrace/worktrace/internal/models"
)

// Router wires handlers, authentication, and the chi middleware stack.
type Router struct {
	handler *Handler
	authn   *middleware.Authenticator
	config  *config.Config
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, authn *middleware.Authenticator, cfg *config.Config) *Router {
	return &Router{handler: handler, authn: authn, config: cfg}
}

// Setup builds the full route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.config.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	// Operational endpoints: no auth, permissive limits.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(rt.rateLimit(1000, rt.config.Security.RateLimitWindow))
		r.Get("/", rt.handler.Health)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authentication: strict per-IP limits against credential stuffing.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(rt.rateLimit(rt.config.Security.RateLimitReqs, rt.config.Security.RateLimitWindow))

		r.Post("/signup", rt.handler.Signup)
		r.With(rt.rateLimit(rt.config.Security.LoginLimitReqs, rt.config.Security.LoginLimitWindow)).
			Post("/login", rt.handler.Login)
		r.With(rt.authn.Authenticate).Post("/logout", rt.handler.Logout)
	})

	// Admin surface: tenant CRUD and live-map reads.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(rt.rateLimit(rt.config.Security.RateLimitReqs, rt.config.Security.RateLimitWindow))
		r.Use(rt.authn.Authenticate)
		r.Use(middleware.RequireActor(models.ActorAdmin))

		// Account lifecycle is reserved for the bootstrap super admin.
		r.Route("/admins", func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleSuperAdmin))
			r.Get("/", rt.handler.ListAdmins)
			r.Put("/{id}/activate", rt.handler.ActivateAdmin)
			r.Delete("/{id}", rt.handler.DeactivateAdmin)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Post("/", rt.handler.CreateEmployee)
			r.Get("/", rt.handler.ListEmployees)
			r.Get("/{id}", rt.handler.GetEmployee)
			r.Put("/{id}", rt.handler.UpdateEmployee)
			r.Delete("/{id}", rt.handler.DeactivateEmployee)
			r.Get("/{id}/locations", rt.handler.LocationHistory)
		})

		r.Route("/sites", func(r chi.Router) {
			r.Post("/", rt.handler.CreateSite)
			r.Get("/", rt.handler.ListSites)
			r.Get("/{id}", rt.handler.GetSite)
			r.Put("/{id}", rt.handler.UpdateSite)
			r.Delete("/{id}", rt.handler.DeactivateSite)
		})

		r.Route("/departments", func(r chi.Router) {
			r.Post("/", rt.handler.CreateDepartment)
			r.Get("/", rt.handler.ListDepartments)
			r.Delete("/{id}", rt.handler.DeleteDepartment)
		})

		r.Route("/areas", func(r chi.Router) {
			r.Post("/", rt.handler.CreateArea)
			r.Get("/", rt.handler.ListAreas)
			r.Delete("/{id}", rt.handler.DeleteArea)
		})

		r.Get("/locations", rt.handler.Locations)
		r.Get("/attendance", rt.handler.Attendance)
		r.Get("/onsite", rt.handler.OnSite)
		r.Get("/audit", rt.handler.AuditLog)
	})

	// Employee surface: attendance and location reporting.
	r.Route("/api/v1/employee", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(rt.rateLimit(rt.config.Security.RateLimitReqs, rt.config.Security.RateLimitWindow))
		r.Use(rt.authn.Authenticate)
		r.Use(middleware.RequireActor(models.ActorEmployee))

		r.Post("/checkin", rt.handler.Checkin)
		r.Post("/checkout", rt.handler.Checkout)
		r.Post("/location", rt.handler.ReportLocation)
		r.Get("/me", rt.handler.Me)
	})

	// Realtime feed. Token arrives as a query parameter.
	r.With(rt.authn.Authenticate).Get("/ws", rt.handler.WebSocket)

	return r
}

// rateLimit builds a per-IP httprate limiter that answers over-limit
// requests with the standard envelope.
func (rt *Router) rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if rt.config.Security.RateLimitDisabled || requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			respondError(w, http.StatusTooManyRequests, ErrCodeRateLimit, "rate limit exceeded")
		}),
	)
}
