package api

import (
	"net/http"
	"time"

	"leave_portal/internal/api/handler"
	"leave_portal/internal/api/middleware"
	"leave_portal/internal/api/views"
	"leave_portal/internal/app/service"
	"leave_portal/internal/common/security"
	"leave_portal/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	store repository.SessionStore,
	authService *service.AuthService,
	employeeService *service.EmployeeService,
	adminService *service.AdminService,
	v *views.Renderer,
	corsOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(authService, store, v)
	employeeHandler := handler.NewEmployeeHandler(employeeService, store, v)
	adminHandler := handler.NewAdminHandler(adminService, store, v)
	sessionHandler := handler.NewSessionHandler(authService, store)
	apiHandler := handler.NewAPIHandler(employeeService, adminService, sessionHandler, store)

	// Everything below knows which browser is calling. The token only lives
	// in the portal cookie, never in an Authorization header.
	r.Group(func(browser chi.Router) {
		browser.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromCookie))
		browser.Use(middleware.BrowserSession)

		// Long-lived; must stay outside the request timeout.
		sessionHandler.RegisterRoutes(browser)

		browser.Group(func(pages chi.Router) {
			pages.Use(chiMiddleware.Timeout(60 * time.Second))

			authHandler.RegisterRoutes(pages)
			pages.Route("/employee", employeeHandler.RegisterRoutes)
			pages.Route("/admin", adminHandler.RegisterRoutes)

			pages.Route("/api/v1", func(v1 chi.Router) {
				v1.Use(middleware.NewCORS(corsOrigins))
				apiHandler.RegisterRoutes(v1)
			})
		})
	})

	return r
}
