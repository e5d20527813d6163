package api

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/api/handler"
	"github.com/pantau/pantau/internal/api/middleware"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/session"
	"github.com/pantau/pantau/internal/web"
)

// Services groups the application services the router exposes.
type Services struct {
	Auth      *service.AuthService
	Agencies  *service.AgencyService
	Leaders   *service.LeaderService
	Media     *service.MediaService
	Issues    *service.IssueService
	Staff     *service.StaffService
	Audit     *service.AuditService
	Dashboard *service.DashboardService
	Importer  *service.Importer
}

// Deps is everything NewRouter wires together.
type Deps struct {
	DB       *sql.DB
	Services Services
	Files    *files.Store
	Sessions *session.Manager
	Views    *web.Renderer
	Logger   *zap.Logger

	CSRFKey       string
	SecureCookies bool
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware chain
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logging(d.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.MethodOverride)

	pages := handler.Pages{Views: d.Views, Sessions: d.Sessions, Logger: d.Logger}
	systemHandler := handler.NewSystemHandler(d.DB)
	authHandler := handler.NewAuthHandler(pages, d.Services.Auth)
	dashboardHandler := handler.NewDashboardHandler(pages, d.Services.Dashboard)
	agencyHandler := handler.NewAgencyHandler(pages, d.Services.Agencies)
	leaderHandler := handler.NewLeaderHandler(pages, d.Services.Leaders)
	monitoringHandler := handler.NewMonitoringHandler(pages, d.Services.Issues)
	staffHandler := handler.NewStaffHandler(pages, d.Services.Staff, d.Files)
	auditHandler := handler.NewAuditHandler(d.Services.Audit)

	// Public routes
	r.Get("/healthz", systemHandler.Health)
	r.Handle("/static/*", http.StripPrefix("/static", web.Static()))

	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.Middleware)
		r.Use(middleware.CSRF(d.CSRFKey, d.SecureCookies))

		r.Get("/", authHandler.Root)
		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)

		// Everything below requires a session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin)

			r.Get("/beranda", dashboardHandler.Home)

			r.Route("/opd", func(r chi.Router) {
				r.Get("/", agencyHandler.List)
				r.Get("/create", agencyHandler.CreateForm)
				r.Post("/", agencyHandler.Create)
				r.Get("/edit/{id}", agencyHandler.EditForm)
				r.Put("/{id}", agencyHandler.Update)
				r.Delete("/{id}", agencyHandler.Delete)
			})

			r.Route("/pimpinan", func(r chi.Router) {
				r.Get("/", leaderHandler.List)
				r.Get("/create", leaderHandler.CreateForm)
				r.Post("/", leaderHandler.Create)
				r.Get("/edit/{id}", leaderHandler.EditForm)
				r.Put("/{id}", leaderHandler.Update)
				r.Delete("/{id}", leaderHandler.Delete)
			})

			for _, kind := range domain.ValidIssueKinds {
				r.Route("/"+kind.Slug(), handler.NewIssueHandler(pages, kind, d.Services.Issues, d.Files).Routes)
			}

			r.Route("/highlight", monitoringHandler.Routes)
			r.Route("/laporan", staffHandler.Routes)

			r.Get("/api/audit", auditHandler.QueryAuditLog)
			r.Get("/api/audit/{entity}/{id}", auditHandler.History)

			r.Handle("/uploads/*", http.StripPrefix("/uploads", uploads(d.Files)))
		})
	})

	return r
}

// uploads serves stored files. Directory listings are not exposed.
func uploads(store *files.Store) http.Handler {
	fs := http.FileServer(http.Dir(store.Root()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
