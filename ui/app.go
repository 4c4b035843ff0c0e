package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"prevalence/app"
	"prevalence/internal"
	"prevalence/internal/report"
	"prevalence/ports"
)

// App is the HTTP application: a JSON API over the analysis service plus a
// rendered report view.
type App struct {
	router  *chi.Mux
	service *app.AnalysisService
	repo    ports.AnalysisRepository
	reports *report.Builder
	logger  *internal.Logger
}

// NewApp creates a new HTTP application
func NewApp(service *app.AnalysisService, repo ports.AnalysisRepository, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		repo:    repo,
		reports: report.NewBuilder(),
		logger:  logger,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Post("/api/analyses", a.handleRunAnalysis)
	a.router.Get("/api/analyses", a.handleListAnalyses)
	a.router.Get("/api/analyses/{id}", a.handleGetAnalysis)
	a.router.Get("/analyses/{id}/report", a.handleAnalysisReport)
	a.router.Get("/healthz", a.handleHealth)
}

// Router returns the HTTP handler for the application.
func (a *App) Router() http.Handler {
	return a.router
}

// Serve starts the HTTP server on the given port.
func (a *App) Serve(port string) error {
	a.logger.Info("prevalence API listening on :%s", port)
	return http.ListenAndServe(":"+port, a.router)
}
