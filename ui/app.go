package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"difcregistry/app"
	"difcregistry/internal"
	"difcregistry/ports"
)

//go:embed templates/*.html help.md
var embeddedFiles embed.FS

// App is the operator-facing web application: a form to start an export
// run, live progress over SSE, and the two workbook downloads.
type App struct {
	router    *chi.Mux
	templates *template.Template
	runs      *RunManager
	hub       *EventHub
	history   ports.RunRepository // nil when run history is disabled
	logger    *internal.Logger
	port      string
}

// Config holds web application settings.
type Config struct {
	Port    string
	History ports.RunRepository
	Logger  *internal.Logger
}

// NewApp creates the web application around the two phase services.
func NewApp(config Config, lister *app.ListerService, detailer *app.DetailService) (*App, error) {
	if config.Logger == nil {
		config.Logger = internal.DefaultLogger
	}

	funcMap := template.FuncMap{
		"percent": func(f float64) int { return int(f * 100) },
		"fmt2":    func(f float64) string { return fmt.Sprintf("%.2f", f) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	hub := NewEventHub(config.Logger)
	a := &App{
		router:    chi.NewRouter(),
		templates: templates,
		runs:      NewRunManager(lister, detailer, config.History, hub, config.Logger),
		hub:       hub,
		history:   config.History,
		logger:    config.Logger,
		port:      config.Port,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/runs", a.handleStartRun)
	a.router.Get("/runs/{id}", a.handleRunPage)
	a.router.Get("/runs/{id}/events", a.hub.HandleSSE)
	a.router.Get("/runs/{id}/step1.xlsx", a.handleStep1Download)
	a.router.Get("/runs/{id}/step2.xlsx", a.handleStep2Download)
	a.router.Get("/help", a.handleHelp)
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.logger.Info("DIFC register exporter listening on http://localhost:%s", a.port)
	return http.ListenAndServe(":"+a.port, a.router)
}

// Router exposes the mux for tests.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error("template %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
