package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"docmerge/app"
	"docmerge/internal"
	"docmerge/internal/config"
	"docmerge/ports"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// App serves the browser workflow: upload template and data, review the
// proposed mapping, generate, download the results
type App struct {
	router    *chi.Mux
	codec     ports.TemplateCodecPort
	reader    ports.TableReaderPort
	generator *app.GenerationService
	sessions  *SessionStore
	runGate   *semaphore.Weighted
	templates *template.Template
	guideHTML template.HTML
	cfg       *config.Config
	logger    *internal.Logger
}

// NewApp creates the UI application
func NewApp(cfg *config.Config, codec ports.TemplateCodecPort, reader ports.TableReaderPort, generator *app.GenerationService) (*App, error) {
	funcMap := template.FuncMap{
		"add":  func(a, b int) int { return a + b },
		"join": strings.Join,
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		codec:     codec,
		reader:    reader,
		generator: generator,
		sessions:  NewSessionStore(cfg.Upload.SessionTTL),
		runGate:   semaphore.NewWeighted(cfg.Generation.MaxConcurrentRuns),
		templates: templates,
		guideHTML: renderGuide(),
		cfg:       cfg,
		logger:    internal.DefaultLogger,
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

	// Embedded paths already carry the static/ prefix, so no strip
	a.router.Handle("/static/*", http.FileServer(http.FS(embeddedFiles)))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/upload", a.handleUpload)
	a.router.Get("/session/{sessionID}", a.handleMapping)
	a.router.Post("/session/{sessionID}/generate", a.handleGenerate)
	a.router.Get("/session/{sessionID}/summary", a.handleSummary)
	a.router.Get("/session/{sessionID}/archive.zip", a.handleArchive)
	a.router.Get("/session/{sessionID}/data.csv", a.handleDataExport)
	a.router.Get("/guide", a.handleGuide)
	a.router.Get("/healthz", a.handleHealth)
}

// Start runs the HTTP server and the session janitor until the listener stops
func (a *App) Start() error {
	a.sessions.StartJanitor(context.Background(), a.logger)

	addr := a.cfg.Server.Host + ":" + a.cfg.Server.Port
	log.Printf("Starting docmerge UI server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// Handler exposes the routed handler, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (a *App) renderError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	data := map[string]interface{}{"Status": status, "Message": message}
	if err := a.templates.ExecuteTemplate(w, "error.html", data); err != nil {
		log.Printf("Template error: %v", err)
	}
}
