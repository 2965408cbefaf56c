package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"churndash/app"
	"churndash/domain/dashboard"
	"churndash/internal"
	"churndash/internal/session"
	"churndash/ports"
	"churndash/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed templates/*.html content/*.md
var embeddedFiles embed.FS

// Server is the dashboard web server
type Server struct {
	router    *gin.Engine
	templates *template.Template
	home      template.HTML

	dashboard *app.DashboardService
	sessions  *session.Manager
	auth      ports.Authenticator
	logger    *internal.Logger

	http *http.Server
}

// NewServer creates a server for addr and parses its embedded templates
func NewServer(addr string, dashboardService *app.DashboardService, sessions *session.Manager, auth ports.Authenticator, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:    gin.New(),
		dashboard: dashboardService,
		sessions:  sessions,
		auth:      auth,
		logger:    logger.Named("ui"),
	}

	funcMap := template.FuncMap{
		"num": func(v float64) string {
			if v == float64(int64(v)) {
				return fmt.Sprintf("%d", int64(v))
			}
			return fmt.Sprintf("%.2f", v)
		},
		// width of a bar relative to the largest point in its series
		"width": func(v float64, points []dashboard.Point) float64 {
			var top float64
			for _, p := range points {
				if p.Value > top {
					top = p.Value
				}
			}
			if top <= 0 {
				return 0
			}
			return v / top * 100
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s.templates = templates

	home, err := embeddedFiles.ReadFile("content/home.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read home content: %w", err)
	}
	s.home = renderMarkdown(home)

	s.setupMiddleware()
	s.setupRoutes()
	s.http = &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	return s, nil
}

// renderMarkdown converts trusted embedded markdown to HTML
func renderMarkdown(md []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return template.HTML(markdown.ToHTML(md, p, renderer))
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger(s.logger))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	pages := s.router.Group("/", middleware.EnsureSession(s.sessions, s.logger))
	pages.GET("/", s.handleIndex)
	pages.POST("/login", s.handleLogin)
	pages.POST("/logout", s.handleLogout)
	pages.GET("/dashboard", s.handleDashboard)
	pages.GET("/api/session", s.handleSession)

	api := pages.Group("/api", middleware.RequireAuth())
	api.GET("/dashboard", s.handleDashboardJSON)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. Start after Shutdown returns nil
// without listening.
func (s *Server) Start() error {
	s.logger.Info("Starting churn dashboard on http://%s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight renders
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
