package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

var log = logger.For("http")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Documents driving.DocumentService
	Ingestion driving.IngestionController
	Ask       driving.AskService
	Skills    driving.SkillMatcher

	// Importer, when set, normalises multipart uploads by file format.
	Importer driving.FileImporter
}

// ErrMissingPorts is returned when a required port is nil.
var ErrMissingPorts = errors.New("httpapi: documents, ingestion, ask and skills services are required")

// Validate ensures every port is set.
func (p *Ports) Validate() error {
	if p.Documents == nil || p.Ingestion == nil || p.Ask == nil || p.Skills == nil {
		return ErrMissingPorts
	}
	return nil
}

// Config tunes the router.
type Config struct {
	// AskPerMinute limits POST /api/ask; zero disables the limit.
	AskPerMinute int
	// AskBurst is the number of questions allowed at once.
	AskBurst int
	// MaxUploadBytes caps upload bodies.
	MaxUploadBytes int64
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
	// AllowOrigins enables CORS for the listed browser origins.
	AllowOrigins []string
}

const defaultMaxUploadBytes = 10 << 20

// NewRouter builds the gin engine with every route registered.
func NewRouter(ports *Ports, cfg Config) (*gin.Engine, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	h := &handlers{ports: ports, maxUpload: cfg.MaxUploadBytes}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	if len(cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "Mcp-Session-Id"},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.GET("/healthz", h.health)

	api := router.Group("/api")
	{
		api.POST("/upload", h.upload)
		api.POST("/train", h.train)
		api.GET("/train/:id/status", h.trainStatus)
		api.GET("/documents", h.listDocuments)
		api.GET("/documents/:id", h.getDocument)
		api.DELETE("/documents/:id", h.deleteDocument)
		api.POST("/ask", rateLimit(cfg.AskPerMinute, cfg.AskBurst), h.ask)
		api.GET("/find", h.find)
	}

	if cfg.MCP != nil {
		router.Any("/mcp", gin.WrapH(cfg.MCP))
	}

	return router, nil
}

// Server runs the router until its context is cancelled.
type Server struct {
	httpServer *http.Server
}

// NewServer wraps handler in an http.Server listening on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
