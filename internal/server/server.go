// Package server exposes world generation over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yksanjo/roblox-world-generator/internal/config"
	"github.com/yksanjo/roblox-world-generator/internal/jobs"
	"github.com/yksanjo/roblox-world-generator/internal/metrics"
)

const (
	apiName    = "Roblox World Generator API"
	apiVersion = "1.0.0"
)

// Options wires a Server to its collaborators. Jobs is required.
type Options struct {
	Config  *config.Config
	Jobs    *jobs.Manager
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

// Server is the HTTP API in front of the job manager.
type Server struct {
	cfg     *config.Config
	jobs    *jobs.Manager
	metrics *metrics.Metrics
	logger  *log.Logger
	started time.Time
	router  *gin.Engine
}

// New builds the router. It does not start listening.
func New(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		cfg:     opts.Config,
		jobs:    opts.Jobs,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		started: time.Now(),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.cfg.Telemetry.ServiceName))
	r.Use(requestLogger(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Handler())
		s.metrics.RegisterEndpoint(r)
	}
	r.Use(cors())

	s.router = r
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/generate", s.handleGenerate)
	api.GET("/status/:id", s.handleStatus)
	api.GET("/download/:id", s.handleDownload)
	api.GET("/preview/:id", s.handlePreview)
	api.GET("/jobs", s.handleJobs)
	api.GET("/jobs/:id/stream", s.handleStream)
	api.POST("/validate", s.handleValidate)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("world generator listening on %s", s.cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    apiName,
		"version": apiVersion,
		"status":  "running",
	})
}

func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
