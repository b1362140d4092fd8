// Package server exposes the gene list comparison over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	limits "github.com/gin-contrib/size"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ppiankov/genediff/internal/compare"
	"github.com/ppiankov/genediff/internal/model"
)

const resultCacheTTL = time.Hour

// Options configures a Server
type Options struct {
	Dataset compare.Dataset
	Notices []model.Notice
	Config  model.ServerConfig
	Logger  *slog.Logger
}

// Server serves comparisons for one loaded dataset
type Server struct {
	dataset compare.Dataset
	notices []model.Notice
	cfg     model.ServerConfig
	logger  *slog.Logger
	metrics *metrics
	results *expirable.LRU[string, model.Comparison]
	engine  *gin.Engine
}

// New builds the gin engine and routes
func New(opts Options) (*Server, error) {
	if opts.Dataset == nil {
		return nil, errors.New("server needs a dataset")
	}

	cfg := opts.Config
	defaults := model.DefaultConfig().Server
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	switch cfg.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Mode)
	case "":
		gin.SetMode(gin.ReleaseMode)
	default:
		return nil, errors.Newf("unknown server mode %q", cfg.Mode)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	notices := opts.Notices
	if notices == nil {
		notices = []model.Notice{}
	}

	s := &Server{
		dataset: opts.Dataset,
		notices: notices,
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(),
	}
	if cfg.ResultCacheSize > 0 {
		s.results = expirable.NewLRU[string, model.Comparison](cfg.ResultCacheSize, nil, resultCacheTTL)
	}

	registerValidators()
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods: []string{
			http.MethodOptions, http.MethodHead, http.MethodGet,
			http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(NewLogging(s.logger, WithIgnorePath("/healthz", "/metrics")))
	r.Use(s.metrics.middleware())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", s.metrics.handler())
	r.GET("/sources", s.handleSources)
	r.POST("/compare", limits.RequestSizeLimiter(s.cfg.MaxBodyBytes), s.handleCompare)

	return r
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is cancelled, then
// drains in-flight requests for up to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	s.logger.InfoContext(ctx, "shutting down server", "timeout", s.cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}
