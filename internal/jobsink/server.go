package jobsink

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/psantana5/clusterlambda/internal/logging"
)

// Server is a configured jobsink HTTP server
type Server struct {
	cfg      *Config
	store    *MemoryStore
	registry *prometheus.Registry
	router   *mux.Router
	srv      *http.Server
	logger   *logging.Logger
}

// NewServer builds the router, middleware chain and metrics registry for cfg
func NewServer(cfg *Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	store := NewMemoryStore()
	handler, err := NewHandler(store, logger, registry)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")
	handler.RegisterRoutes(router)

	verifier := NewKeyVerifier(cfg.APIKeys)
	router.Use(verifier.Middleware)
	if cfg.RateLimit.RPS > 0 {
		router.Use(NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware)
	}
	if !verifier.Enabled() {
		logger.Warn("No API keys configured, accepting unauthenticated jobs")
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		registry: registry,
		router:   router,
		logger:   logger,
	}
	s.srv = &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store returns the job store
func (s *Server) Store() *MemoryStore {
	return s.store
}

// ListenAndServe serves until Shutdown is called
func (s *Server) ListenAndServe() error {
	var err error
	if s.cfg.TLS.Enabled() {
		if err := s.prepareTLS(); err != nil {
			return err
		}
		s.logger.Info("Jobsink listening (TLS)", logging.Fields{"addr": s.cfg.Listen, "mtls": s.cfg.TLS.RequireClientCert})
		err = s.srv.ListenAndServeTLS("", "")
	} else {
		s.logger.Warn("TLS disabled", logging.Fields{"addr": s.cfg.Listen})
		err = s.srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) prepareTLS() error {
	t := s.cfg.TLS
	if _, err := os.Stat(t.CertFile); os.IsNotExist(err) && t.SelfSigned {
		s.logger.Info("Generating self-signed certificate", logging.Fields{"cert": t.CertFile})
		if err := os.MkdirAll(filepath.Dir(t.CertFile), 0755); err != nil {
			return err
		}
		if err := GenerateSelfSignedCert(t.CertFile, t.KeyFile, "jobsink"); err != nil {
			return err
		}
	}

	tlsConfig, err := LoadServerTLSConfig(t.CertFile, t.KeyFile, t.CAFile, t.RequireClientCert)
	if err != nil {
		return err
	}
	s.srv.TLSConfig = tlsConfig
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
