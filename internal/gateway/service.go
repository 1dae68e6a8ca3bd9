package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/droneops/landingd/internal/coordinator"
	"github.com/droneops/landingd/internal/observability"
)

// ServiceConfig holds the gateway runtime settings.
type ServiceConfig struct {
	ListenAddr        string
	NamespacePath     string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultServiceConfig returns gateway defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenAddr:        ":8080",
		NamespacePath:     "/drone-landing",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// WithDefaults fills unset fields.
func (c ServiceConfig) WithDefaults() ServiceConfig {
	defaults := DefaultServiceConfig()
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = defaults.ListenAddr
	}
	if strings.TrimSpace(c.NamespacePath) == "" {
		c.NamespacePath = defaults.NamespacePath
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return c
}

// Service hosts the namespace websocket endpoint and the admin surface.
type Service struct {
	cfg         ServiceConfig
	hub         *Hub
	coordinator *coordinator.Coordinator
	httpServer  *http.Server
	log         zerolog.Logger
}

// NewService wires the hub, coordinator, and HTTP server together. The hub
// doubles as the coordinator's broadcaster.
func NewService(cfg ServiceConfig, remote coordinator.RemoteClient, log zerolog.Logger) *Service {
	cfg = cfg.WithDefaults()
	observability.RegisterMetrics()

	hub := NewHub(log)
	svc := &Service{
		cfg:         cfg,
		hub:         hub,
		coordinator: coordinator.New(coordinator.NewRegistry(), remote, hub, log),
		log:         log,
	}
	svc.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return svc
}

// Coordinator exposes the session coordinator, primarily for tests.
func (s *Service) Coordinator() *coordinator.Coordinator {
	return s.coordinator
}

// Handler builds the combined route tree: the namespace path speaks the
// websocket protocol, everything else is the admin router.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.NamespacePath, s.namespaceHandler())
	mux.Handle("/", s.adminRouter())
	return mux
}

// Run blocks serving connections until SIGINT/SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx)
}

// ListenAndServe runs the HTTP server until the context ends, then shuts
// down gracefully within the configured timeout.
func (s *Service) ListenAndServe(ctx context.Context) error {
	if ctx == nil {
		return errors.New("gateway: context is required")
	}

	serveErr := make(chan error, 1)
	s.log.Info().Str("addr", s.cfg.ListenAddr).Str("namespace", s.cfg.NamespacePath).Msg("gateway listening")
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway: shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway: serve http: %w", err)
	}
}
