// Package server exposes a tagsync client over HTTP: connection test, on
// demand runs, status, a websocket event stream and Prometheus metrics.
package server

import (
	"context"
	"net/http"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/internal/metrics"
	"github.com/ellisd4/tagsync/internal/server/cache"
	ws "github.com/ellisd4/tagsync/internal/server/websocket"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client    tagsync.Client
	cache     *cache.Cache
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
	metrics   *metrics.Metrics
	logger    *zerolog.Logger
	config    Config
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startTime utc.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics sets the metrics set. Defaults to metrics.Default().
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a server for client and subscribes to its run hooks.
func New(client tagsync.Client, cfg Config, opts ...Option) *Server {
	nop := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		client:    client,
		cache:     cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		logger:    &nop,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		startTime: utc.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	s.wsHub = ws.NewHub(s.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(_ *http.Request) bool {
			return true
		},
	}

	if last := client.LastResult(); last != nil {
		s.cache.SetLastResult(last)
	}
	s.connectHooks()
	return s
}

// runEvent is the payload of run.completed messages.
type runEvent struct {
	RunID      uuid.UUID          `json:"run_id"`
	DryRun     bool               `json:"dry_run"`
	Canceled   bool               `json:"canceled"`
	StartedAt  utc.Time           `json:"started_at"`
	FinishedAt utc.Time           `json:"finished_at"`
	Summary    reconciler.Summary `json:"summary"`
}

// connectHooks publishes run and tag events to websocket clients and
// records them in metrics.
func (s *Server) connectHooks() {
	s.client.OnRunCompleted(func(result *reconciler.Result) {
		s.cache.SetLastResult(result)
		s.metrics.RecordRun(result, nil)
		s.wsHub.Publish(ws.TypeRunCompleted, runEvent{
			RunID:      result.RunID,
			DryRun:     result.DryRun,
			Canceled:   result.Canceled,
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
			Summary:    result.Summary,
		})
	})

	s.client.OnRunFailed(func(err error) {
		s.metrics.RecordRun(nil, err)
		s.wsHub.Publish(ws.TypeRunFailed, map[string]string{"error": err.Error()})
	})

	s.client.OnOperation(func(op reconciler.AppliedOperation) {
		s.metrics.RecordOperation(op)
		s.wsHub.Publish(ws.TypeTagChanged, op)
	})
}

// Start starts background services.
func (s *Server) Start() {
	go func() {
		defer close(s.done)
		s.wsHub.Run(s.ctx)
	}()
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops background services and closes websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.wsHub
}
