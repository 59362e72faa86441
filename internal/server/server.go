// Package server exposes the calculator engine, catalog, history and
// assistant over HTTP, with one calculator session per WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/internal/config"
	"github.com/sandrolain/gocalc/pkg/assistant"
	"github.com/sandrolain/gocalc/pkg/catalog"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/history"
)

// ServiceName identifies the service in health checks and traces.
const ServiceName = "gocalc"

// Deps are the components the server exposes. History and Assistant may be
// nil; their endpoints then answer 503.
type Deps struct {
	Evaluator *evaluator.Evaluator
	Catalog   *catalog.Catalog
	History   *history.Store
	Assistant *assistant.Assistant
	Logger    *zap.Logger
}

// settings are the reloadable request defaults.
type settings struct {
	angle          evaluator.AngleMode
	locale         string
	fractionDigits int
	baseURL        string
}

// Server is the HTTP API.
type Server struct {
	cfg       config.ServerConfig
	mux       *http.ServeMux
	logger    *zap.Logger
	ev        *evaluator.Evaluator
	catalog   *catalog.Catalog
	history   *history.Store
	assistant *assistant.Assistant
	settings  atomic.Pointer[settings]
	upgrader  websocket.Upgrader

	connMu sync.Mutex
	conns  map[*websocket.Conn]struct{}
}

// New creates a server for cfg.
func New(cfg config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg.Server,
		mux:       http.NewServeMux(),
		logger:    deps.Logger,
		ev:        deps.Evaluator,
		catalog:   deps.Catalog,
		history:   deps.History,
		assistant: deps.Assistant,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.ev == nil {
		s.ev = evaluator.New()
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.assistant == nil {
		s.assistant = assistant.New(nil)
	}
	s.ApplyConfig(cfg)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)

	s.mux.HandleFunc("POST /api/v1/evaluate", s.handleEvaluate)
	s.mux.HandleFunc("GET /api/v1/functions", s.handleFunctions)

	s.mux.HandleFunc("GET /api/v1/categories", s.handleCategories)
	s.mux.HandleFunc("GET /api/v1/calculators", s.handleCalculators)
	s.mux.HandleFunc("GET /api/v1/calculators/{slug}", s.handleCalculator)
	s.mux.HandleFunc("POST /api/v1/calculators/{slug}/compute", s.handleCompute)
	s.mux.HandleFunc("GET /api/v1/search", s.handleSearch)

	s.mux.HandleFunc("GET /api/v1/history", s.handleHistoryList)
	s.mux.HandleFunc("DELETE /api/v1/history/{id}", s.handleHistoryDelete)
	s.mux.HandleFunc("DELETE /api/v1/history", s.handleHistoryClear)

	s.mux.HandleFunc("POST /api/v1/assistant/explain", s.handleExplain)
	s.mux.HandleFunc("POST /api/v1/assistant/solve", s.handleSolve)

	s.mux.HandleFunc("GET /api/v1/session", s.handleSession)
}

// ApplyConfig updates the request defaults (angle mode, locale, fraction
// digits, sitemap base URL). It is safe to call while serving.
func (s *Server) ApplyConfig(cfg config.Config) {
	s.settings.Store(&settings{
		angle:          cfg.Engine.DefaultAngleMode(),
		locale:         cfg.Engine.Locale,
		fractionDigits: cfg.Engine.FractionDigits,
		baseURL:        cfg.Server.BaseURL,
	})
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.loggingMiddleware(s.mux), ServiceName)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and closes open WebSocket sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gocalc listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.closeSessions()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("gocalc stopped")
	return nil
}

func (s *Server) trackConn(c *websocket.Conn) {
	s.connMu.Lock()
	s.conns[c] = struct{}{}
	s.connMu.Unlock()
}

func (s *Server) untrackConn(c *websocket.Conn) {
	s.connMu.Lock()
	delete(s.conns, c)
	s.connMu.Unlock()
}

// closeSessions sends a going-away close frame to every open session.
// Handlers may be writing concurrently, so only WriteControl and Close are
// used here.
func (s *Server) closeSessions() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for c := range s.conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(sessionWrite))
		_ = c.Close()
	}
}
