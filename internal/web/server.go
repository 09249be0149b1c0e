// Package web serves the dashboard UI, its JSON API and live streams.
package web

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/events"
	"github.com/vadiminshakov/paperdash/internal/storage/tradejournal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

const defaultMaxPoints = 8

type dashboard interface {
	Snapshot(maxPoints int) events.Snapshot
	Trades() []domain.TradeRow
	Quote(action domain.Action, amount decimal.Decimal, unit domain.Unit) (domain.Quote, error)
	Buy(ctx context.Context, req internal.TradeRequest) internal.TradeResult
	Sell(ctx context.Context, req internal.TradeRequest) internal.TradeResult
}

type tradeReader interface {
	TradesAfter(index uint64) ([]tradejournal.Record, error)
}

// Server exposes the HTML UI, the JSON API, an SSE trade stream and a
// websocket snapshot stream.
type Server struct {
	Addr        string
	Dashboard   dashboard
	Journal     tradeReader
	Broadcaster *events.SnapshotBroadcaster
	MaxPoints   int

	logger *zap.Logger
}

// NewServer creates a new web server instance. journal and broadcaster may be
// nil, their streams then answer 503.
func NewServer(addr string, dash dashboard, journal tradeReader, broadcaster *events.SnapshotBroadcaster, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:        addr,
		Dashboard:   dash,
		Journal:     journal,
		Broadcaster: broadcaster,
		MaxPoints:   defaultMaxPoints,
		logger:      logger,
	}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.staticHandler())
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/trades", s.handleTrades)
	mux.HandleFunc("POST /api/quote", s.handleQuote)
	mux.HandleFunc("POST /api/buy", s.handleTrade(domain.ActionBuy))
	mux.HandleFunc("POST /api/sell", s.handleTrade(domain.ActionSell))
	mux.HandleFunc("GET /trades/stream", s.handleTradeStream)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// It also starts an HTTP server on port 80 to handle ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if len(domains) == 0 {
		return errors.New("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	addr := s.Addr
	if addr == "" {
		addr = ":443"
	}
	httpsSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server shutdown", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("https server shutdown", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server", zap.Error(err))
		}
	}()

	s.logger.Info("web server listening with auto TLS", zap.String("addr", addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
