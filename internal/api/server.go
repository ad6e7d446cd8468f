// Package api serves projections over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/civil"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/engine"
	"github.com/jamesfulford/cashflow-projector/internal/payload"
)

const shutdownTimeout = 5 * time.Second

// Server answers projection queries. It holds no state between requests.
type Server struct {
	logger *slog.Logger
	today  func() civil.Date
	cert   *tls.Certificate
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithToday overrides the clock used to default the window start.
func WithToday(today func() civil.Date) Option {
	return func(s *Server) {
		s.today = today
	}
}

// WithTLS serves HTTPS with cert.
func WithTLS(cert tls.Certificate) Option {
	return func(s *Server) {
		s.cert = &cert
	}
}

// NewServer creates a server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger: slog.Default(),
		today:  func() civil.Date { return civil.DateOf(time.Now()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "api")
	return s
}

// Register adds the API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.health)
	mux.HandleFunc("/api/transactions", project(s, payload.Transactions))
	mux.HandleFunc("/api/daybydays", project(s, payload.DayByDays))
	mux.HandleFunc("/api/params", project(s, payload.ParamsOnly))
	mux.HandleFunc("/api/summary", project(s, payload.Summary))
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return WithRequestLogging(s.logger, mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.cert != nil {
			srv.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{*s.cert},
				MinVersion:   tls.VersionTLS12,
			}
			s.logger.Info("listening", "addr", addr, "scheme", "https")
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		s.logger.Info("listening", "addr", addr, "scheme", "http")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeErr(w, methodNotAllowed(http.MethodGet))
		return
	}
	writeOK(w, map[string]any{"status": "ok", "today": s.today().String()})
}

// project builds a handler that decodes a request, resolves its context and
// answers with query's document.
func project[T any](s *Server, query func(*engine.Context) T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, methodNotAllowed(http.MethodPost))
			return
		}

		var req payload.Request
		if e := readJSON(r, &req); e != nil {
			writeErr(w, e)
			return
		}

		c, err := req.Context(s.today())
		if err != nil {
			if common.IsInputError(err) {
				writeErr(w, badRequest(err.Error(), nil))
				return
			}
			writeErr(w, serverError(s.logger, "failed to build projection", err))
			return
		}

		s.logger.Debug("projecting",
			"path", r.URL.Path,
			"rules", c.Rules().Len(),
			"start", c.Params().StartDate.String(),
			"end", c.Params().EndDate.String())
		writeJSON(w, http.StatusOK, query(c))
	}
}
