// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package httpapi exposes the account lifecycle over HTTP.
//
// The route shapes, status codes, and response messages match what the
// service's existing clients expect, including a few odd corners (201
// for duplicate registration, 403 for an unknown reset email). Tests
// pin those corners so nobody tidies them up by accident.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/account"
	"github.com/keygate/keygate/internal/observability"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config holds the HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":5100".
	Addr string
	// AllowedOrigins restricts CORS. Empty means allow any origin.
	AllowedOrigins []string
}

// Server is the public API server.
type Server struct {
	cfg     Config
	logger  *slog.Logger
	httpSrv *http.Server
	running atomic.Bool
	errCh   chan error
}

// NewServer builds the router and wires the handlers.
func NewServer(cfg Config, svc *account.Service, verifier TokenVerifier, metrics *observability.Metrics, logger *slog.Logger) *Server {
	h := &handlers{
		svc:     svc,
		metrics: metrics,
		logger:  logger,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(requestMetrics(metrics, logger))

	r.Get("/", h.handleRoot)
	r.Post("/createAccount", h.handleCreateAccount)
	r.Post("/authLogin", h.handleLogin)
	r.Get("/verifyEmail/{token}", h.handleVerifyEmail)
	r.Post("/findAccount", h.handleFindAccount)
	r.Get("/updatePasswordBeforeVerifyEmail/{token}", h.handleRedeemReset)
	r.Post("/updatePassword", h.handleUpdatePassword)
	r.With(requireBearer(verifier, h)).Get("/protected", h.handleProtected)

	return &Server{
		cfg:    cfg,
		logger: logger,
		httpSrv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		errCh: make(chan error, 1),
	}
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins serving. It returns once the listener is bound; serve
// errors after that are delivered on Err.
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return oops.Code("HTTP_ALREADY_RUNNING").Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}

	s.logger.Info("http server listening", "addr", listener.Addr().String())

	go func() {
		if serveErr := s.httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.errCh <- fmt.Errorf("http server: %w", serveErr)
		}
		close(s.errCh)
	}()

	return nil
}

// Err exposes the serve goroutine's terminal error, if any.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

// requestMetrics records a counter per route pattern and status, and
// logs each request at debug level.
func requestMetrics(metrics *observability.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordRequest(route, strconv.Itoa(ww.Status()))
			logger.Debug("http request",
				"method", r.Method,
				"route", route,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
