// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the governance, oracle and bridge operations over a
// JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/deedbridge/bridge"
	"github.com/blinklabs-io/deedbridge/governance"
	"github.com/blinklabs-io/deedbridge/oracle"
	"github.com/blinklabs-io/deedbridge/vault"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const DefaultListenAddress = ":8080"

type Config struct {
	ListenAddress string
	// AllowedOrigins is passed to the CORS middleware. Empty allows any
	// http or https origin.
	AllowedOrigins []string
}

// Services are the components served by the API. A nil component leaves
// its routes unmounted.
type Services struct {
	DAO    *governance.DAO
	Bridge *bridge.Bridge
	Oracle *oracle.Oracle
	Vault  *vault.Vault
}

// API is the HTTP server
type API struct {
	config     Config
	logger     *slog.Logger
	services   Services
	router     chi.Router
	httpServer *http.Server
	mu         sync.Mutex
}

func New(cfg Config, services Services, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"https://*", "http://*"}
	}
	a := &API{
		config:   cfg,
		logger:   logger,
		services: services,
	}
	a.router = a.newRouter()
	return a
}

// Handler returns the root HTTP handler
func (a *API) Handler() http.Handler {
	return a.router
}

func (a *API) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", CallerHeader},
		ExposedHeaders:   []string{paginationCountHeader, paginationPageHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(callerMiddleware)
	r.Get("/health", a.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		if a.services.DAO != nil {
			a.mountGovernance(r)
		}
		if a.services.Bridge != nil {
			a.mountBridge(r)
		}
		if a.services.Oracle != nil {
			a.mountOracle(r)
		}
	})
	return r
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"healthy": true})
}

// Start starts the HTTP server in a background goroutine. The server is
// shut down when ctx is cancelled.
func (a *API) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.router,
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	if err := a.startServer(server); err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return err
	}
	a.logger.Info("API listener started on " + a.config.ListenAddress)

	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()
		if srv == nil {
			return
		}
		a.logger.Debug("context cancelled, shutting down API server")
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *API) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()
	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}

// startServer binds the listening socket first so port conflicts are
// reported to the caller, then serves in a background goroutine
func (a *API) startServer(server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}
