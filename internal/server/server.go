// Package server exposes the catalog and listing flows over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookmarket/api/internal/config"
	"bookmarket/api/internal/service"

	log "github.com/sirupsen/logrus"
)

type Server struct {
	service         *service.Service
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

func New(cfg config.ServerConfig, svc *service.Service) *Server {
	s := &Server{
		service:         svc,
		shutdownTimeout: time.Duration(cfg.ShutdownTimeout) * time.Second,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", pingHandler)

	mux.HandleFunc("GET /api/books", s.listBooks)
	mux.HandleFunc("GET /api/books/{id}", s.getBook)
	mux.HandleFunc("GET /api/categories", s.categories)

	mux.HandleFunc("GET /api/listings/options", s.listingOptions)
	mux.HandleFunc("POST /api/listings", s.createListing)
	mux.HandleFunc("GET /api/listings/{ticket}", s.listingStatus)

	return logRequests(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("🌐 HTTP server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("🛑 Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func pingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
