// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dhalvorsen/feedwise/internal/logging"
)

// HTTPServer adapts an *http.Server to suture.Service: Serve blocks until
// the context is canceled, then shuts the server down gracefully.
type HTTPServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPServer wraps the server for supervision.
func NewHTTPServer(server *http.Server, shutdownTimeout time.Duration) *HTTPServer {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	return &HTTPServer{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve runs the HTTP server until ctx is canceled.
func (h *HTTPServer) Serve(ctx context.Context) error {
	logger := logging.With().Str("component", "http_server").Logger()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", h.server.Addr).Msg("http server listening")
		errCh <- h.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("graceful shutdown failed, closing")
			_ = h.server.Close()
		}
		return ctx.Err()
	}
}

// String implements fmt.Stringer for supervisor logging.
func (h *HTTPServer) String() string { return "http-server" }
