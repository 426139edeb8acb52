// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// requestID attaches a request ID to the response, reusing the client's
// header when present so traces line up across services.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// requestLogger records one structured line per request and feeds the
// HTTP metrics. The route pattern, not the raw path, is used as the
// metric label to keep cardinality bounded.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(started)
		metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), elapsed)

		logging.Debug().
			Str("method", r.Method).
			Str("route", route).
			Str("request_id", ww.Header().Get(requestIDHeader)).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", elapsed).
			Msg("request handled")
	})
}
