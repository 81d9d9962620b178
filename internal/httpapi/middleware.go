// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/meshwork/meshwork/internal/auth"
	"github.com/meshwork/meshwork/internal/logging"
	"github.com/meshwork/meshwork/internal/observability"
)

type principalCtxKey struct{}

// PrincipalID returns the authenticated principal's ID from the request
// context. The second return is false on unauthenticated requests.
func PrincipalID(ctx context.Context) (ulid.ULID, bool) {
	id, ok := ctx.Value(principalCtxKey{}).(ulid.ULID)
	return id, ok
}

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// requireAuth rejects requests without a valid bearer token and stores the
// authenticated principal in the request context.
func requireAuth(verifier TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
				return
			}

			principalID, err := ulid.Parse(claims.PrincipalID)
			if err != nil {
				respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
				return
			}

			ctx := context.WithValue(r.Context(), principalCtxKey{}, principalID)
			ctx = logging.ContextWithPrincipal(ctx, principalID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// recordMetrics observes request count and latency per route template.
func recordMetrics(metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			metrics.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
