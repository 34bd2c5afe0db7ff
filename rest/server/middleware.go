package server

import (
	"context"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/adrodb/adrodb/rest/common"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"net/http"
	"time"
)

type ctxKeyRequestID struct{}

// requestIDFrom returns the request id stored by the requestID middleware.
func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// --------------------------------------------------------------------------
// Middleware
// --------------------------------------------------------------------------

func (h *handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(common.HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.log.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	})
}

// captureMetrics records per-route counters and latency summaries. The chi
// route pattern keeps the label cardinality bounded regardless of how many
// keys and collections pass through.
func captureMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		labels := fmt.Sprintf(`method=%q,route=%q,status="%d"`, r.Method, route, status)
		metrics.GetOrCreateCounter(fmt.Sprintf(`adrodb_http_requests_total{%s}`, labels)).Inc()
		metrics.GetOrCreateSummary(fmt.Sprintf(`adrodb_http_request_duration_seconds{method=%q,route=%q}`, r.Method, route)).UpdateDuration(start)
	})
}
