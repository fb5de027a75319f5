package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/metrics"
)

// NewMetricsMiddleware はHTTPリクエストのメトリクスを記録するミドルウェアを返す。
// パスラベルにはカーディナリティ爆発を避けるため、実URLではなく
// ルートパターン（/v1/todos/{id}等）を使用する。
func NewMetricsMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			path := routePattern(r)
			collector.RecordHTTPRequest(r.Method, path, rec.statusCode)
			collector.RecordHTTPLatency(r.Method, path, time.Since(start))
		})
	}
}

// routePattern はマッチしたルートパターンを返す。
// ルーティング前（404等）はパターンが空のためパスをそのまま使う。
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
