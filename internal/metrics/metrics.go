// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, path string, statusCode int)
	RecordHTTPLatency(method, path string, duration time.Duration)
	RecordTodoCreated()
	RecordTodoDeleted()
	RecordTokenVerificationFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	todosCreated    prometheus.Counter
	todosDeleted    prometheus.Counter
	tokenVerifyFail prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoman_http_requests_total",
			Help: "メソッド・パス・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "path", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todoman_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		todosCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoman_todos_created_total",
			Help: "作成されたTodoの合計数",
		}),
		todosDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoman_todos_deleted_total",
			Help: "削除されたTodoの合計数",
		}),
		tokenVerifyFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoman_token_verification_failures_total",
			Help: "IDトークン検証失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.todosCreated,
		c.todosDeleted,
		c.tokenVerifyFail,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの完了を記録する。
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPLatency はHTTPリクエストの処理時間を記録する。
func (c *Collector) RecordHTTPLatency(method, path string, duration time.Duration) {
	c.httpLatency.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTodoCreated はTodoの作成を記録する。
func (c *Collector) RecordTodoCreated() {
	c.todosCreated.Inc()
}

// RecordTodoDeleted はTodoの削除を記録する。
func (c *Collector) RecordTodoDeleted() {
	c.todosDeleted.Inc()
}

// RecordTokenVerificationFailure はIDトークン検証の失敗を記録する。
func (c *Collector) RecordTokenVerificationFailure() {
	c.tokenVerifyFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
