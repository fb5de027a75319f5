package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollector_ServesRecordedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest(http.MethodGet, "/v1/todos", 200)
	c.RecordHTTPLatency(http.MethodGet, "/v1/todos", 15*time.Millisecond)
	c.RecordTodoCreated()
	c.RecordTodoDeleted()
	c.RecordTokenVerificationFailure()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	for _, metric := range []string{
		"todoman_http_requests_total",
		"todoman_http_request_duration_seconds",
		"todoman_todos_created_total",
		"todoman_todos_deleted_total",
		"todoman_token_verification_failures_total",
	} {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response should contain %s metric", metric)
		}
	}

	if !strings.Contains(bodyStr, `path="/v1/todos"`) {
		t.Error("http requests metric should carry the path label")
	}
}

func TestCollector_CountsAccumulate(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTodoCreated()
	c.RecordTodoCreated()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	body, _ := io.ReadAll(w.Result().Body)
	if !strings.Contains(string(body), "todoman_todos_created_total 2") {
		t.Error("todoman_todos_created_total should be 2")
	}
}
