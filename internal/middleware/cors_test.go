package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsHandler(origins ...string) http.Handler {
	return NewCORSMiddleware(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := corsHandler("http://localhost:5173", "https://todoman.example.com")

	req := httptest.NewRequest(http.MethodGet, "/v1/todos", nil)
	req.Header.Set("Origin", "https://todoman.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://todoman.example.com" {
		t.Errorf("Allow-Origin = %q, want the request origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Errorf("Allow-Headers = %q, want Content-Type, Authorization", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := corsHandler("http://localhost:5173")

	req := httptest.NewRequest(http.MethodGet, "/v1/todos", nil)
	req.Header.Set("Origin", "https://attacker.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// 許可されないオリジンにはCORSヘッダーを付与しない
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (CORS enforcement is the browser's job)", rec.Code)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	handler := NewCORSMiddleware([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/v1/todos", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("handler must not be called for preflight request")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q, want http://localhost:5173", got)
	}
}
