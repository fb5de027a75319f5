package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/todoman/internal/model"
)

type mockVerifier struct {
	verifyFn func(ctx context.Context, token string) (*model.Claims, error)
}

func (m *mockVerifier) VerifyToken(ctx context.Context, token string) (*model.Claims, error) {
	return m.verifyFn(ctx, token)
}

func okVerifier() *mockVerifier {
	return &mockVerifier{
		verifyFn: func(ctx context.Context, token string) (*model.Claims, error) {
			return &model.Claims{UID: "user-1", Email: "taro@example.com", Name: "Taro"}, nil
		},
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	var gotUser *model.User
	handler := NewAuthMiddleware(okVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := UserFromContext(r.Context())
		if err != nil {
			t.Fatalf("UserFromContext failed: %v", err)
		}
		gotUser = user
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/todos", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUser == nil || gotUser.ID != "user-1" {
		t.Errorf("user = %v, want ID user-1", gotUser)
	}
	if gotUser.Token != "valid-token" {
		t.Errorf("Token = %q, want valid-token", gotUser.Token)
	}
}

func TestAuthMiddleware_RejectsRequests(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "Authorizationヘッダーなし", header: ""},
		{name: "Bearerスキームでない", header: "Basic dXNlcjpwYXNz"},
		{name: "トークンが空", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewAuthMiddleware(okVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("handler must not be called for unauthenticated request")
			}

			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to parse error body: %v", err)
			}
			if body.Success {
				t.Error("success = true, want false")
			}
			if body.Error.Code != "AUTHENTICATION_REQUIRED" {
				t.Errorf("code = %q, want AUTHENTICATION_REQUIRED", body.Error.Code)
			}
		})
	}
}

func TestAuthMiddleware_VerifierError(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(ctx context.Context, token string) (*model.Claims, error) {
			return nil, model.NewAuthenticationError("")
		},
	}
	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called when verification fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/todos", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUserFromContext_Missing(t *testing.T) {
	if _, err := UserFromContext(context.Background()); err == nil {
		t.Error("expected error for context without user")
	}
}

func TestContextWithUser(t *testing.T) {
	user := &model.User{ID: "user-1"}
	ctx := ContextWithUser(context.Background(), user)

	got, err := UserFromContext(ctx)
	if err != nil {
		t.Fatalf("UserFromContext failed: %v", err)
	}
	if got != user {
		t.Errorf("user = %v, want %v", got, user)
	}
}
