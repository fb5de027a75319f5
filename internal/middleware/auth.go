// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/todoman/internal/identity"
	"github.com/hitoshi/todoman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証ユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// トークンが無い、または検証に失敗したリクエストには401を返す。
func NewAuthMiddleware(verifier identity.Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteError(w, model.NewAuthenticationError(""))
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims.User(token))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// UserFromContext はリクエストコンテキストから認証ユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("authenticated user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証ユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
