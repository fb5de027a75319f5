package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/hitoshi/todoman/internal/model"
)

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// 統一エンベロープの500レスポンスを返すミドルウェアを生成する。
// panicの内容はログのみに記録し、レスポンスには含めない。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					WriteError(w, &model.AppError{
						Kind:    model.ErrorKindInternal,
						Message: "内部エラーが発生しました。しばらく待ってから再度お試しください。",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
