package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoman/internal/model"
)

// SuccessBody は成功レスポンスの統一エンベロープ。
type SuccessBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorBody は失敗レスポンスの統一エンベロープ。
type ErrorBody struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail はエラーエンベロープのerrorフィールド。
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteSuccess は成功エンベロープでレスポンスを書き込む。
func WriteSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SuccessBody{Success: true, Data: data})
}

// WriteError はエラーエンベロープでレスポンスを書き込む。
// AppError以外のエラーは詳細をログのみに記録し、
// ユーザーには一般的な500レスポンスを返す。
func WriteError(w http.ResponseWriter, err error) {
	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unexpected error",
			slog.String("error", err.Error()),
		)
		appErr = &model.AppError{
			Kind:    model.ErrorKindInternal,
			Message: "内部エラーが発生しました。しばらく待ってから再度お試しください。",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Kind.Status())
	json.NewEncoder(w).Encode(ErrorBody{
		Success: false,
		Error: ErrorDetail{
			Code:    appErr.Kind.Code(),
			Message: appErr.Message,
		},
	})
}
