package model

import "fmt"

// ErrorKind はAPIエラーの分類を表すタグ付きバリアント。
// 各分類はHTTPステータスと機械可読コードに1対1で対応し、
// レスポンス整形境界で網羅的にマッチされる。
type ErrorKind int

const (
	// ErrorKindInternal は未分類エラーのフォールバック。500を返す。
	ErrorKindInternal ErrorKind = iota
	// ErrorKindValidation は入力検証エラー。400を返す。
	ErrorKindValidation
	// ErrorKindAuthentication は認証エラー。401を返す。
	ErrorKindAuthentication
	// ErrorKindAuthorization は認可エラー。403を返す。現在のルートでは未使用（予約）。
	ErrorKindAuthorization
	// ErrorKindNotFound は対象リソース不在エラー。404を返す。
	ErrorKindNotFound
	// ErrorKindConflict は競合エラー。409を返す（予約）。
	ErrorKindConflict
)

// Status は分類に対応するHTTPステータスコードを返す。
func (k ErrorKind) Status() int {
	switch k {
	case ErrorKindValidation:
		return 400
	case ErrorKindAuthentication:
		return 401
	case ErrorKindAuthorization:
		return 403
	case ErrorKindNotFound:
		return 404
	case ErrorKindConflict:
		return 409
	default:
		return 500
	}
}

// Code は分類に対応する機械可読コードを返す。
func (k ErrorKind) Code() string {
	switch k {
	case ErrorKindValidation:
		return "VALIDATION_ERROR"
	case ErrorKindAuthentication:
		return "AUTHENTICATION_REQUIRED"
	case ErrorKindAuthorization:
		return "PERMISSION_DENIED"
	case ErrorKindNotFound:
		return "NOT_FOUND"
	case ErrorKindConflict:
		return "CONFLICT"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// AppError は分類付きのアプリケーションエラーを表す。
// リポジトリ・サービス層で生成され、レスポンス整形境界で
// ワイヤフォーマットへ変換される唯一のエラー型。
type AppError struct {
	Kind    ErrorKind
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind.Code(), e.Message)
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *AppError {
	return &AppError{Kind: ErrorKindValidation, Message: message}
}

// NewAuthenticationError は認証エラーを生成する。
// メッセージが空の場合はデフォルトメッセージを使用する。
func NewAuthenticationError(message string) *AppError {
	if message == "" {
		message = "認証が必要です。"
	}
	return &AppError{Kind: ErrorKindAuthentication, Message: message}
}

// NewAuthorizationError は認可エラーを生成する。
func NewAuthorizationError(message string) *AppError {
	if message == "" {
		message = "この操作を行う権限がありません。"
	}
	return &AppError{Kind: ErrorKindAuthorization, Message: message}
}

// NewNotFoundError は対象リソース不在エラーを生成する。
func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: ErrorKindNotFound, Message: message}
}

// NewConflictError は競合エラーを生成する。
func NewConflictError(message string) *AppError {
	return &AppError{Kind: ErrorKindConflict, Message: message}
}

// NewTodoNotFoundError は指定IDのTodo不在エラーを生成する。
// 所有者が異なる場合も情報漏えい防止のため同一のエラーを返す。
func NewTodoNotFoundError(id string) *AppError {
	return &AppError{
		Kind:    ErrorKindNotFound,
		Message: fmt.Sprintf("指定されたTodoが見つかりません: %s", id),
	}
}

// NewProfileNotFoundError はプロファイル不在エラーを生成する。
func NewProfileNotFoundError() *AppError {
	return &AppError{
		Kind:    ErrorKindNotFound,
		Message: "プロファイルが見つかりません。",
	}
}
