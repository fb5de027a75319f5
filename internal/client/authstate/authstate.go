// Package authstate は認証スライスの状態・アクション・リデューサ・セレクタを提供する。
package authstate

import "github.com/hitoshi/todoman/internal/model"

// State は認証スライスの状態。
type State struct {
	// User は現在の認証ユーザー。未サインインの場合はnil。
	// 部分更新はされず、SetUserで丸ごと置き換えられる。
	User *model.User
	// Profile はサーバー上のプロファイルドキュメント。未取得の場合はnil。
	Profile *model.Profile
	// Loading は認証操作が進行中かどうか。
	Loading bool
	// Err は直近の認証エラーメッセージ。エラーがない場合は空。
	Err string
	// Initialized は初回の認証状態通知を受信済みかどうか。
	// 一度trueになったら二度とfalseに戻らない。
	Initialized bool
}

// Initial は初期状態を返す。
func Initial() State {
	return State{}
}

// --- アクション ---

// SetUser は認証ユーザーを丸ごと置き換える。
// 認証状態ウォッチャーがIDプロバイダーの通知から発行する。
type SetUser struct {
	User *model.User
}

// SetProfile はプロファイルドキュメントを置き換える。
type SetProfile struct {
	Profile *model.Profile
}

// SetInitialized は初回の認証状態通知を受信したことを記録する。
type SetInitialized struct{}

// EmailSignInRequest はメールアドレスとパスワードによるサインインの開始。
type EmailSignInRequest struct {
	Email    string
	Password string
}

// EmailSignUpRequest はメールアドレスとパスワードによるサインアップの開始。
type EmailSignUpRequest struct {
	Email       string
	Password    string
	DisplayName string
}

// GoogleSignInRequest はGoogle OAuthサインインの開始。
// IDTokenはOAuthフロー完了後にプロバイダーから受け取ったトークン。
type GoogleSignInRequest struct {
	IDToken string
}

// GithubSignInRequest はGitHub OAuthサインインの開始。
type GithubSignInRequest struct {
	AccessToken string
}

// PasswordResetRequest はパスワードリセットメール送信の開始。
type PasswordResetRequest struct {
	Email string
}

// PasswordResetSuccess はパスワードリセットメールの送信完了。
type PasswordResetSuccess struct{}

// SignOutRequest はサインアウトの開始。
type SignOutRequest struct{}

// AuthError は認証操作の失敗。
type AuthError struct {
	Message string
}

// ClearError はエラーメッセージを消去する。
type ClearError struct{}

// Reduce は認証スライスのリデューサ。
// 未知のアクションに対しては状態をそのまま返す。
func Reduce(s State, action any) State {
	switch a := action.(type) {
	case SetUser:
		s.User = a.User
		s.Loading = false
		s.Err = ""
		if a.User == nil {
			// サインアウト時はプロファイルも破棄する
			s.Profile = nil
		}
	case SetProfile:
		s.Profile = a.Profile
	case SetInitialized:
		s.Initialized = true
	case EmailSignInRequest, EmailSignUpRequest, GoogleSignInRequest,
		GithubSignInRequest, PasswordResetRequest, SignOutRequest:
		s.Loading = true
		s.Err = ""
	case PasswordResetSuccess:
		s.Loading = false
		s.Err = ""
	case AuthError:
		s.Loading = false
		s.Err = a.Message
	case ClearError:
		s.Err = ""
	}
	return s
}

// --- セレクタ ---

// IsAuthenticated は認証済みかどうかを返す。
func IsAuthenticated(s State) bool {
	return s.User != nil
}

// CurrentUser は現在の認証ユーザーを返す。未サインインの場合はnil。
func CurrentUser(s State) *model.User {
	return s.User
}

// UserID は現在の認証ユーザーのIDを返す。未サインインの場合は空。
func UserID(s State) string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Token は現在のIDトークンを返す。未サインインの場合は空。
func Token(s State) string {
	if s.User == nil {
		return ""
	}
	return s.User.Token
}

// DisplayName は表示名を返す。
// プロファイル → ユーザークレーム → "Anonymous" の順にフォールバックする。
func DisplayName(s State) string {
	if s.Profile != nil && s.Profile.DisplayName != "" {
		return s.Profile.DisplayName
	}
	if s.User != nil && s.User.DisplayName != "" {
		return s.User.DisplayName
	}
	return "Anonymous"
}
