package authstate

import (
	"testing"

	"github.com/hitoshi/todoman/internal/model"
)

func TestReduce_SetUser_ReplacesWholesale(t *testing.T) {
	s := Initial()
	s.Loading = true
	s.Err = "前回のエラー"

	user := &model.User{ID: "uid-1", Email: "taro@example.com", DisplayName: "太郎"}
	got := Reduce(s, SetUser{User: user})

	if got.User != user {
		t.Errorf("User = %+v, want %+v", got.User, user)
	}
	if got.Loading {
		t.Error("Loading = true, want false")
	}
	if got.Err != "" {
		t.Errorf("Err = %q, want empty", got.Err)
	}
}

func TestReduce_SetUserNil_DiscardsProfile(t *testing.T) {
	s := Initial()
	s.User = &model.User{ID: "uid-1"}
	s.Profile = &model.Profile{UID: "uid-1", DisplayName: "太郎"}

	got := Reduce(s, SetUser{User: nil})

	if got.User != nil {
		t.Errorf("User = %+v, want nil", got.User)
	}
	if got.Profile != nil {
		t.Errorf("Profile = %+v, want nil", got.Profile)
	}
}

func TestReduce_SetInitialized_Monotonic(t *testing.T) {
	s := Reduce(Initial(), SetInitialized{})
	if !s.Initialized {
		t.Fatal("Initialized = false, want true")
	}

	// 他のアクションが適用されてもfalseに戻らない
	s = Reduce(s, SetUser{User: nil})
	s = Reduce(s, AuthError{Message: "認証が必要です。"})
	if !s.Initialized {
		t.Error("Initialized = false after later actions, want true")
	}
}

func TestReduce_Requests_SetLoadingAndClearError(t *testing.T) {
	requests := []struct {
		name   string
		action any
	}{
		{"email sign-in", EmailSignInRequest{Email: "a@example.com", Password: "secret"}},
		{"email sign-up", EmailSignUpRequest{Email: "a@example.com", Password: "secret"}},
		{"google sign-in", GoogleSignInRequest{IDToken: "token"}},
		{"github sign-in", GithubSignInRequest{AccessToken: "token"}},
		{"password reset", PasswordResetRequest{Email: "a@example.com"}},
		{"sign-out", SignOutRequest{}},
	}
	for _, tt := range requests {
		t.Run(tt.name, func(t *testing.T) {
			s := Initial()
			s.Err = "前回のエラー"
			got := Reduce(s, tt.action)
			if !got.Loading {
				t.Error("Loading = false, want true")
			}
			if got.Err != "" {
				t.Errorf("Err = %q, want empty", got.Err)
			}
		})
	}
}

func TestReduce_AuthError(t *testing.T) {
	s := Initial()
	s.Loading = true

	got := Reduce(s, AuthError{Message: "メールアドレスまたはパスワードが正しくありません。"})

	if got.Loading {
		t.Error("Loading = true, want false")
	}
	if got.Err != "メールアドレスまたはパスワードが正しくありません。" {
		t.Errorf("Err = %q", got.Err)
	}

	got = Reduce(got, ClearError{})
	if got.Err != "" {
		t.Errorf("Err after ClearError = %q, want empty", got.Err)
	}
}

func TestReduce_PasswordResetSuccess(t *testing.T) {
	s := Initial()
	s.Loading = true

	got := Reduce(s, PasswordResetSuccess{})
	if got.Loading {
		t.Error("Loading = true, want false")
	}
}

func TestReduce_UnknownAction_ReturnsStateUnchanged(t *testing.T) {
	s := Initial()
	s.User = &model.User{ID: "uid-1"}

	got := Reduce(s, struct{ Unknown bool }{true})
	if got.User != s.User {
		t.Error("unknown action changed state")
	}
}

func TestDisplayName_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{
			name: "プロファイル優先",
			state: State{
				User:    &model.User{DisplayName: "クレーム名"},
				Profile: &model.Profile{DisplayName: "プロファイル名"},
			},
			want: "プロファイル名",
		},
		{
			name: "プロファイルが空ならクレーム",
			state: State{
				User:    &model.User{DisplayName: "クレーム名"},
				Profile: &model.Profile{},
			},
			want: "クレーム名",
		},
		{
			name:  "どちらもなければAnonymous",
			state: State{User: &model.User{}},
			want:  "Anonymous",
		},
		{
			name:  "未サインイン",
			state: State{},
			want:  "Anonymous",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.state); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectors(t *testing.T) {
	empty := Initial()
	if IsAuthenticated(empty) {
		t.Error("IsAuthenticated(empty) = true")
	}
	if got := UserID(empty); got != "" {
		t.Errorf("UserID(empty) = %q", got)
	}
	if got := Token(empty); got != "" {
		t.Errorf("Token(empty) = %q", got)
	}

	user := &model.User{ID: "uid-1", Token: "id-token"}
	s := State{User: user}
	if !IsAuthenticated(s) {
		t.Error("IsAuthenticated = false, want true")
	}
	if got := CurrentUser(s); got != user {
		t.Errorf("CurrentUser = %+v", got)
	}
	if got := UserID(s); got != "uid-1" {
		t.Errorf("UserID = %q", got)
	}
	if got := Token(s); got != "id-token" {
		t.Errorf("Token = %q", got)
	}
}
