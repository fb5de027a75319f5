package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/todoman/internal/config"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/security"
)

// SignInMethod はサインイン方式を表す。
type SignInMethod string

const (
	// SignInMethodPassword はメールアドレスとパスワードによるサインイン。
	SignInMethodPassword SignInMethod = "password"
	// SignInMethodGoogle はGoogle OAuthによるサインイン。
	SignInMethodGoogle SignInMethod = "google"
	// SignInMethodGitHub はGitHub OAuthによるサインイン。
	SignInMethodGitHub SignInMethod = "github"
)

// providerIDs はサインイン方式からIDプロバイダー識別子へのマッピング。
var providerIDs = map[SignInMethod]string{
	SignInMethodGoogle: "google.com",
	SignInMethodGitHub: "github.com",
}

// SignInInput はサインイン要求の入力。
// 方式によって使用するフィールドが異なる。
type SignInInput struct {
	Method SignInMethod

	// password方式
	Email    string
	Password string

	// google/github方式（OAuthコード交換後のトークン）
	OAuthIDToken     string
	OAuthAccessToken string
	RequestURI       string
}

// SignUpInput はサインアップ要求の入力。
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Client はIDプロバイダーのREST APIクライアント。
// サインイン、サインアップ、パスワードリセットを提供する。
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient はClientを生成する。エンドポイントURLは設定で
// オーバーライド可能なため、事前に妥当性を検証する。
func NewClient(cfg *config.Config, guard security.OutboundGuardService) (*Client, error) {
	allowLocal := cfg.Mode == config.ModeDevelopment
	if err := guard.ValidateEndpointURL(cfg.IdentityBaseURL, allowLocal); err != nil {
		return nil, fmt.Errorf("invalid identity base URL: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.IdentityBaseURL, "/"),
		apiKey:     cfg.IdentityAPIKey,
		httpClient: guard.NewClient(cfg.HTTPTimeout, allowLocal),
	}, nil
}

// signInResponse はサインイン系エンドポイントのレスポンス。
type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
}

// user はレスポンスから認証ユーザーを構築する。
func (r *signInResponse) user() *model.User {
	return &model.User{
		ID:          r.LocalID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
		Token:       r.IDToken,
	}
}

// SignIn は指定方式でサインインし、認証ユーザーを返す。
func (c *Client) SignIn(ctx context.Context, input SignInInput) (*model.User, error) {
	switch input.Method {
	case SignInMethodPassword:
		return c.signInWithPassword(ctx, input.Email, input.Password)
	case SignInMethodGoogle, SignInMethodGitHub:
		return c.signInWithIdp(ctx, input)
	default:
		return nil, model.NewValidationError(fmt.Sprintf("サポートされていないサインイン方式です: %s", input.Method))
	}
}

// signInWithPassword はメールアドレスとパスワードでサインインする。
func (c *Client) signInWithPassword(ctx context.Context, email, password string) (*model.User, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp signInResponse
	if err := c.post(ctx, "accounts:signInWithPassword", payload, &resp); err != nil {
		return nil, err
	}
	return resp.user(), nil
}

// signInWithIdp はOAuthプロバイダーのトークンでサインインする。
// コード交換はプロバイダー側で済ませたIDトークンまたは
// アクセストークンを受け取る。
func (c *Client) signInWithIdp(ctx context.Context, input SignInInput) (*model.User, error) {
	providerID := providerIDs[input.Method]

	postBody := url.Values{"providerId": {providerID}}
	if input.OAuthIDToken != "" {
		postBody.Set("id_token", input.OAuthIDToken)
	}
	if input.OAuthAccessToken != "" {
		postBody.Set("access_token", input.OAuthAccessToken)
	}

	payload := map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          input.RequestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}

	var resp signInResponse
	if err := c.post(ctx, "accounts:signInWithIdp", payload, &resp); err != nil {
		return nil, err
	}
	return resp.user(), nil
}

// SignUp はメールアドレスとパスワードでアカウントを作成する。
// 表示名が指定されている場合は作成後にプロファイルを更新する。
func (c *Client) SignUp(ctx context.Context, input SignUpInput) (*model.User, error) {
	payload := map[string]any{
		"email":             input.Email,
		"password":          input.Password,
		"returnSecureToken": true,
	}

	var resp signInResponse
	if err := c.post(ctx, "accounts:signUp", payload, &resp); err != nil {
		return nil, err
	}

	if input.DisplayName != "" {
		update := map[string]any{
			"idToken":           resp.IDToken,
			"displayName":       input.DisplayName,
			"returnSecureToken": false,
		}
		var updated signInResponse
		if err := c.post(ctx, "accounts:update", update, &updated); err != nil {
			return nil, err
		}
		resp.DisplayName = updated.DisplayName
	}

	return resp.user(), nil
}

// RequestPasswordReset はパスワードリセットメールの送信を要求する。
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	payload := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}
	return c.post(ctx, "accounts:sendOobCode", payload, &struct{}{})
}

// post はIDプロバイダーのエンドポイントへJSONをPOSTする。
func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?key=%s", c.baseURL, endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read identity response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseProviderError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse identity response: %w", err)
	}
	return nil
}

// providerErrorMessages はIDプロバイダーのエラーコードから
// ユーザー向けメッセージへのマッピング。
var providerErrorMessages = map[string]string{
	"EMAIL_NOT_FOUND":             "メールアドレスまたはパスワードが正しくありません。",
	"INVALID_PASSWORD":            "メールアドレスまたはパスワードが正しくありません。",
	"INVALID_LOGIN_CREDENTIALS":   "メールアドレスまたはパスワードが正しくありません。",
	"EMAIL_EXISTS":                "このメールアドレスは既に登録されています。",
	"WEAK_PASSWORD":               "パスワードは6文字以上で入力してください。",
	"USER_DISABLED":               "このアカウントは無効化されています。",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "試行回数が上限に達しました。しばらくしてから再度お試しください。",
	"INVALID_ID_TOKEN":            "",
	"TOKEN_EXPIRED":               "",
}

// parseProviderError はIDプロバイダーのエラーレスポンスを
// アプリケーションエラーへ変換する。
func parseProviderError(status int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return fmt.Errorf("identity request failed with status %d", status)
	}

	// "WEAK_PASSWORD : Password should be..." 形式の付帯情報を除去
	code := errResp.Error.Message
	if idx := strings.IndexAny(code, " :"); idx > 0 {
		code = code[:idx]
	}

	if msg, ok := providerErrorMessages[code]; ok {
		return model.NewAuthenticationError(msg)
	}
	return model.NewAuthenticationError("")
}
