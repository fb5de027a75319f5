// Package api はサーバーのREST APIを呼び出すクライアントを提供する。
// エフェクトランナーがTodoとプロファイルの操作に使用する。
package api

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

// TokenSource は要求ごとに現在のIDトークンを提供する。
// 未サインイン時は空文字列を返す。
type TokenSource interface {
	Token() string
}

// TokenSourceFunc は関数をTokenSourceとして使うためのアダプタ。
type TokenSourceFunc func() string

// Token はTokenSourceを実装する。
func (f TokenSourceFunc) Token() string { return f() }

// Client はサーバーAPIのHTTPクライアント。
// すべての要求にAuthorizationヘッダーを付与し、
// レスポンスエンベロープを復元する。
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient はClientを生成する。APIベースURLは設定で
// オーバーライド可能なため、事前に妥当性を検証する。
func NewClient(cfg *config.Config, guard security.OutboundGuardService, tokens TokenSource) (*Client, error) {
	allowLocal := cfg.Mode == config.ModeDevelopment
	baseURL := cfg.APIBaseURL()
	if err := guard.ValidateEndpointURL(baseURL, allowLocal); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: guard.NewClient(cfg.HTTPTimeout, allowLocal),
	}, nil
}

// ListTodos は認証ユーザーのTodo一覧を取得する。
func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, "/v1/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo は指定IDのTodoを取得する。
func (c *Client) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	var todo model.Todo
	if err := c.do(ctx, http.MethodGet, "/v1/todos/"+url.PathEscape(id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// CreateTodo は新しいTodoを作成する。
func (c *Client) CreateTodo(ctx context.Context, title string) (*model.Todo, error) {
	var todo model.Todo
	input := model.CreateTodoInput{Title: title}
	if err := c.do(ctx, http.MethodPost, "/v1/todos", input, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodo は指定IDのTodoを部分更新する。
func (c *Client) UpdateTodo(ctx context.Context, id string, input model.UpdateTodoInput) (*model.Todo, error) {
	var todo model.Todo
	if err := c.do(ctx, http.MethodPut, "/v1/todos/"+url.PathEscape(id), input, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo は指定IDのTodoを削除する。
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/todos/"+url.PathEscape(id), nil, nil)
}

// GetProfile は認証ユーザーのプロファイルを取得する。
func (c *Client) GetProfile(ctx context.Context) (*model.Profile, error) {
	var profile model.Profile
	if err := c.do(ctx, http.MethodGet, "/v1/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile は認証ユーザーの表示名を更新する。
func (c *Client) UpdateProfile(ctx context.Context, displayName string) (*model.Profile, error) {
	var profile model.Profile
	body := map[string]string{"displayName": displayName}
	if err := c.do(ctx, http.MethodPut, "/v1/profile", body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// envelope はサーバーのレスポンスエンベロープ。
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorKindsByCode は機械可読コードからエラー分類への逆引き。
var errorKindsByCode = map[string]model.ErrorKind{
	"VALIDATION_ERROR":        model.ErrorKindValidation,
	"AUTHENTICATION_REQUIRED": model.ErrorKindAuthentication,
	"PERMISSION_DENIED":       model.ErrorKindAuthorization,
	"NOT_FOUND":               model.ErrorKindNotFound,
	"CONFLICT":                model.ErrorKindConflict,
	"INTERNAL_SERVER_ERROR":   model.ErrorKindInternal,
}

// do は要求を送信し、エンベロープを復元してoutへデコードする。
// outがnilの場合はボディを読み捨てる（204応答など）。
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &model.AppError{
			Kind:    model.ErrorKindInternal,
			Message: "サーバーとの通信に失敗しました。",
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &model.AppError{
			Kind:    model.ErrorKindInternal,
			Message: "サーバーの応答を解釈できませんでした。",
		}
	}

	if !env.Success {
		appErr := &model.AppError{
			Kind:    model.ErrorKindInternal,
			Message: "内部エラーが発生しました。しばらく待ってから再度お試しください。",
		}
		if env.Error != nil {
			if kind, ok := errorKindsByCode[env.Error.Code]; ok {
				appErr.Kind = kind
			}
			if env.Error.Message != "" {
				appErr.Message = env.Error.Message
			}
		}
		return appErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
