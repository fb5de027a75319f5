package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// ProfileServiceInterface はプロファイルハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// GetProfile は認証ユーザー自身のプロファイルを返す。
	GetProfile(ctx context.Context, user *model.User) (*model.Profile, error)
	// UpdateProfile は認証ユーザー自身の表示名を更新する。
	UpdateProfile(ctx context.Context, user *model.User, displayName string) (*model.Profile, error)
}

// ProfileHandler はユーザープロファイルのHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// updateProfileRequest はプロファイル更新リクエストのボディ。
type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

// GetProfile は認証ユーザー自身のプロファイルを取得する。
// GET /v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewAuthenticationError(""))
		return
	}

	profile, err := h.service.GetProfile(r.Context(), user)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, profile)
}

// UpdateProfile は認証ユーザー自身の表示名を更新する。
// PUT /v1/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewAuthenticationError(""))
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, model.NewValidationError("リクエストボディの形式が正しくありません。"))
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), user, req.DisplayName)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, profile)
}
