// Package user はユーザープロファイルのドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/security"
)

// maxDisplayNameLength は表示名の最大文字数。
const maxDisplayNameLength = 50

// defaultDisplayName はプロファイル未設定時の表示名。
const defaultDisplayName = "Anonymous"

// Service はユーザープロファイルのサービス層。
// プロファイルの取得と表示名の更新を提供する。
type Service struct {
	repo      repository.ProfileRepository
	sanitizer security.TitleSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ProfileRepository, sanitizer security.TitleSanitizerService) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// GetProfile は認証ユーザー自身のプロファイルを返す。
// プロファイルドキュメントが未作成の場合はトークンのクレームから
// 既定プロファイルを作成して保存し、それを返す。
func (s *Service) GetProfile(ctx context.Context, user *model.User) (*model.Profile, error) {
	profile, err := s.repo.FindByUID(ctx, user.ID)
	if err == nil {
		return profile, nil
	}

	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Kind != model.ErrorKindNotFound {
		return nil, fmt.Errorf("プロファイルの取得に失敗しました: %w", err)
	}

	// 初回アクセス時に既定プロファイルを作成する
	created, err := s.repo.Save(ctx, &model.Profile{
		UID:         user.ID,
		DisplayName: s.defaultName(user),
		Email:       user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("既定プロファイルの作成に失敗しました: %w", err)
	}

	slog.Info("既定プロファイルを作成しました",
		slog.String("user_id", user.ID),
	)

	return created, nil
}

// UpdateProfile は認証ユーザー自身の表示名を更新する。
func (s *Service) UpdateProfile(ctx context.Context, user *model.User, displayName string) (*model.Profile, error) {
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(displayName))
	if cleaned == "" {
		return nil, model.NewValidationError("表示名を入力してください。")
	}
	if utf8.RuneCountInString(cleaned) > maxDisplayNameLength {
		return nil, model.NewValidationError("表示名は50文字以内で入力してください。")
	}

	saved, err := s.repo.Save(ctx, &model.Profile{
		UID:         user.ID,
		DisplayName: cleaned,
		Email:       user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("プロファイルの更新に失敗しました: %w", err)
	}
	return saved, nil
}

// defaultName はクレーム由来の表示名を返す。空の場合はAnonymousにフォールバックする。
func (s *Service) defaultName(user *model.User) string {
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		return name
	}
	return defaultDisplayName
}
