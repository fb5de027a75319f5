package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/todoman/internal/docstore"
	"github.com/hitoshi/todoman/internal/model"
)

// usersCollection はプロファイルドキュメントを保存するコレクション名。
const usersCollection = "users"

// DocstoreProfileRepo はドキュメントストアを使用したプロファイルリポジトリ。
type DocstoreProfileRepo struct {
	col docstore.Collection
}

// NewDocstoreProfileRepo はDocstoreProfileRepoを生成する。
func NewDocstoreProfileRepo(store docstore.Store) *DocstoreProfileRepo {
	return &DocstoreProfileRepo{col: store.Collection(usersCollection)}
}

// profileFields はドキュメント本体のフィールド構造。
type profileFields struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// FindByUID は指定UIDのプロファイルを取得する。
func (r *DocstoreProfileRepo) FindByUID(ctx context.Context, uid string) (*model.Profile, error) {
	doc, err := r.col.Get(ctx, uid, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, model.NewProfileNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("プロファイルの取得に失敗しました: %w", err)
	}

	var fields profileFields
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return nil, fmt.Errorf("プロファイルドキュメントの復元に失敗しました: %w", err)
	}

	return &model.Profile{
		UID:         doc.ID,
		DisplayName: fields.DisplayName,
		Email:       fields.Email,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// Save はプロファイルを作成または全置換する。
func (r *DocstoreProfileRepo) Save(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	doc, err := r.col.Set(ctx, profile.UID, profile.UID, docstore.Fields{
		"displayName": profile.DisplayName,
		"email":       profile.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("プロファイルの保存に失敗しました: %w", err)
	}

	saved := *profile
	saved.CreatedAt = doc.CreatedAt
	saved.UpdatedAt = doc.UpdatedAt
	return &saved, nil
}

// compile-time interface check
var _ ProfileRepository = (*DocstoreProfileRepo)(nil)
