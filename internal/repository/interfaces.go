// Package repository はデータ永続化のインターフェースを定義する。
//
// すべての操作は認証済み呼び出し元の所有者IDを必須引数に取る。
// 所有者フィルタはこの層の不変条件であり、他ユーザーのドキュメントは
// 不在（NotFound）と区別されない。
package repository

import (
	"context"

	"github.com/hitoshi/todoman/internal/model"
)

// TodoRepository はTodoデータの永続化インターフェース。
type TodoRepository interface {
	// FindAll は所有者のTodo一覧を作成順で返す。
	FindAll(ctx context.Context, ownerID string) ([]*model.Todo, error)

	// FindByID は指定IDのTodoを取得する。
	// 不在または所有者不一致の場合はNotFoundエラーを返す。
	FindByID(ctx context.Context, id, ownerID string) (*model.Todo, error)

	// Create はTodoを作成する。IDはストアが採番し、
	// completed=false、createdAt=updatedAt=nowが設定される。
	Create(ctx context.Context, ownerID, title string) (*model.Todo, error)

	// Update は指定フィールドのみをマージし、updatedAt=nowを設定する。
	// 不在または所有者不一致の場合はNotFoundエラーを返す。
	Update(ctx context.Context, id, ownerID string, input model.UpdateTodoInput) (*model.Todo, error)

	// Delete は指定IDのTodoを削除する。
	// 不在または所有者不一致の場合はNotFoundエラーを返す。
	Delete(ctx context.Context, id, ownerID string) error
}

// ProfileRepository はユーザープロファイルの永続化インターフェース。
// プロファイルのドキュメントIDは認証UIDそのもの。
type ProfileRepository interface {
	// FindByUID は指定UIDのプロファイルを取得する。
	// 見つからない場合はNotFoundエラーを返す。
	FindByUID(ctx context.Context, uid string) (*model.Profile, error)

	// Save はプロファイルを作成または全置換する。
	Save(ctx context.Context, profile *model.Profile) (*model.Profile, error)
}
