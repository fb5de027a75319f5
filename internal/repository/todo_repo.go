package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/todoman/internal/docstore"
	"github.com/hitoshi/todoman/internal/model"
)

// todosCollection はTodoドキュメントを保存するコレクション名。
const todosCollection = "todos"

// DocstoreTodoRepo はドキュメントストアを使用したTodoリポジトリ。
type DocstoreTodoRepo struct {
	col docstore.Collection
}

// NewDocstoreTodoRepo はDocstoreTodoRepoを生成する。
func NewDocstoreTodoRepo(store docstore.Store) *DocstoreTodoRepo {
	return &DocstoreTodoRepo{col: store.Collection(todosCollection)}
}

// todoFields はドキュメント本体のフィールド構造。
type todoFields struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	UserID    string `json:"userId"`
}

// toModel はドキュメントをTodoモデルに変換する。
// 読み取り時検証として必須フィールドの存在を確認する。
func toModel(doc *docstore.Document) (*model.Todo, error) {
	var fields todoFields
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return nil, fmt.Errorf("Todoドキュメントの復元に失敗しました: %w", err)
	}
	if fields.Title == "" || fields.UserID == "" {
		return nil, fmt.Errorf("Todoドキュメント %s に必須フィールドがありません", doc.ID)
	}

	return &model.Todo{
		ID:        doc.ID,
		Title:     fields.Title,
		Completed: fields.Completed,
		UserID:    fields.UserID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// FindAll は所有者のTodo一覧を作成順で返す。
func (r *DocstoreTodoRepo) FindAll(ctx context.Context, ownerID string) ([]*model.Todo, error) {
	docs, err := r.col.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Todo一覧の取得に失敗しました: %w", err)
	}

	todos := make([]*model.Todo, 0, len(docs))
	for _, doc := range docs {
		todo, err := toModel(doc)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// FindByID は指定IDのTodoを取得する。
func (r *DocstoreTodoRepo) FindByID(ctx context.Context, id, ownerID string) (*model.Todo, error) {
	doc, err := r.col.Get(ctx, id, ownerID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, model.NewTodoNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("Todoの取得に失敗しました: %w", err)
	}
	return toModel(doc)
}

// Create はTodoを作成する。
func (r *DocstoreTodoRepo) Create(ctx context.Context, ownerID, title string) (*model.Todo, error) {
	doc, err := r.col.Add(ctx, ownerID, docstore.Fields{
		"title":     title,
		"completed": false,
		"userId":    ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("Todoの作成に失敗しました: %w", err)
	}
	return toModel(doc)
}

// Update は指定フィールドのみをマージする。
func (r *DocstoreTodoRepo) Update(ctx context.Context, id, ownerID string, input model.UpdateTodoInput) (*model.Todo, error) {
	fields := docstore.Fields{}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Completed != nil {
		fields["completed"] = *input.Completed
	}

	doc, err := r.col.Update(ctx, id, ownerID, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, model.NewTodoNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("Todoの更新に失敗しました: %w", err)
	}
	return toModel(doc)
}

// Delete は指定IDのTodoを削除する。
func (r *DocstoreTodoRepo) Delete(ctx context.Context, id, ownerID string) error {
	err := r.col.Delete(ctx, id, ownerID)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.NewTodoNotFoundError(id)
	}
	if err != nil {
		return fmt.Errorf("Todoの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TodoRepository = (*DocstoreTodoRepo)(nil)
