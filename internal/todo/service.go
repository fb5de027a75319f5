// Package todo はTodo管理のドメインロジックを提供する。
package todo

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/security"
)

// maxTitleLength はTodoタイトルの最大文字数。
const maxTitleLength = 100

// Service はTodo管理のサービス層。
// 入力検証とビジネスルールを適用し、リポジトリへ委譲する。
// リポジトリを呼び出すのはこの層のみであり、ここが強制境界になる。
type Service struct {
	repo      repository.TodoRepository
	sanitizer security.TitleSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TodoRepository, sanitizer security.TitleSanitizerService) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// validateTitle はタイトルをサニタイズ・検証し、保存用の値を返す。
// トリム後に空、または100文字を超える場合はValidationエラーを返す。
func (s *Service) validateTitle(title string) (string, error) {
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(title))
	if cleaned == "" {
		return "", model.NewValidationError("Todoのタイトルを入力してください。")
	}
	if utf8.RuneCountInString(cleaned) > maxTitleLength {
		return "", model.NewValidationError("Todoのタイトルは100文字以内で入力してください。")
	}
	return cleaned, nil
}

// ListTodos は呼び出し元のTodo一覧を作成順で返す。
func (s *Service) ListTodos(ctx context.Context, ownerID string) ([]*model.Todo, error) {
	return s.repo.FindAll(ctx, ownerID)
}

// GetTodo は指定IDのTodoを返す。
// 不在または所有者不一致の場合はNotFoundエラーがそのまま伝播する。
func (s *Service) GetTodo(ctx context.Context, id, ownerID string) (*model.Todo, error) {
	return s.repo.FindByID(ctx, id, ownerID)
}

// CreateTodo はタイトルを検証してTodoを作成する。
func (s *Service) CreateTodo(ctx context.Context, ownerID string, input model.CreateTodoInput) (*model.Todo, error) {
	title, err := s.validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, ownerID, title)
}

// UpdateTodo は指定フィールドのみを検証・更新する。
// タイトルが指定された場合のみタイトル検証を行う。
func (s *Service) UpdateTodo(ctx context.Context, id, ownerID string, input model.UpdateTodoInput) (*model.Todo, error) {
	if input.Title != nil {
		title, err := s.validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		input.Title = &title
	}
	return s.repo.Update(ctx, id, ownerID, input)
}

// DeleteTodo は指定IDのTodoを削除する。
func (s *Service) DeleteTodo(ctx context.Context, id, ownerID string) error {
	return s.repo.Delete(ctx, id, ownerID)
}
