// Package handler はAPIエンドポイントのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// TodoServiceInterface はTodoハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	// ListTodos は認証ユーザーのTodo一覧を作成順で返す。
	ListTodos(ctx context.Context, ownerID string) ([]*model.Todo, error)
	// GetTodo は指定IDのTodoを返す。
	GetTodo(ctx context.Context, id, ownerID string) (*model.Todo, error)
	// CreateTodo はTodoを作成する。
	CreateTodo(ctx context.Context, ownerID string, input model.CreateTodoInput) (*model.Todo, error)
	// UpdateTodo は指定フィールドのみを更新する。
	UpdateTodo(ctx context.Context, id, ownerID string, input model.UpdateTodoInput) (*model.Todo, error)
	// DeleteTodo は指定IDのTodoを削除する。
	DeleteTodo(ctx context.Context, id, ownerID string) error
}

// TodoHandler はTodo管理のHTTPハンドラー。
type TodoHandler struct {
	service   TodoServiceInterface
	collector metrics.MetricsCollector
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface, collector metrics.MetricsCollector) *TodoHandler {
	return &TodoHandler{
		service:   service,
		collector: collector,
	}
}

// updateTodoRequest はTodo更新リクエストのボディ。
// 指定されたフィールドのみが更新される。
type updateTodoRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// ListTodos は認証ユーザーのTodo一覧を取得する。
// GET /v1/todos
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewAuthenticationError(""))
		return
	}

	todos, err := h.service.ListTodos(r.Context(), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, todos)
}

// GetTodo は指定IDのTodoを取得する。
// GET /v1/todos/{id}
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewAuthenticationError(""))
		return
	}

	todo, err := h.service.GetTodo(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, todo)
}

// CreateTodo はTodoを作成する。
// POST /v1/todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewAuthenticationError(""))
		return
	}

	var input model.CreateTodoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, model.NewValidationError("リクエストボディの形式が正しくありません。"))
		return
	}

	todo, err := h.service.CreateTodo(r.Context(), user.ID, input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	h.collector.RecordTodoCreated()
	middleware.WriteSuccess(w, http.StatusCreated, todo)
}

// UpdateTodo は指定IDのTodoを部分更新する。
// PUT /v1/todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewAuthenticationError(""))
		return
	}

	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, model.NewValidationError("リクエストボディの形式が正しくありません。"))
		return
	}

	todo, err := h.service.UpdateTodo(r.Context(), chi.URLParam(r, "id"), user.ID, model.UpdateTodoInput{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, todo)
}

// DeleteTodo は指定IDのTodoを削除する。
// DELETE /v1/todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewAuthenticationError(""))
		return
	}

	if err := h.service.DeleteTodo(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	h.collector.RecordTodoDeleted()
	w.WriteHeader(http.StatusNoContent)
}
