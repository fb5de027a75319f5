// Package todostate はTodoスライスの状態・アクション・リデューサ・セレクタを提供する。
package todostate

import "github.com/hitoshi/todoman/internal/model"

// State はTodoスライスの状態。
type State struct {
	// Todos はサーバーから取得したTodo列。作成日時の昇順。
	Todos []model.Todo
	// Loading はTodo操作が進行中かどうか。
	Loading bool
	// Err は直近のTodo操作エラーメッセージ。エラーがない場合は空。
	Err string
	// Filter は一覧の表示フィルタ。保存されたTodo列は変更しない。
	Filter model.TodoFilter
}

// Initial は初期状態を返す。フィルタは全件表示。
func Initial() State {
	return State{Filter: model.TodoFilterAll}
}

// --- アクション ---

// FetchStart はTodo一覧取得の開始。
type FetchStart struct{}

// FetchSuccess はTodo一覧取得の完了。
type FetchSuccess struct {
	Todos []model.Todo
}

// FetchFailure はTodo一覧取得の失敗。
type FetchFailure struct {
	Message string
}

// CreateStart はTodo作成の開始。
type CreateStart struct {
	Title string
}

// CreateSuccess はTodo作成の完了。
type CreateSuccess struct {
	Todo model.Todo
}

// CreateFailure はTodo作成の失敗。
type CreateFailure struct {
	Message string
}

// UpdateStart はTodo更新の開始。
type UpdateStart struct {
	ID    string
	Input model.UpdateTodoInput
}

// UpdateSuccess はTodo更新の完了。
type UpdateSuccess struct {
	Todo model.Todo
}

// UpdateFailure はTodo更新の失敗。
type UpdateFailure struct {
	Message string
}

// DeleteStart はTodo削除の開始。
type DeleteStart struct {
	ID string
}

// DeleteSuccess はTodo削除の完了。
type DeleteSuccess struct {
	ID string
}

// DeleteFailure はTodo削除の失敗。
type DeleteFailure struct {
	Message string
}

// SetFilter は表示フィルタを変更する。未定義の値は無視される。
type SetFilter struct {
	Filter model.TodoFilter
}

// ClearError はエラーメッセージを消去する。
type ClearError struct{}

// Reduce はTodoスライスのリデューサ。
// Todo列の変更は常にコピーオンライトで行い、前の状態のスライスを共有しない。
func Reduce(s State, action any) State {
	switch a := action.(type) {
	case FetchStart, CreateStart, UpdateStart, DeleteStart:
		s.Loading = true
		s.Err = ""
	case FetchSuccess:
		s.Todos = a.Todos
		s.Loading = false
		s.Err = ""
	case CreateSuccess:
		next := make([]model.Todo, 0, len(s.Todos)+1)
		next = append(next, s.Todos...)
		next = append(next, a.Todo)
		s.Todos = next
		s.Loading = false
		s.Err = ""
	case UpdateSuccess:
		next := make([]model.Todo, len(s.Todos))
		copy(next, s.Todos)
		for i := range next {
			if next[i].ID == a.Todo.ID {
				next[i] = a.Todo
			}
		}
		s.Todos = next
		s.Loading = false
		s.Err = ""
	case DeleteSuccess:
		next := make([]model.Todo, 0, len(s.Todos))
		for _, todo := range s.Todos {
			if todo.ID != a.ID {
				next = append(next, todo)
			}
		}
		s.Todos = next
		s.Loading = false
		s.Err = ""
	case FetchFailure:
		s.Loading = false
		s.Err = a.Message
	case CreateFailure:
		s.Loading = false
		s.Err = a.Message
	case UpdateFailure:
		s.Loading = false
		s.Err = a.Message
	case DeleteFailure:
		s.Loading = false
		s.Err = a.Message
	case SetFilter:
		if a.Filter.Valid() {
			s.Filter = a.Filter
		}
	case ClearError:
		s.Err = ""
	}
	return s
}

// --- セレクタ ---

// Filtered はフィルタを適用したTodo列を返す。全件表示の場合は
// 保存されたスライスをそのまま返す。メモ化が必要な場合は
// storeパッケージのセレクタヘルパーと組み合わせて使う。
func Filtered(s State) []model.Todo {
	if s.Filter == model.TodoFilterAll {
		return s.Todos
	}
	wantCompleted := s.Filter == model.TodoFilterCompleted
	filtered := make([]model.Todo, 0, len(s.Todos))
	for _, todo := range s.Todos {
		if todo.Completed == wantCompleted {
			filtered = append(filtered, todo)
		}
	}
	return filtered
}

// ActiveCount は未完了のTodo数を返す。
func ActiveCount(s State) int {
	n := 0
	for _, todo := range s.Todos {
		if !todo.Completed {
			n++
		}
	}
	return n
}
