package store

import (
	"github.com/hitoshi/todoman/internal/client/authstate"
	"github.com/hitoshi/todoman/internal/client/todostate"
	"github.com/hitoshi/todoman/internal/model"
)

// RootState はクライアント全体の状態。スライスごとに分割される。
type RootState struct {
	Auth  authstate.State
	Todos todostate.State
}

// RootReducer は各スライスのリデューサへアクションを委譲する。
// アクションはすべてのスライスに渡され、関知しないスライスは
// 状態をそのまま返す。
func RootReducer(s RootState, action Action) RootState {
	s.Auth = authstate.Reduce(s.Auth, action)
	s.Todos = todostate.Reduce(s.Todos, action)
	return s
}

// NewRoot は初期状態のRootStateを持つコンテナを生成する。
func NewRoot() *Container[RootState] {
	return New(RootState{
		Auth:  authstate.Initial(),
		Todos: todostate.Initial(),
	}, RootReducer)
}

// filteredKey はNewFilteredTodosのメモ化キー。Todoリデューサが
// コピーオンライトなので、先頭要素アドレスと長さの組で
// Todo列の同一性を判定できる。
type filteredKey struct {
	head   *model.Todo
	length int
	filter model.TodoFilter
}

// NewFilteredTodos はフィルタ適用済みのTodo列を返すメモ化セレクタを作る。
// Todo列とフィルタが前回と同じなら同じスライスを返す。
func NewFilteredTodos() func(RootState) []model.Todo {
	return Memoize(
		func(s RootState) filteredKey {
			k := filteredKey{length: len(s.Todos.Todos), filter: s.Todos.Filter}
			if len(s.Todos.Todos) > 0 {
				k.head = &s.Todos.Todos[0]
			}
			return k
		},
		func(s RootState) []model.Todo {
			return todostate.Filtered(s.Todos)
		},
	)
}
