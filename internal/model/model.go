// Package model はドメインモデルを定義する。
package model

import "time"

// Todo はユーザーが所有するTodoを表す。
// IDはドキュメントストアがサーバー側で採番し、以後変更されない。
// UserIDは作成時に認証クレームから設定され、以後変更されない。
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateTodoInput はTodo作成の入力を表す。
type CreateTodoInput struct {
	Title string `json:"title"`
}

// UpdateTodoInput はTodo更新の入力を表す。
// nilフィールドは変更しない部分更新を行う。
type UpdateTodoInput struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// User は検証済みトークンのクレームから構築される認証ユーザーを表す。
// 部分的に書き換えられることはなく、サインインイベントごとに丸ごと置き換えられる。
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Token       string `json:"-"`
}

// Claims はIDプロバイダーが検証したトークンのクレームを表す。
type Claims struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// User はクレームから認証ユーザーを構築する。
func (c *Claims) User(token string) *User {
	return &User{
		ID:          c.UID,
		Email:       c.Email,
		DisplayName: c.Name,
		PhotoURL:    c.Picture,
		Token:       token,
	}
}

// Profile はusersコレクションに保存されるユーザープロファイルを表す。
type Profile struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TodoFilter はTodo一覧の表示フィルタを表す。
// フィルタは表示の射影であり、保存されたTodo列を変更しない。
type TodoFilter string

const (
	// TodoFilterAll は全件表示フィルタ。
	TodoFilterAll TodoFilter = "all"
	// TodoFilterActive は未完了のみの表示フィルタ。
	TodoFilterActive TodoFilter = "active"
	// TodoFilterCompleted は完了のみの表示フィルタ。
	TodoFilterCompleted TodoFilter = "completed"
)

// Valid はフィルタが定義済みの値かどうかを返す。
func (f TodoFilter) Valid() bool {
	switch f {
	case TodoFilterAll, TodoFilterActive, TodoFilterCompleted:
		return true
	}
	return false
}
