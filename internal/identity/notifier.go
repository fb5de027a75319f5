package identity

import (
	"sync"

	"github.com/hitoshi/todoman/internal/model"
)

// AuthStateCallback は認証状態変更の通知を受け取るコールバック。
// サインアウト時はnilが渡される。
type AuthStateCallback func(user *model.User)

// Notifier は認証状態の変更を購読者へ通知する。
// 購読時には現在の状態を即座に通知する。初期状態は未サインイン（nil）。
type Notifier struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]AuthStateCallback
	current *model.User
}

// NewNotifier はNotifierを生成する。
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[int]AuthStateCallback),
	}
}

// OnAuthStateChange は認証状態変更の購読を開始する。
// 登録時点の状態が即座にコールバックへ通知される。
// 返される関数を呼ぶと購読を解除する。解除は冪等。
func (n *Notifier) OnAuthStateChange(cb AuthStateCallback) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = cb
	current := n.current
	n.mu.Unlock()

	cb(current)

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// SetUser は現在の認証ユーザーを置き換え、全購読者へ通知する。
// サインアウトはnilを渡す。部分的な更新は行わず常に丸ごと置き換える。
func (n *Notifier) SetUser(user *model.User) {
	n.mu.Lock()
	n.current = user
	callbacks := make([]AuthStateCallback, 0, len(n.subs))
	for _, cb := range n.subs {
		callbacks = append(callbacks, cb)
	}
	n.mu.Unlock()

	for _, cb := range callbacks {
		cb(user)
	}
}

// CurrentUser は現在の認証ユーザーを返す。未サインインの場合はnil。
func (n *Notifier) CurrentUser() *model.User {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
