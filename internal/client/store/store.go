// Package store はクライアント側の状態コンテナを提供する。
// 単一のディスパッチチャネルと純粋なリデューサによる
// 一方向データフローを実装する。モジュールレベルのシングルトンは持たず、
// コンテナは呼び出し側が生成して注入する。
package store

import "sync"

// Action は状態遷移の入力を表す。各アクションは構造体として定義される。
type Action any

// Reducer は現在の状態とアクションから次の状態を導出する純粋関数。
type Reducer[S any] func(state S, action Action) S

// Container は単一のディスパッチチャネルを持つ状態コンテナ。
// すべてのアクションは専用goroutineで直列に処理されるため、
// リデューサ内での同期は不要。
type Container[S any] struct {
	reducer Reducer[S]
	actions chan Action
	done    chan struct{}
	closed  sync.Once

	mu     sync.RWMutex
	state  S
	subs   map[int]func(S)
	taps   map[int]func(Action, S)
	nextID int
}

// New は初期状態とリデューサからContainerを生成し、
// ディスパッチループを開始する。
func New[S any](initial S, reducer Reducer[S]) *Container[S] {
	c := &Container[S]{
		reducer: reducer,
		actions: make(chan Action, 64),
		done:    make(chan struct{}),
		state:   initial,
		subs:    make(map[int]func(S)),
		taps:    make(map[int]func(Action, S)),
	}
	go c.loop()
	return c
}

// loop はディスパッチされたアクションを直列に処理する。
func (c *Container[S]) loop() {
	for {
		select {
		case <-c.done:
			return
		case action := <-c.actions:
			c.apply(action)
		}
	}
}

// apply はリデューサで状態を更新し、タップと購読者へ通知する。
// タップはエフェクトランナー用で、購読者より先に呼ばれる。
func (c *Container[S]) apply(action Action) {
	c.mu.Lock()
	c.state = c.reducer(c.state, action)
	next := c.state
	taps := make([]func(Action, S), 0, len(c.taps))
	for _, tap := range c.taps {
		taps = append(taps, tap)
	}
	subs := make([]func(S), 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, tap := range taps {
		tap(action, next)
	}
	for _, sub := range subs {
		sub(next)
	}
}

// Dispatch はアクションをディスパッチチャネルへ送る。
// コンテナが閉じられている場合は何もしない。
func (c *Container[S]) Dispatch(action Action) {
	select {
	case c.actions <- action:
	case <-c.done:
	}
}

// State は現在の状態のスナップショットを返す。
func (c *Container[S]) State() S {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe は状態変更の購読を開始する。
// 返される関数を呼ぶと購読を解除する。
func (c *Container[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Tap はアクションタップを登録する。タップはリデューサ適用後、
// 購読者への通知前に、アクションと更新後の状態を受け取る。
// エフェクトランナーがインテントアクションを監視するために使用する。
func (c *Container[S]) Tap(fn func(Action, S)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.taps[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.taps, id)
		c.mu.Unlock()
	}
}

// Close はディスパッチループを停止する。多重呼び出しは安全。
func (c *Container[S]) Close() {
	c.closed.Do(func() {
		close(c.done)
	})
}

// Memoize は入力キーが変わらない間、直前の計算結果を返すセレクタを生成する。
// keyは状態から比較可能なキーを導出し、computeは実際の射影を行う。
func Memoize[S any, K comparable, R any](key func(S) K, compute func(S) R) func(S) R {
	var (
		mu       sync.Mutex
		hasLast  bool
		lastKey  K
		lastItem R
	)
	return func(s S) R {
		mu.Lock()
		defer mu.Unlock()

		k := key(s)
		if hasLast && k == lastKey {
			return lastItem
		}
		lastKey = k
		lastItem = compute(s)
		hasLast = true
		return lastItem
	}
}
