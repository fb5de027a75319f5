// Package effects はインテントアクションを副作用へ変換するランナーを提供する。
// ストアのアクションタップを購読し、各インテントに対応するAPI呼び出しを
// 実行して結果アクションをディスパッチする。
package effects

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hitoshi/todoman/internal/client/api"
	"github.com/hitoshi/todoman/internal/client/authstate"
	"github.com/hitoshi/todoman/internal/client/store"
	"github.com/hitoshi/todoman/internal/client/todostate"
	"github.com/hitoshi/todoman/internal/identity"
	"github.com/hitoshi/todoman/internal/model"
)

var (
	_ TodoAPI      = (*api.Client)(nil)
	_ AuthGateway  = (*identity.Client)(nil)
	_ AuthNotifier = (*identity.Notifier)(nil)
)

// TodoAPI はランナーが使用するサーバーAPIの操作。
type TodoAPI interface {
	ListTodos(ctx context.Context) ([]model.Todo, error)
	CreateTodo(ctx context.Context, title string) (*model.Todo, error)
	UpdateTodo(ctx context.Context, id string, input model.UpdateTodoInput) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	GetProfile(ctx context.Context) (*model.Profile, error)
}

// AuthGateway はランナーが使用するIDプロバイダーの操作。
type AuthGateway interface {
	SignIn(ctx context.Context, input identity.SignInInput) (*model.User, error)
	SignUp(ctx context.Context, input identity.SignUpInput) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
}

// AuthNotifier は認証状態の通知と更新を提供する。
// サインイン成功は直接ディスパッチせず必ずここを経由する。
// 通知が認証状態の唯一の情報源となる。
type AuthNotifier interface {
	OnAuthStateChange(cb identity.AuthStateCallback) (unsubscribe func())
	SetUser(user *model.User)
}

// intentKind は世代カウンタの単位。同じ種別のインテントが
// 連続した場合、最後に発行されたものの結果だけが適用される。
type intentKind int

const (
	kindFetchTodos intentKind = iota
	kindCreateTodo
	kindUpdateTodo
	kindDeleteTodo
	kindSignIn
	kindSignUp
	kindPasswordReset
	kindFetchProfile
)

// Runner はエフェクトランナー。Startで開始し、
// コンテキストのキャンセルでのみ停止する。
type Runner struct {
	container *store.Container[store.RootState]
	api       TodoAPI
	auth      AuthGateway
	notifier  AuthNotifier

	ctx      context.Context
	initOnce sync.Once

	mu   sync.Mutex
	gens map[intentKind]uint64
}

// NewRunner はRunnerを生成する。
func NewRunner(container *store.Container[store.RootState], api TodoAPI, auth AuthGateway, notifier AuthNotifier) *Runner {
	return &Runner{
		container: container,
		api:       api,
		auth:      auth,
		notifier:  notifier,
		gens:      make(map[intentKind]uint64),
	}
}

// Start はアクションタップと認証状態ウォッチャーを開始する。
// どちらもctxのキャンセルで解除される。
func (r *Runner) Start(ctx context.Context) {
	r.ctx = ctx

	untap := r.container.Tap(r.handle)
	unwatch := r.notifier.OnAuthStateChange(func(user *model.User) {
		r.container.Dispatch(authstate.SetUser{User: user})
		// 初回通知の受信は一度だけ記録する
		r.initOnce.Do(func() {
			r.container.Dispatch(authstate.SetInitialized{})
		})
	})

	go func() {
		<-ctx.Done()
		untap()
		unwatch()
	}()
}

// handle はディスパッチされたアクションを検分し、インテントに
// 対応するエフェクトを起動する。タップはストアのループgoroutineで
// 直列に呼ばれるため、世代カウンタの更新は取りこぼしなく順序付く。
func (r *Runner) handle(action store.Action, _ store.RootState) {
	switch a := action.(type) {
	case todostate.FetchStart:
		gen := r.next(kindFetchTodos)
		go r.fetchTodos(gen)
	case todostate.CreateStart:
		gen := r.next(kindCreateTodo)
		go r.createTodo(gen, a.Title)
	case todostate.UpdateStart:
		gen := r.next(kindUpdateTodo)
		go r.updateTodo(gen, a.ID, a.Input)
	case todostate.DeleteStart:
		gen := r.next(kindDeleteTodo)
		go r.deleteTodo(gen, a.ID)

	case authstate.EmailSignInRequest:
		gen := r.next(kindSignIn)
		go r.signIn(gen, identity.SignInInput{
			Method:   identity.SignInMethodPassword,
			Email:    a.Email,
			Password: a.Password,
		})
	case authstate.GoogleSignInRequest:
		gen := r.next(kindSignIn)
		go r.signIn(gen, identity.SignInInput{
			Method:       identity.SignInMethodGoogle,
			OAuthIDToken: a.IDToken,
		})
	case authstate.GithubSignInRequest:
		gen := r.next(kindSignIn)
		go r.signIn(gen, identity.SignInInput{
			Method:           identity.SignInMethodGitHub,
			OAuthAccessToken: a.AccessToken,
		})
	case authstate.EmailSignUpRequest:
		gen := r.next(kindSignUp)
		go r.signUp(gen, identity.SignUpInput{
			Email:       a.Email,
			Password:    a.Password,
			DisplayName: a.DisplayName,
		})
	case authstate.PasswordResetRequest:
		gen := r.next(kindPasswordReset)
		go r.requestPasswordReset(gen, a.Email)
	case authstate.SignOutRequest:
		// サインアウトは通知経由でSetUser(nil)として反映される
		go r.notifier.SetUser(nil)
	case authstate.SetUser:
		if a.User != nil {
			gen := r.next(kindFetchProfile)
			go r.fetchProfile(gen)
		}
	}
}

// next は種別の世代カウンタを進め、新しい世代を返す。
func (r *Runner) next(kind intentKind) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[kind]++
	return r.gens[kind]
}

// dispatchIf は世代が現行のままである場合のみ結果アクションを
// ディスパッチする。古い世代の結果は黙って捨てられる。
func (r *Runner) dispatchIf(kind intentKind, gen uint64, action store.Action) {
	r.mu.Lock()
	current := r.gens[kind]
	r.mu.Unlock()

	if current != gen {
		return
	}
	r.container.Dispatch(action)
}

func (r *Runner) fetchTodos(gen uint64) {
	todos, err := r.api.ListTodos(r.ctx)
	if err != nil {
		r.dispatchIf(kindFetchTodos, gen, todostate.FetchFailure{Message: userMessage(err)})
		return
	}
	r.dispatchIf(kindFetchTodos, gen, todostate.FetchSuccess{Todos: todos})
}

func (r *Runner) createTodo(gen uint64, title string) {
	todo, err := r.api.CreateTodo(r.ctx, title)
	if err != nil {
		r.dispatchIf(kindCreateTodo, gen, todostate.CreateFailure{Message: userMessage(err)})
		return
	}
	r.dispatchIf(kindCreateTodo, gen, todostate.CreateSuccess{Todo: *todo})
}

func (r *Runner) updateTodo(gen uint64, id string, input model.UpdateTodoInput) {
	todo, err := r.api.UpdateTodo(r.ctx, id, input)
	if err != nil {
		r.dispatchIf(kindUpdateTodo, gen, todostate.UpdateFailure{Message: userMessage(err)})
		return
	}
	r.dispatchIf(kindUpdateTodo, gen, todostate.UpdateSuccess{Todo: *todo})
}

func (r *Runner) deleteTodo(gen uint64, id string) {
	if err := r.api.DeleteTodo(r.ctx, id); err != nil {
		r.dispatchIf(kindDeleteTodo, gen, todostate.DeleteFailure{Message: userMessage(err)})
		return
	}
	r.dispatchIf(kindDeleteTodo, gen, todostate.DeleteSuccess{ID: id})
}

func (r *Runner) signIn(gen uint64, input identity.SignInInput) {
	user, err := r.auth.SignIn(r.ctx, input)
	if err != nil {
		r.dispatchIf(kindSignIn, gen, authstate.AuthError{Message: userMessage(err)})
		return
	}
	// 成功は通知経由でSetUserとして反映される
	r.notifier.SetUser(user)
}

func (r *Runner) signUp(gen uint64, input identity.SignUpInput) {
	user, err := r.auth.SignUp(r.ctx, input)
	if err != nil {
		r.dispatchIf(kindSignUp, gen, authstate.AuthError{Message: userMessage(err)})
		return
	}
	r.notifier.SetUser(user)
}

func (r *Runner) requestPasswordReset(gen uint64, email string) {
	if err := r.auth.RequestPasswordReset(r.ctx, email); err != nil {
		r.dispatchIf(kindPasswordReset, gen, authstate.AuthError{Message: userMessage(err)})
		return
	}
	r.dispatchIf(kindPasswordReset, gen, authstate.PasswordResetSuccess{})
}

func (r *Runner) fetchProfile(gen uint64) {
	profile, err := r.api.GetProfile(r.ctx)
	if err != nil {
		// プロファイルは表示名のフォールバックがあるため失敗してもログのみ
		slog.Warn("failed to fetch profile", "error", err)
		return
	}
	r.dispatchIf(kindFetchProfile, gen, authstate.SetProfile{Profile: profile})
}

// userMessage はエラーからユーザー向けメッセージを取り出す。
func userMessage(err error) string {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "内部エラーが発生しました。しばらく待ってから再度お試しください。"
}
