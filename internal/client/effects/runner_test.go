package effects

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/todoman/internal/client/authstate"
	"github.com/hitoshi/todoman/internal/client/store"
	"github.com/hitoshi/todoman/internal/client/todostate"
	"github.com/hitoshi/todoman/internal/identity"
	"github.com/hitoshi/todoman/internal/model"
)

type mockAPI struct {
	listTodosFn  func(ctx context.Context) ([]model.Todo, error)
	createTodoFn func(ctx context.Context, title string) (*model.Todo, error)
	updateTodoFn func(ctx context.Context, id string, input model.UpdateTodoInput) (*model.Todo, error)
	deleteTodoFn func(ctx context.Context, id string) error
	getProfileFn func(ctx context.Context) (*model.Profile, error)
}

func (m *mockAPI) ListTodos(ctx context.Context) ([]model.Todo, error) {
	if m.listTodosFn == nil {
		return nil, nil
	}
	return m.listTodosFn(ctx)
}

func (m *mockAPI) CreateTodo(ctx context.Context, title string) (*model.Todo, error) {
	if m.createTodoFn == nil {
		return &model.Todo{Title: title}, nil
	}
	return m.createTodoFn(ctx, title)
}

func (m *mockAPI) UpdateTodo(ctx context.Context, id string, input model.UpdateTodoInput) (*model.Todo, error) {
	if m.updateTodoFn == nil {
		return &model.Todo{ID: id}, nil
	}
	return m.updateTodoFn(ctx, id, input)
}

func (m *mockAPI) DeleteTodo(ctx context.Context, id string) error {
	if m.deleteTodoFn == nil {
		return nil
	}
	return m.deleteTodoFn(ctx, id)
}

func (m *mockAPI) GetProfile(ctx context.Context) (*model.Profile, error) {
	if m.getProfileFn == nil {
		return nil, model.NewProfileNotFoundError()
	}
	return m.getProfileFn(ctx)
}

type mockAuth struct {
	signInFn        func(ctx context.Context, input identity.SignInInput) (*model.User, error)
	signUpFn        func(ctx context.Context, input identity.SignUpInput) (*model.User, error)
	passwordResetFn func(ctx context.Context, email string) error
}

func (m *mockAuth) SignIn(ctx context.Context, input identity.SignInInput) (*model.User, error) {
	return m.signInFn(ctx, input)
}

func (m *mockAuth) SignUp(ctx context.Context, input identity.SignUpInput) (*model.User, error) {
	return m.signUpFn(ctx, input)
}

func (m *mockAuth) RequestPasswordReset(ctx context.Context, email string) error {
	return m.passwordResetFn(ctx, email)
}

type fixture struct {
	container *store.Container[store.RootState]
	notifier  *identity.Notifier
	api       *mockAPI
	auth      *mockAuth
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		container: store.NewRoot(),
		notifier:  identity.NewNotifier(),
		api:       &mockAPI{},
		auth:      &mockAuth{},
	}
	t.Cleanup(f.container.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	runner := NewRunner(f.container, f.api, f.auth, f.notifier)
	runner.Start(ctx)
	return f
}

// waitForState はディスパッチが非同期なため、条件成立までポーリングする。
func waitForState(t *testing.T, c *store.Container[store.RootState], cond func(store.RootState) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond(c.State()) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline; state = %+v", c.State())
}

func TestRunner_AuthWatcher_InitializesOnce(t *testing.T) {
	f := newFixture(t)

	var initCount atomic.Int32
	f.container.Tap(func(action store.Action, _ store.RootState) {
		if _, ok := action.(authstate.SetInitialized); ok {
			initCount.Add(1)
		}
	})

	// 購読時の初回通知（未サインイン）で初期化済みになる
	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.Initialized
	})

	f.notifier.SetUser(&model.User{ID: "uid-1", Token: "token-1"})
	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.User != nil && s.Auth.User.ID == "uid-1"
	})

	f.notifier.SetUser(nil)
	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.User == nil
	})

	if got := initCount.Load(); got > 1 {
		t.Errorf("SetInitialized dispatched %d times, want at most 1 after watch", got)
	}
	if !f.container.State().Auth.Initialized {
		t.Error("Initialized reverted to false")
	}
}

func TestRunner_FetchTodos(t *testing.T) {
	f := newFixture(t)
	f.api.listTodosFn = func(ctx context.Context) ([]model.Todo, error) {
		return []model.Todo{{ID: "1", Title: "牛乳を買う"}}, nil
	}

	f.container.Dispatch(todostate.FetchStart{})

	waitForState(t, f.container, func(s store.RootState) bool {
		return len(s.Todos.Todos) == 1 && !s.Todos.Loading
	})
}

func TestRunner_FetchTodos_Failure(t *testing.T) {
	f := newFixture(t)
	f.api.listTodosFn = func(ctx context.Context) ([]model.Todo, error) {
		return nil, model.NewAuthenticationError("")
	}

	f.container.Dispatch(todostate.FetchStart{})

	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Todos.Err == "認証が必要です。" && !s.Todos.Loading
	})
}

func TestRunner_FetchTodos_TakeLatest(t *testing.T) {
	f := newFixture(t)

	var calls atomic.Int32
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	f.api.listTodosFn = func(ctx context.Context) ([]model.Todo, error) {
		if calls.Add(1) == 1 {
			close(firstStarted)
			<-release
			return []model.Todo{{ID: "stale", Title: "古い結果"}}, nil
		}
		return []model.Todo{{ID: "fresh", Title: "新しい結果"}}, nil
	}

	f.container.Dispatch(todostate.FetchStart{})
	<-firstStarted
	f.container.Dispatch(todostate.FetchStart{})

	waitForState(t, f.container, func(s store.RootState) bool {
		return len(s.Todos.Todos) == 1 && s.Todos.Todos[0].ID == "fresh"
	})

	// 古い世代の結果は適用されない
	close(release)
	time.Sleep(50 * time.Millisecond)
	if got := f.container.State().Todos.Todos; len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("Todos = %+v, stale result was applied", got)
	}
}

func TestRunner_CreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	f.api.createTodoFn = func(ctx context.Context, title string) (*model.Todo, error) {
		return &model.Todo{ID: "1", Title: title}, nil
	}
	f.api.updateTodoFn = func(ctx context.Context, id string, input model.UpdateTodoInput) (*model.Todo, error) {
		return &model.Todo{ID: id, Title: "牛乳を買う", Completed: *input.Completed}, nil
	}
	f.api.deleteTodoFn = func(ctx context.Context, id string) error {
		return nil
	}

	f.container.Dispatch(todostate.CreateStart{Title: "牛乳を買う"})
	waitForState(t, f.container, func(s store.RootState) bool {
		return len(s.Todos.Todos) == 1 && s.Todos.Todos[0].ID == "1"
	})

	completed := true
	f.container.Dispatch(todostate.UpdateStart{ID: "1", Input: model.UpdateTodoInput{Completed: &completed}})
	waitForState(t, f.container, func(s store.RootState) bool {
		return len(s.Todos.Todos) == 1 && s.Todos.Todos[0].Completed
	})

	f.container.Dispatch(todostate.DeleteStart{ID: "1"})
	waitForState(t, f.container, func(s store.RootState) bool {
		return len(s.Todos.Todos) == 0
	})
}

func TestRunner_SignIn_FlowsThroughNotifier(t *testing.T) {
	f := newFixture(t)

	user := &model.User{ID: "uid-1", Email: "taro@example.com", Token: "token-1"}
	f.auth.signInFn = func(ctx context.Context, input identity.SignInInput) (*model.User, error) {
		if input.Method != identity.SignInMethodPassword {
			t.Errorf("Method = %q, want password", input.Method)
		}
		return user, nil
	}
	f.api.getProfileFn = func(ctx context.Context) (*model.Profile, error) {
		return &model.Profile{UID: "uid-1", DisplayName: "太郎"}, nil
	}

	f.container.Dispatch(authstate.EmailSignInRequest{Email: "taro@example.com", Password: "secret123"})

	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.User != nil && s.Auth.User.ID == "uid-1" && !s.Auth.Loading
	})

	// 通知経由で設定されたユーザーが唯一の情報源になる
	if f.notifier.CurrentUser() != user {
		t.Error("notifier does not hold the signed-in user")
	}

	// サインイン後にプロファイルが取得される
	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.Profile != nil && s.Auth.Profile.DisplayName == "太郎"
	})
}

func TestRunner_SignIn_Failure(t *testing.T) {
	f := newFixture(t)
	f.auth.signInFn = func(ctx context.Context, input identity.SignInInput) (*model.User, error) {
		return nil, model.NewAuthenticationError("メールアドレスまたはパスワードが正しくありません。")
	}

	f.container.Dispatch(authstate.EmailSignInRequest{Email: "taro@example.com", Password: "wrong"})

	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.Err == "メールアドレスまたはパスワードが正しくありません。" && !s.Auth.Loading
	})
	if f.container.State().Auth.User != nil {
		t.Error("failed sign-in set a user")
	}
}

func TestRunner_OAuthSignIn(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var methods []identity.SignInMethod
	f.auth.signInFn = func(ctx context.Context, input identity.SignInInput) (*model.User, error) {
		mu.Lock()
		methods = append(methods, input.Method)
		mu.Unlock()
		return &model.User{ID: "uid-" + string(input.Method)}, nil
	}

	f.container.Dispatch(authstate.GoogleSignInRequest{IDToken: "google-token"})
	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.User != nil && s.Auth.User.ID == "uid-google"
	})

	f.container.Dispatch(authstate.GithubSignInRequest{AccessToken: "github-token"})
	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.User != nil && s.Auth.User.ID == "uid-github"
	})

	mu.Lock()
	defer mu.Unlock()
	if len(methods) != 2 || methods[0] != identity.SignInMethodGoogle || methods[1] != identity.SignInMethodGitHub {
		t.Errorf("methods = %v", methods)
	}
}

func TestRunner_SignUp(t *testing.T) {
	f := newFixture(t)
	f.auth.signUpFn = func(ctx context.Context, input identity.SignUpInput) (*model.User, error) {
		return &model.User{ID: "uid-new", Email: input.Email, DisplayName: input.DisplayName}, nil
	}

	f.container.Dispatch(authstate.EmailSignUpRequest{
		Email:       "jiro@example.com",
		Password:    "secret123",
		DisplayName: "次郎",
	})

	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.User != nil && s.Auth.User.ID == "uid-new"
	})
}

func TestRunner_SignOut(t *testing.T) {
	f := newFixture(t)

	f.notifier.SetUser(&model.User{ID: "uid-1"})
	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.User != nil
	})

	f.container.Dispatch(authstate.SignOutRequest{})
	waitForState(t, f.container, func(s store.RootState) bool {
		return s.Auth.User == nil && !s.Auth.Loading
	})
	if f.notifier.CurrentUser() != nil {
		t.Error("notifier still holds a user after sign-out")
	}
}

func TestRunner_PasswordReset(t *testing.T) {
	f := newFixture(t)

	var gotEmail atomic.Value
	f.auth.passwordResetFn = func(ctx context.Context, email string) error {
		gotEmail.Store(email)
		return nil
	}

	f.container.Dispatch(authstate.PasswordResetRequest{Email: "taro@example.com"})

	waitForState(t, f.container, func(s store.RootState) bool {
		return gotEmail.Load() != nil && !s.Auth.Loading && s.Auth.Err == ""
	})
	if got, _ := gotEmail.Load().(string); got != "taro@example.com" {
		t.Errorf("email = %q, want taro@example.com", got)
	}
}
