package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/todoman/internal/identity"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier           identity.Verifier
	CORSAllowedOrigins []string
	Logger             *slog.Logger
	Collector          metrics.MetricsCollector
	Gatherer           prometheus.Gatherer

	// サービス
	TodoService    TodoServiceInterface
	ProfileService ProfileServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → ロギング → リカバリ → セキュリティヘッダー → メトリクス → 認証
//
// /healthz と /metrics は認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))

	todoHandler := NewTodoHandler(deps.TodoService, deps.Collector)
	profileHandler := NewProfileHandler(deps.ProfileService)

	// --- 認証不要のルート ---

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証が必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier))

		r.Route("/v1/todos", func(r chi.Router) {
			r.Get("/", todoHandler.ListTodos)
			r.Post("/", todoHandler.CreateTodo)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", todoHandler.GetTodo)
				r.Put("/", todoHandler.UpdateTodo)
				r.Delete("/", todoHandler.DeleteTodo)
			})
		})

		r.Route("/v1/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetProfile)
			r.Put("/", profileHandler.UpdateProfile)
		})
	})

	// 未定義ルートにもエンベロープで応答する
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, model.NewNotFoundError("指定されたリソースが見つかりません。"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"success":false,"error":{"code":"METHOD_NOT_ALLOWED","message":"このメソッドは許可されていません。"}}`))
	})

	return r
}
