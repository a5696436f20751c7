package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/postboard/internal/metrics"
	"github.com/hitoshi/postboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	AdminChecker      middleware.AdminChecker
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// 認証・ユーザー
	AuthService AuthServiceInterface

	// 投稿
	PostService PostServiceInterface

	// ヘルスチェック
	DB Pinger

	// メトリクス。Gathererがnilの場合は/metricsを公開しない。
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → Metrics → SecurityHeaders → CORS
//
// ベアラー認証は/v1/authの保護ルートにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	postHandler := NewPostHandler(deps.PostService)

	// --- 運用系 ---
	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.DB))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 投稿（認証不要） ---
	r.Route("/v1/posts", func(r chi.Router) {
		r.Get("/", postHandler.ListPosts)
		r.Post("/create", postHandler.CreatePost)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", postHandler.GetPost)
			r.Put("/", postHandler.UpdatePost)
			r.Delete("/", postHandler.DeletePost)
		})
	})

	// --- 認証 ---
	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)

		// ベアラートークン必須
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewBearerMiddleware(deps.Authenticator, deps.Metrics))

			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.With(middleware.RequireAdmin(deps.AdminChecker)).Get("/", authHandler.ListUsers)
		})
	})

	return r
}
