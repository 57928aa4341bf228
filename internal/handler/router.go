package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/blogapi/internal/metrics"
	"github.com/hitoshi/blogapi/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator      middleware.Authenticator
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger // nilの場合はslog.Default()

	// メトリクス。nilの場合は計測と/metricsを無効にする
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証・登録
	AuthService         AuthServiceInterface
	RegistrationService RegistrationServiceInterface

	// 記事・コメント
	PostService PostServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → StripSlashes → Recovery → Logging → Metrics → SecurityHeaders → CORS
//
// /api/register、/api/login、/api/login/refresh は認証不要（login系はIP単位のレート制限あり）。
// それ以外の/api配下は Auth → RateLimit(General) を通る。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(metrics.Middleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	authHandler := NewAuthHandler(deps.AuthService, deps.RegistrationService)
	postHandler := NewPostHandler(deps.PostService)
	commentHandler := NewCommentHandler(deps.PostService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// --- 認証不要のルート ---
		r.Post("/register", authHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.LoginMiddleware())
			r.Post("/login", authHandler.Login)
			r.Post("/login/refresh", authHandler.Refresh)
		})

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Auth → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postHandler.ListPosts)
				r.Post("/", postHandler.CreatePost)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", postHandler.GetPost)
					r.Put("/", postHandler.UpdatePost)
					r.Delete("/", postHandler.DeletePost)

					r.Route("/comments", func(r chi.Router) {
						r.Post("/", commentHandler.CreateComment)
						r.Put("/{cid}", commentHandler.UpdateComment)
						r.Delete("/{cid}", commentHandler.DeleteComment)
					})
				})
			})
		})
	})

	return r
}
