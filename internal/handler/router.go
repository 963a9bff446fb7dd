package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/notifier/internal/metrics"
	"github.com/hitoshi/notifier/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// アカウント・通知
	UserService UserServiceInterface
	Dispatcher  DispatcherInterface
	Inbox       InboxInterface
	Presenter   *Presenter
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → Logging → Metrics → SecurityHeaders → CORS
//	  → CSRF → Session → RateLimit(General)
//
// /health と /metrics はCSRF以降のミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	presenter := deps.Presenter
	if presenter == nil {
		presenter = NewPresenter(nil)
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService, presenter)
	notifHandler := NewNotificationHandler(deps.Dispatcher, deps.Inbox, deps.UserService, presenter)

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- アプリケーションのルート ---
	// ミドルウェアスタック: CSRF → Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// 登録・ログイン（認証系レート制限を追加）
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Get("/signin", authHandler.SigninForm)
			r.Post("/signin", authHandler.Signin)
			r.Get("/login", authHandler.LoginForm)
			r.Post("/login", authHandler.Login)
		})
		r.Post("/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)

		r.Get("/homepage/{id}", userHandler.Homepage)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/send/{id}", notifHandler.SendForm)
			r.Post("/send/{id}", notifHandler.Send)
			r.Get("/inbox/{id}/{pageNo}", notifHandler.Inbox)
			r.Post("/inbox/{id}/{pageNo}", notifHandler.Inbox)
		})

		r.Post("/delete/{userId}/{deleteId}", notifHandler.Delete)
		r.Get("/view/{id}/{messageSno}", notifHandler.View)
	})

	return r
}
