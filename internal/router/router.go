package router

import (
	"time"

	"edulearn/internal/cache"
	"edulearn/internal/database"
	"edulearn/internal/handler"
	"edulearn/internal/handler/auth"
	"edulearn/internal/handler/chat"
	"edulearn/internal/handler/events"
	"edulearn/internal/handler/models"
	"edulearn/internal/handler/resources"
	"edulearn/internal/handler/tokens"
	"edulearn/internal/handler/users"
	"edulearn/internal/metrics"
	"edulearn/internal/middleware"
	"edulearn/internal/oauth"
	"edulearn/internal/ratelimit"
	"edulearn/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Deps 是註冊路由所需的所有相依物件
type Deps struct {
	DB    database.DB
	Cache cache.Cache

	Resources resources.Catalog
	Events    events.Catalog
	Usage     tokens.Reporter
	Budget    chat.Budget
	Keys      chat.KeyResolver
	KeyMode   users.KeyMode
	Validator users.KeyValidator
	Provider  chat.Completer
	OAuth     oauth.Registry

	Limiter    *ratelimit.Limiter
	ChatLimit  int
	ChatWindow time.Duration
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer

	Pool     worker.Pool
	SyncTask worker.Task

	Cookies       auth.Cookies
	StateSecret   string
	FrontendURL   string
	FallbackModel string
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, d Deps) {
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api", middleware.LoadSession(d.Cache))
	requireAdmin := middleware.RequireAdmin(d.DB)

	// 健康檢查
	api.GET("/ping", handler.PingHandler(d.DB, d.Cache))

	// 帳號與 session
	opts := auth.OAuthOptions{Cookies: d.Cookies, StateSecret: d.StateSecret, FrontendURL: d.FrontendURL}
	apiAuth := api.Group("/auth")
	apiAuth.POST("/signup", auth.SignUpHandler(d.DB, d.Cache, d.Cookies))
	apiAuth.POST("/signin", auth.SignInHandler(d.DB, d.Cache, d.Cookies))
	apiAuth.POST("/signout", auth.SignOutHandler(d.Cache, d.Cookies))
	apiAuth.GET("/session", auth.SessionHandler(d.DB))
	apiAuth.GET("/:provider/login", auth.OAuthLoginHandler(d.OAuth, opts))
	apiAuth.GET("/:provider/callback", auth.OAuthCallbackHandler(d.DB, d.Cache, d.OAuth, opts))

	// 個人 API key
	apiKey := api.Group("/users/me/api-key", middleware.RequireAuth)
	apiKey.GET("", users.GetAPIKeyHandler(d.DB, d.KeyMode))
	apiKey.PUT("", users.PutAPIKeyHandler(d.DB, d.Validator, d.KeyMode))
	apiKey.DELETE("", users.DeleteAPIKeyHandler(d.DB, d.KeyMode))

	// token 額度
	apiTokens := api.Group("/tokens", middleware.RequireAuth)
	apiTokens.GET("/status", tokens.StatusHandler(d.Usage))
	apiTokens.GET("/usage", tokens.UsageHandler(d.Usage))

	// AI 對話：先限流再驗證登入以外的條件
	api.POST("/chat", chat.Handler(chat.Deps{
		Budget:        d.Budget,
		Keys:          d.Keys,
		Provider:      d.Provider,
		Metrics:       d.Metrics,
		FallbackModel: d.FallbackModel,
	}), middleware.RequireAuth, middleware.RateLimit(d.Limiter, d.ChatLimit, d.ChatWindow, d.Metrics))

	// 學習資源
	apiResources := api.Group("/resources")
	apiResources.GET("", resources.ListHandler(d.Resources))
	apiResources.GET("/:id", resources.GetHandler(d.Resources))
	apiResources.POST("", resources.SubmitHandler(d.Resources), middleware.RequireAuth)
	apiResources.POST("/:id/approve", resources.ApproveHandler(d.Resources), middleware.RequireAuth)
	apiResources.POST("/:id/reject", resources.RejectHandler(d.Resources), middleware.RequireAuth)
	apiResources.DELETE("/:id", resources.DeleteHandler(d.Resources), middleware.RequireAuth)

	// 活動與報名
	apiEvents := api.Group("/events")
	apiEvents.GET("", events.ListHandler(d.Events))
	apiEvents.GET("/:id", events.GetHandler(d.Events))
	apiEvents.POST("", events.SubmitHandler(d.Events), middleware.RequireAuth)
	apiEvents.POST("/:id/approve", events.ApproveHandler(d.Events), middleware.RequireAuth)
	apiEvents.POST("/:id/reject", events.RejectHandler(d.Events), middleware.RequireAuth)
	apiEvents.DELETE("/:id", events.DeleteHandler(d.Events), middleware.RequireAuth)
	apiEvents.POST("/:id/register", events.RegisterHandler(d.Events), middleware.RequireAuth)
	apiEvents.GET("/:id/registration", events.RegistrationHandler(d.Events), middleware.RequireAuth)

	// 模型清單
	api.GET("/models", models.ListHandler(d.DB))

	// 管理員專屬
	apiAdmin := api.Group("/admin", requireAdmin)
	apiAdmin.GET("/users", users.ListUsersHandler(d.DB))
	apiAdmin.PATCH("/users/:id/admin", users.SetAdminHandler(d.DB))
	apiAdmin.POST("/models/sync", models.SyncHandler(d.Pool, d.SyncTask))
	apiAdmin.GET("/models/sync", models.LatestSyncHandler(d.DB))
}
