package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "edulearn/docs" // 引入 swag 產出的 docs

	"edulearn/internal/apikey"
	"edulearn/internal/cache"
	"edulearn/internal/catalog"
	"edulearn/internal/config"
	"edulearn/internal/database"
	"edulearn/internal/handler/auth"
	"edulearn/internal/logger"
	"edulearn/internal/metrics"
	appmw "edulearn/internal/middleware"
	"edulearn/internal/modelsync"
	"edulearn/internal/oauth"
	"edulearn/internal/openrouter"
	"edulearn/internal/ratelimit"
	"edulearn/internal/router"
	"edulearn/internal/usage"
	"edulearn/internal/worker"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// StrictJSONSerializer 與 echo 預設相同，但拒絕未知欄位
// swagger:ignore
type StrictJSONSerializer struct{}

func (StrictJSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (StrictJSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(i)
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Unmarshal type error: expected=%v, got=%v, field=%v, offset=%v", typeErr.Type, typeErr.Value, typeErr.Field, typeErr.Offset)).SetInternal(err)
	case errors.As(err, &syntaxErr):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Syntax error: offset=%v, error=%v", syntaxErr.Offset, syntaxErr.Error())).SetInternal(err)
	}
	return err
}

var (
	loadConfig      = config.Load
	initLogger      = logger.Init
	newPgxPool      = database.NewPgxPool
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	rollbackAllFn   = database.RollbackAll
	newWorkerPool   = worker.NewPool
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	notifyContext   = signal.NotifyContext
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "edulearn",
		Short:        "EduLearn backend",
		Long:         `EduLearn backend: HTTP API server, database migrations and provider model sync.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "directory containing settings.yml (default: ./configs, /configs)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE:  runServe,
		},
		newMigrateCmd(),
		&cobra.Command{
			Use:   "sync-models",
			Short: "Mirror the provider model catalog once",
			RunE:  runSyncModels,
		},
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := setup()
				if err != nil {
					return err
				}
				if err := runMigrationsFn(cfg.Database.URL); err != nil {
					return fmt.Errorf("Migration 執行失敗: %w", err)
				}
				slog.Info("migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := setup()
				if err != nil {
					return err
				}
				if err := rollbackAllFn(cfg.Database.URL); err != nil {
					return fmt.Errorf("Rollback 執行失敗: %w", err)
				}
				slog.Info("migrations rolled back")
				return nil
			},
		},
	)
	return cmd
}

// setup 讀取設定並初始化 logger；只要求 database.url
func setup() (*config.Config, error) {
	var paths []string
	if configPath != "" {
		paths = append(paths, configPath)
	}
	cfg, err := loadConfig(paths...)
	if err != nil {
		return nil, fmt.Errorf("讀取設定失敗: %w", err)
	}
	if _, err := initLogger(cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, fmt.Errorf("初始化 logger 失敗: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required")
	}
	return cfg, nil
}

func runSyncModels(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	db, err := newPgxPool(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %w", err)
	}
	defer db.Close()

	client := openrouter.New(cfg.OpenRouter.BaseURL, cfg.OpenRouter.AppURL, cfg.OpenRouter.AppTitle, nil)
	l, err := modelsync.NewSyncer(db, client, cfg.OpenRouter.APIKey).Sync(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "synced %d models\n", l.ModelsSynced)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("設定錯誤: %w", err)
	}
	ctx, stop := notifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg)
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := newPgxPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %w", err)
	}
	defer db.Close()

	rdb, err := newRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("Redis 連線失敗: %w", err)
	}
	defer rdb.Close()

	if err := runMigrationsFn(cfg.Database.URL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %w", err)
	}

	wp := newWorkerPool(cfg.Worker.Count)
	defer wp.Stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := openrouter.New(cfg.OpenRouter.BaseURL, cfg.OpenRouter.AppURL, cfg.OpenRouter.AppTitle, nil)
	cat := catalog.NewService(db)
	usageSvc := usage.NewService(db, cfg.Tokens.CacheTTL, cfg.Tokens.CacheSize, nil)
	keys := apikey.NewResolver(cfg.OpenRouter.APIKey, db)
	syncer := modelsync.NewSyncer(db, client, cfg.OpenRouter.APIKey)
	limiter := ratelimit.New(nil)

	providers := oauth.NewRegistry(oauthConfig(cfg.OAuth.Google), oauthConfig(cfg.OAuth.GitHub))

	trusted, err := cfg.Server.TrustedNets()
	if err != nil {
		return err
	}
	e := newEcho(cfg)
	e.IPExtractor = appmw.ClientIP(trusted)
	router.Setup(e, router.Deps{
		DB:            db,
		Cache:         rdb,
		Resources:     cat,
		Events:        cat,
		Usage:         usageSvc,
		Budget:        usageSvc,
		Keys:          keys,
		KeyMode:       keys,
		Validator:     apikey.NewValidator(client),
		Provider:      client,
		OAuth:         providers,
		Limiter:       limiter,
		ChatLimit:     cfg.Chat.RateLimit,
		ChatWindow:    cfg.Chat.RateWindow,
		Metrics:       m,
		Gatherer:      reg,
		Pool:          wp,
		SyncTask:      syncer.Task,
		Cookies:       auth.Cookies{Secure: cfg.Server.SecureCookies, TTL: cfg.Session.TTL},
		StateSecret:   cfg.Session.Secret,
		FrontendURL:   cfg.Server.FrontendURL,
		FallbackModel: cfg.OpenRouter.FallbackModel,
	})

	go sweepLimiter(ctx, limiter, cfg.Chat.RateWindow)
	go worker.Every(ctx, wp, cfg.ModelSync.Interval, syncer.Task)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr, "mode", cfg.Server.Mode)
		errCh <- startServer(e, cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Server.Mode == "debug"
	e.Validator = &CustomValidator{validator: validator.New()}
	e.JSONSerializer = StrictJSONSerializer{}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			lvl := slog.LevelInfo
			if v.Error != nil {
				lvl = slog.LevelError
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), lvl, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))
	return e
}

func oauthConfig(p config.OAuthProviderConfig) oauth.Config {
	return oauth.Config{ClientID: p.ClientID, ClientSecret: p.ClientSecret, RedirectURL: p.RedirectURL}
}

// sweepLimiter 定期清掉過期的限流視窗
func sweepLimiter(ctx context.Context, l *ratelimit.Limiter, window time.Duration) {
	t := time.NewTicker(window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := l.Sweep(window); n > 0 {
				slog.Debug("rate limit windows swept", "removed", n)
			}
		}
	}
}
