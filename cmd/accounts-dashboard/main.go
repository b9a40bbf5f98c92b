// Command accounts-dashboard serves the account management dashboard: the
// HTML pages, the user search API, and the static assets, guarded by staff
// tokens.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	dashcomponent "github.com/goliatone/go-accounts/components/dashboard"
	"github.com/goliatone/go-accounts/components/users"
	"github.com/goliatone/go-accounts/internal/auth"
	"github.com/goliatone/go-accounts/internal/store"
	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/nav"
	dashrender "github.com/goliatone/go-accounts/pkg/renderers/dashboard"
	"github.com/goliatone/go-accounts/pkg/settings"
)

type config struct {
	Port         string
	BasePath     string
	DatabaseURL  string
	SettingsPath string
	JWTSecret    string
	Insecure     bool
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig(logger)

	appSettings, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		logger.Fatal("load settings", zap.Error(err))
	}

	st, cleanup, err := openStore(cfg, appSettings, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer cleanup()

	routes := nav.DefaultRoutes(cfg.BasePath)
	renderer, err := dashrender.New(
		dashrender.WithSettings(appSettings),
		dashrender.WithRoutes(routes),
		dashrender.WithAssetBase(cfg.BasePath+"/assets"),
	)
	if err != nil {
		logger.Fatal("build renderer", zap.Error(err))
	}

	authService := auth.NewService(auth.DefaultConfig(cfg.JWTSecret))
	authMiddleware := auth.NewMiddleware(authService)

	var guard dashcomponent.Guard
	if !cfg.Insecure {
		guard = authMiddleware.RequireStaff
	} else {
		logger.Warn("running without authentication (-insecure)")
	}

	component, err := dashcomponent.New(
		dashcomponent.WithStore(st),
		dashcomponent.WithRenderer(renderer),
		dashcomponent.WithSettings(appSettings),
		dashcomponent.WithRoutes(routes),
		dashcomponent.WithLogger(logger),
		dashcomponent.WithGuard(guard),
	)
	if err != nil {
		logger.Fatal("build dashboard component", zap.Error(err))
	}

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(requestLogger(logger))

	router.Get("/health", healthHandler(st))

	router.Handle(cfg.BasePath+"/assets/*", http.StripPrefix(
		cfg.BasePath+"/assets/",
		http.FileServer(http.FS(dashrender.AssetsFS())),
	))

	router.Group(func(r chi.Router) {
		if guard != nil {
			r.Use(guard)
		}
		if _, err := users.RegisterRoutes(r, cfg.BasePath, users.WithDirectory(st)); err != nil {
			logger.Fatal("register user search", zap.Error(err))
		}
	})

	if err := component.RegisterRoutes(router); err != nil {
		logger.Fatal("register dashboard routes", zap.Error(err))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("base_path", cfg.BasePath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func loadConfig(logger *zap.Logger) config {
	cfg := config{
		Port:         envOr("PORT", "8080"),
		BasePath:     envOr("BASE_PATH", "/dashboard"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SettingsPath: os.Getenv("ACCOUNTS_SETTINGS"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		Insecure:     os.Getenv("INSECURE") == "true",
	}
	if cfg.JWTSecret == "" && !cfg.Insecure {
		cfg.JWTSecret = "dev-secret-change-in-production"
		logger.Warn("using default JWT secret, set JWT_SECRET in production")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// openStore connects to Postgres when DATABASE_URL is set, otherwise falls
// back to a seeded in-memory store for local development.
func openStore(cfg config, appSettings settings.Settings, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pg, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return pg, pg.Close, nil
	}

	logger.Info("using in-memory store, set DATABASE_URL for persistence")
	mem := store.NewMemory()
	seedMemory(mem, appSettings, logger)
	return mem, func() {}, nil
}

// seedMemory creates the configured source accounts and a couple of
// directory users so the dashboard is usable out of the box.
func seedMemory(mem *store.Memory, appSettings settings.Settings, logger *zap.Logger) {
	ctx := context.Background()
	for _, code := range appSettings.SourceCodes {
		acc := &account.Account{
			Name:   code,
			Code:   code,
			Status: account.StatusOpen,
		}
		if err := mem.Create(ctx, acc); err != nil {
			logger.Warn("seed source account", zap.String("code", code), zap.Error(err))
		}
	}
	mem.AddUser(account.User{ID: uuid.New(), Name: "Demo Staff", Email: "staff@example.com"})
	mem.AddUser(account.User{ID: uuid.New(), Name: "Demo Customer", Email: "customer@example.com"})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func healthHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if _, err := st.List(ctx, store.AccountFilter{Code: "__health__"}); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"unhealthy"}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	}
}
