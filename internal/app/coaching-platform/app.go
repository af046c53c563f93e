// Package coachingplatform собирает основной HTTP-сервис движка
// entitlement и квот: хранилище, кеш, сервисы и маршруты.
package coachingplatform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/coaching-platform/internal/cache"
	"github.com/magabrotheeeer/coaching-platform/internal/config"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/coaching-platform/internal/migrations"
	authservice "github.com/magabrotheeeer/coaching-platform/internal/services/auth"
	entitlementservice "github.com/magabrotheeeer/coaching-platform/internal/services/entitlement"
	lifecycleservice "github.com/magabrotheeeer/coaching-platform/internal/services/lifecycle"
	prorationservice "github.com/magabrotheeeer/coaching-platform/internal/services/proration"
	quotaservice "github.com/magabrotheeeer/coaching-platform/internal/services/quota"
	ratelimitservice "github.com/magabrotheeeer/coaching-platform/internal/services/ratelimit"
	tierservice "github.com/magabrotheeeer/coaching-platform/internal/services/tier"
	"github.com/magabrotheeeer/coaching-platform/internal/storage"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// App основное приложение движка.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
}

// New создает и связывает все компоненты основного сервиса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	tiercfg := tierconfig.Default()
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.New(db, jwtMaker)
	tierResolver := tierservice.New(db, cacheRedis, tiercfg, logger)
	entitlementChecker := entitlementservice.New(tiercfg)
	quotaEnforcer := quotaservice.New(tierResolver, db, tiercfg, logger)
	prorationCalculator := prorationservice.New(tiercfg)
	lifecycleManager := lifecycleservice.New(db, tierResolver, tiercfg, logger)
	rateLimiter := ratelimitservice.New(cacheRedis, cfg.RateLimits, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, tiercfg, &Services{
		Auth:        authService,
		Tiers:       tierResolver,
		Entitlement: entitlementChecker,
		Quota:       quotaEnforcer,
		Proration:   prorationCalculator,
		Lifecycle:   lifecycleManager,
		RateLimiter: rateLimiter,
		Storage:     db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
