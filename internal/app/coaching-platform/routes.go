// Package coachingplatform предоставляет маршруты для основного приложения.
package coachingplatform

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/coaching-platform/internal/config"
	"github.com/magabrotheeeer/coaching-platform/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/coaching-platform/internal/http/handlers/auth/register"
	featureconsume "github.com/magabrotheeeer/coaching-platform/internal/http/handlers/feature/consume"
	"github.com/magabrotheeeer/coaching-platform/internal/http/handlers/feature/quotastatus"
	"github.com/magabrotheeeer/coaching-platform/internal/http/handlers/health"
	ordercreate "github.com/magabrotheeeer/coaching-platform/internal/http/handlers/order/create"
	"github.com/magabrotheeeer/coaching-platform/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/coaching-platform/internal/http/handlers/subscription/cancel"
	substatus "github.com/magabrotheeeer/coaching-platform/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/coaching-platform/internal/http/handlers/subscription/upgradequote"
	"github.com/magabrotheeeer/coaching-platform/internal/http/middlewarectx"
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

// Services собирает сервисы, нужные маршрутам.
type Services struct {
	Auth        *authservice.Service
	Tiers       *tierservice.Resolver
	Entitlement *entitlementservice.Checker
	Quota       *quotaservice.Enforcer
	Proration   *prorationservice.Calculator
	Lifecycle   *lifecycleservice.Manager
	RateLimiter *ratelimitservice.Service
	Storage     *storage.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, tiercfg *tierconfig.Config, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.BurstGuardMiddleware(logger),
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки: лимит по IP клиента
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.RateLimiter, ratelimitservice.ClassAuth))
			r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(logger, s.RateLimiter, ratelimitservice.ClassRead))
				r.Get("/subscriptions/me", substatus.New(logger, s.Tiers, s.Storage).ServeHTTP)
				r.Delete("/subscriptions/me", cancel.New(logger, s.Lifecycle).ServeHTTP)
				r.Post("/subscriptions/me/upgrade-quote", upgradequote.New(logger, s.Storage, s.Proration).ServeHTTP)
				r.Post("/orders", ordercreate.New(logger, s.Lifecycle).ServeHTTP)
				r.Get("/features/{feature}/quota", quotastatus.New(logger, s.Tiers, s.Entitlement, s.Quota, tiercfg).ServeHTTP)
			})

			// Дорогие AI-вызовы: отдельный класс лимита, fail closed
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(logger, s.RateLimiter, ratelimitservice.ClassGeneration))
				r.Post("/features/{feature}/consume", featureconsume.New(logger, s.Tiers, s.Entitlement, s.Quota, tiercfg).ServeHTTP)
			})
		})

		// Webhook endpoint (без аутентификации, подпись по секрету)
		r.Post("/payments/webhook", webhook.New(logger, s.Lifecycle, cfg.WebhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
