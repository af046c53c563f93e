// Package tier вычисляет эффективный тариф пользователя из записей в
// программы и платной подписки. Приоритет: vip > transformatie > kickstart >
// платная подписка (premium > pro > core) > free. Побеждает самая
// приоритетная активная запись, тарифы не складываются.
package tier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/storage"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// Repository определяет методы чтения записей и подписок из хранилища.
type Repository interface {
	// ListActiveEnrollments возвращает активные записи пользователя в программы.
	ListActiveEnrollments(ctx context.Context, userUID string) ([]*models.Enrollment, error)
	// GetSubscriptionByUserUID возвращает строку подписки пользователя.
	GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// cacheTTL короткий: тариф меняется событиями биллинга, которые сами
// инвалидируют ключ, TTL страхует только от пропущенной инвалидации.
const cacheTTL = 5 * time.Minute

// Resolver реализует вычисление эффективного тарифа с кешированием.
type Resolver struct {
	repo  Repository
	cache Cache
	cfg   *tierconfig.Config
	log   *slog.Logger
	now   func() time.Time
}

// New создает новый Resolver.
func New(repo Repository, cache Cache, cfg *tierconfig.Config, log *slog.Logger) *Resolver {
	return &Resolver{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Resolve возвращает эффективный тариф пользователя.
// Ошибка хранилища не маскируется под free: вызывающая сторона должна
// отказать в доступе, а не выдать бесплатный тариф молча.
func (r *Resolver) Resolve(ctx context.Context, userUID string) (tierconfig.Tier, error) {
	const op = "tier.Resolve"

	cacheKey := "tier:" + userUID
	var cached tierconfig.Tier
	found, err := r.cache.Get(cacheKey, &cached)
	if err != nil {
		r.log.Warn("failed to read tier cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && err == nil {
		return cached, nil
	}

	resolved, err := r.resolve(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := r.cache.Set(cacheKey, resolved, cacheTTL); err != nil {
		r.log.Warn("failed to cache tier", slog.String("key", cacheKey), sl.Err(err))
	}
	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, userUID string) (tierconfig.Tier, error) {
	best := tierconfig.TierFree

	enrollments, err := r.repo.ListActiveEnrollments(ctx, userUID)
	if err != nil {
		return "", err
	}
	for _, e := range enrollments {
		t, ok := r.cfg.ProgramTier(e.ProgramSlug)
		if ok && r.cfg.Rank(t) > r.cfg.Rank(best) {
			best = t
		}
	}

	sub, err := r.repo.GetSubscriptionByUserUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrSubscriptionNotFound) {
			return best, nil
		}
		return "", err
	}
	if r.subscriptionGrantsAccess(sub) && r.cfg.Rank(sub.PackageType) > r.cfg.Rank(best) {
		best = sub.PackageType
	}
	return best, nil
}

// subscriptionGrantsAccess проверяет и статус, и end_date: подписка со
// статусом active, но end_date в прошлом, доступа не даёт. Ленивое
// истечение — фоновая задача смены статуса может отставать или
// отсутствовать, корректность от неё не зависит.
func (r *Resolver) subscriptionGrantsAccess(sub *models.Subscription) bool {
	if sub.Status != models.SubscriptionStatusActive {
		return false
	}
	if sub.EndDate != nil && !sub.EndDate.After(r.now()) {
		return false
	}
	return r.cfg.KnownTier(sub.PackageType)
}

// Invalidate сбрасывает закешированный тариф пользователя.
// Вызывается жизненным циклом подписки после активации и отмены.
func (r *Resolver) Invalidate(userUID string) error {
	return r.cache.Invalidate("tier:" + userUID)
}
