// Package quota отслеживает и ограничивает число использований фичи
// внутри текущего окна сброса. Инкремент и проверка лимита — одна
// атомарная операция хранилища: два конкурентных запроса не могут оба
// пройти на последней единице квоты. Сброс квоты неявный: новое окно
// начинается свежей строкой счётчика, никакого cron-обнуления.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/coaching-platform/internal/lib/quotawindow"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/metrics"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// TierResolver определяет вычисление эффективного тарифа пользователя.
type TierResolver interface {
	Resolve(ctx context.Context, userUID string) (tierconfig.Tier, error)
}

// UsageRepository определяет методы работы со счётчиками использования.
type UsageRepository interface {
	// ConsumeUsage атомарно инкрементирует счётчик, если лимит не исчерпан.
	ConsumeUsage(ctx context.Context, userUID, featureKey string, windowStart time.Time, limit int) (int, bool, error)
	// ReadUsage возвращает текущее значение счётчика в окне.
	ReadUsage(ctx context.Context, userUID, featureKey string, windowStart time.Time) (int, error)
}

// Enforcer реализует учёт квот использования фич.
type Enforcer struct {
	tiers TierResolver
	repo  UsageRepository
	cfg   *tierconfig.Config
	log   *slog.Logger
	now   func() time.Time
}

// New создает новый Enforcer.
func New(tiers TierResolver, repo UsageRepository, cfg *tierconfig.Config, log *slog.Logger) *Enforcer {
	return &Enforcer{
		tiers: tiers,
		repo:  repo,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// TryConsume пытается потребить одну единицу квоты фичи.
// Ошибка хранилища или резолвера тарифа — отказ (fail closed): платная
// фича никогда не выдаётся без подтверждённой атомарной записи.
func (e *Enforcer) TryConsume(ctx context.Context, userUID string, feature tierconfig.Feature) (models.QuotaDecision, error) {
	const op = "quota.TryConsume"

	tier, err := e.tiers.Resolve(ctx, userUID)
	if err != nil {
		return models.QuotaDecision{}, fmt.Errorf("%s: %w", op, err)
	}

	q, limited := e.cfg.QuotaFor(tier, feature)
	if !limited {
		// безлимит для тарифа: счётчики не пишем вовсе
		return models.QuotaDecision{Allowed: true, Unlimited: true}, nil
	}
	windowStart, resetAt := quotawindow.Bounds(e.now(), q.Period)
	if q.Limit <= 0 {
		return models.QuotaDecision{Allowed: false, Limit: q.Limit, ResetAt: resetAt}, nil
	}

	used, allowed, err := e.repo.ConsumeUsage(ctx, userUID, string(feature), windowStart, q.Limit)
	if err != nil {
		e.log.Error("failed to consume usage",
			slog.String("user_uid", userUID),
			slog.String("feature", string(feature)),
			slog.Time("window_start", windowStart),
			sl.Err(err))
		return models.QuotaDecision{}, fmt.Errorf("%s: %w", op, err)
	}
	if !allowed {
		metrics.QuotaRejections.WithLabelValues(string(feature)).Inc()
		used, err = e.repo.ReadUsage(ctx, userUID, string(feature), windowStart)
		if err != nil {
			// диагностика, не решение: отказ уже принят атомарным шагом
			e.log.Warn("failed to read usage after rejection", sl.Err(err))
			used = q.Limit
		}
		return models.QuotaDecision{Allowed: false, Used: used, Limit: q.Limit, ResetAt: resetAt}, nil
	}
	return models.QuotaDecision{Allowed: true, Used: used, Limit: q.Limit, ResetAt: resetAt}, nil
}

// Status возвращает состояние квоты без потребления — для индикаторов
// остатка в UI.
func (e *Enforcer) Status(ctx context.Context, userUID string, feature tierconfig.Feature) (models.QuotaDecision, error) {
	const op = "quota.Status"

	tier, err := e.tiers.Resolve(ctx, userUID)
	if err != nil {
		return models.QuotaDecision{}, fmt.Errorf("%s: %w", op, err)
	}

	q, limited := e.cfg.QuotaFor(tier, feature)
	if !limited {
		return models.QuotaDecision{Allowed: true, Unlimited: true}, nil
	}
	windowStart, resetAt := quotawindow.Bounds(e.now(), q.Period)

	used, err := e.repo.ReadUsage(ctx, userUID, string(feature), windowStart)
	if err != nil {
		return models.QuotaDecision{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.QuotaDecision{
		Allowed: used < q.Limit,
		Used:    used,
		Limit:   q.Limit,
		ResetAt: resetAt,
	}, nil
}
