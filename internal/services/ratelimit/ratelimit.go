// Package ratelimit реализует грубую защиту от злоупотреблений:
// счётчик с фиксированным окном поверх redis, ключ — (идентификатор,
// класс конечной точки, начало окна). Фиксированное окно выбрано за
// O(1) стоимость; всплеск до 2x лимита на границе окон — принятый
// компромисс, это защита от абьюза, а не строгий контроль.
//
// Бакеты эфемерны и истекают по TTL, терять их при рестарте безопасно.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/coaching-platform/internal/config"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/metrics"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
)

// Class класс конечной точки со своим лимитом и политикой отказа.
type Class string

const (
	// ClassAuth — логин/регистрация.
	ClassAuth Class = "auth"
	// ClassRead — дешёвые читающие точки.
	ClassRead Class = "read"
	// ClassGeneration — дорогие AI-вызовы.
	ClassGeneration Class = "generation"
)

// Policy лимит одного класса.
// FailOpen определяет поведение при недоступности redis: дешёвые точки
// пропускаем, дорогие — нет. Недоступность стора никогда не должна
// молча раздавать неограниченные траты на платный API.
type Policy struct {
	Limit    int
	Window   time.Duration
	FailOpen bool
}

// Buckets абстракция над атомарным инкрементом окна в redis.
type Buckets interface {
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Service реализует проверку лимитов по классам конечных точек.
type Service struct {
	buckets  Buckets
	policies map[Class]Policy
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый Service с лимитами из конфига.
func New(buckets Buckets, limits config.RateLimits, log *slog.Logger) *Service {
	return &Service{
		buckets: buckets,
		policies: map[Class]Policy{
			ClassAuth:       {Limit: limits.AuthLimit, Window: limits.AuthWindow, FailOpen: true},
			ClassRead:       {Limit: limits.ReadLimit, Window: limits.ReadWindow, FailOpen: true},
			ClassGeneration: {Limit: limits.GenerationLimit, Window: limits.GenerationWindow, FailOpen: false},
		},
		log: log,
		now: time.Now,
	}
}

// Allow атомарно учитывает запрос и сообщает, пропущен ли он.
// При отказе ResetAt указывает конец текущего окна — для сообщения
// "попробуйте после".
func (s *Service) Allow(ctx context.Context, identifier string, class Class) models.RateLimitDecision {
	policy, ok := s.policies[class]
	if !ok {
		s.log.Warn("no rate limit policy for class", slog.String("class", string(class)))
		return models.RateLimitDecision{Allowed: true}
	}

	now := s.now()
	windowStart := now.Truncate(policy.Window)
	resetAt := windowStart.Add(policy.Window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", class, identifier, windowStart.Unix())

	// TTL вдвое больше окна: бакет доживает до конца следующего окна
	// и не требует отдельной уборки
	count, err := s.buckets.IncrWindow(ctx, key, 2*policy.Window)
	if err != nil {
		if policy.FailOpen {
			s.log.Warn("rate limit store unavailable, failing open",
				slog.String("class", string(class)), sl.Err(err))
			return models.RateLimitDecision{Allowed: true, ResetAt: resetAt}
		}
		s.log.Error("rate limit store unavailable, failing closed",
			slog.String("class", string(class)),
			slog.String("identifier", identifier),
			sl.Err(err))
		metrics.RateLimitRejections.WithLabelValues(string(class)).Inc()
		return models.RateLimitDecision{Allowed: false, ResetAt: resetAt}
	}

	if count > int64(policy.Limit) {
		metrics.RateLimitRejections.WithLabelValues(string(class)).Inc()
		return models.RateLimitDecision{Allowed: false, ResetAt: resetAt}
	}
	return models.RateLimitDecision{
		Allowed:   true,
		Remaining: policy.Limit - int(count),
		ResetAt:   resetAt,
	}
}
