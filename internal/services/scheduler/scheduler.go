// Package scheduler содержит фоновые задачи: рассылку уведомлений об
// истекающих подписках и уборку устаревших строк. Корректность доступа
// от этих задач не зависит — истечение подписки проверяется лениво при
// каждом вычислении тарифа, а счётчики закрытых окон просто перестают
// читаться. Задачи лишь поддерживают порядок в данных.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/coaching-platform/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
)

// Repository определяет методы хранилища для фоновых задач.
type Repository interface {
	FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.ExpiryInfo, error)
	ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error)
	DeleteClosedUsageWindows(ctx context.Context, before time.Time) (int64, error)
}

// Service реализует фоновые задачи планировщика.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// NotifyExpiringSubscriptions публикует уведомления о подписках,
// истекающих завтра. Запускается сразу и далее каждые 12 часов.
func (s *Service) NotifyExpiringSubscriptions(ctx context.Context, channel *amqp.Channel) {
	s.runNotifyExpiringSubscriptions(ctx, channel)

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runNotifyExpiringSubscriptions(ctx, channel)
		}
	}
}

func (s *Service) runNotifyExpiringSubscriptions(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to find expiring subscriptions due tomorrow")
	expiring, err := s.repo.FindSubscriptionsExpiringTomorrow(ctx)
	if err != nil {
		s.log.Error("failed to find expiring subscriptions", sl.Err(err))
		return
	}
	if len(expiring) == 0 {
		s.log.Info("no expiring subscriptions found")
		return
	}
	s.log.Info("found expiring subscriptions", "count", len(expiring))
	for _, info := range expiring {
		err = rabbitmq.PublishMessage(channel, "notifications", "expiring", info)
		if err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}

// RunMaintenance помечает истекшие подписки и удаляет счётчики давно
// закрытых окон. Запускается сразу и далее каждые 24 часа.
func (s *Service) RunMaintenance(ctx context.Context) {
	s.runMaintenance(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runMaintenance(ctx)
		}
	}
}

func (s *Service) runMaintenance(ctx context.Context) {
	now := time.Now().UTC()

	expired, err := s.repo.ExpireLapsedSubscriptions(ctx, now)
	if err != nil {
		s.log.Error("failed to expire lapsed subscriptions", sl.Err(err))
	} else if expired > 0 {
		s.log.Info("marked lapsed subscriptions as expired", "count", expired)
	}

	// окна старше самого длинного периода квоты гарантированно закрыты
	cutoff := now.AddDate(0, -2, 0)
	deleted, err := s.repo.DeleteClosedUsageWindows(ctx, cutoff)
	if err != nil {
		s.log.Error("failed to delete closed usage windows", sl.Err(err))
	} else if deleted > 0 {
		s.log.Info("deleted closed usage counter windows", "count", deleted)
	}
}
