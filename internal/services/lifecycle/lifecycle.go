// Package lifecycle применяет события заказов и оплат к состоянию
// подписки. Активация идемпотентна: колбэки платёжного провайдера
// доставляются более одного раза, повтор для того же заказа — no-op.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/metrics"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/storage"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// Ошибки жизненного цикла подписки.
var (
	// ErrOrderNotPaid активация заказа, который не оплачен. Если такое
	// пришло из легитимного вебхука — это ошибка интеграции.
	ErrOrderNotPaid = errors.New("order is not paid")
	// ErrOrderNotFound заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrTierNotPurchasable тариф не покупается напрямую (программный или free).
	ErrTierNotPurchasable = errors.New("tier is not purchasable")
	// ErrUnknownOrderStatus вебхук с неизвестным статусом.
	ErrUnknownOrderStatus = errors.New("unknown order status")
)

// Repository определяет методы хранилища для заказов и подписок.
type Repository interface {
	CreateOrder(ctx context.Context, order models.Order) (string, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	// ActivateSubscriptionFromOrder применяет оплаченный заказ к подписке
	// в одной транзакции; created=false означает повтор для того же заказа.
	ActivateSubscriptionFromOrder(ctx context.Context, orderID string, startDate, endDate time.Time) (*models.Subscription, bool, error)
	CancelSubscription(ctx context.Context, userUID string) (int, error)
	GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error)
}

// TierCache инвалидация закешированного эффективного тарифа.
type TierCache interface {
	Invalidate(userUID string) error
}

// Manager реализует жизненный цикл заказов и подписок.
type Manager struct {
	repo  Repository
	tiers TierCache
	cfg   *tierconfig.Config
	log   *slog.Logger
	now   func() time.Time
}

// New создает новый Manager.
func New(repo Repository, tiers TierCache, cfg *tierconfig.Config, log *slog.Logger) *Manager {
	return &Manager{
		repo:  repo,
		tiers: tiers,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// CreateOrder создает pending-заказ на покупку тарифа. Сумма берётся из
// таблицы тарифов, дальше заказ уходит внешнему платёжному провайдеру.
func (m *Manager) CreateOrder(ctx context.Context, userUID string, req models.DummyOrder) (*models.Order, error) {
	const op = "lifecycle.CreateOrder"

	packageType := tierconfig.Tier(req.PackageType)
	billingPeriod := tierconfig.BillingPeriod(req.BillingPeriod)
	amount, ok := m.cfg.Price(packageType, billingPeriod)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrTierNotPurchasable)
	}

	order := models.Order{
		ID:            uuid.NewString(),
		UserUID:       userUID,
		PackageType:   packageType,
		BillingPeriod: billingPeriod,
		AmountCents:   amount,
		Status:        models.OrderStatusPending,
		CreatedAt:     m.now().UTC(),
	}
	if _, err := m.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.log.Info("created order",
		slog.String("order_id", order.ID),
		slog.String("package_type", string(order.PackageType)),
		slog.Int("amount_cents", order.AmountCents))
	return &order, nil
}

// Activate применяет оплаченный заказ к подписке пользователя.
// Повторный вызов для того же заказа возвращает существующую подписку
// без изменений.
func (m *Manager) Activate(ctx context.Context, orderID string) (*models.Subscription, error) {
	const op = "lifecycle.Activate"

	order, err := m.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.Status != models.OrderStatusCompleted && order.Status != models.OrderStatusPaid {
		m.log.Error("activation attempted for unpaid order",
			slog.String("order_id", orderID),
			slog.String("status", order.Status))
		return nil, fmt.Errorf("%s: %w", op, ErrOrderNotPaid)
	}

	startDate := m.now().UTC()
	endDate := addBillingPeriod(startDate, order.BillingPeriod)

	sub, created, err := m.repo.ActivateSubscriptionFromOrder(ctx, orderID, startDate, endDate)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotPaid) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotPaid)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		m.log.Info("activation replay ignored", slog.String("order_id", orderID))
		return sub, nil
	}

	metrics.SubscriptionActivations.WithLabelValues(string(sub.PackageType)).Inc()
	if err := m.tiers.Invalidate(sub.UserUID); err != nil {
		m.log.Warn("failed to invalidate tier cache", sl.Err(err))
	}
	m.log.Info("activated subscription",
		slog.String("order_id", orderID),
		slog.String("user_uid", sub.UserUID),
		slog.String("package_type", string(sub.PackageType)))
	return sub, nil
}

// HandleWebhook применяет итог оплаты из колбэка провайдера: переводит
// заказ в терминальный статус и при успехе активирует подписку.
func (m *Manager) HandleWebhook(ctx context.Context, req models.DummyWebhook) (*models.Subscription, error) {
	const op = "lifecycle.HandleWebhook"

	switch req.Status {
	case models.OrderStatusCompleted, models.OrderStatusPaid:
		if err := m.repo.UpdateOrderStatus(ctx, req.OrderID, models.OrderStatusCompleted); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return m.Activate(ctx, req.OrderID)
	case models.OrderStatusFailed:
		if err := m.repo.UpdateOrderStatus(ctx, req.OrderID, models.OrderStatusFailed); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m.log.Info("order marked as failed", slog.String("order_id", req.OrderID))
		return nil, nil
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnknownOrderStatus, req.Status)
	}
}

// Cancel отменяет активную подписку пользователя. Строка сохраняется
// со статусом cancelled.
func (m *Manager) Cancel(ctx context.Context, userUID string) (int, error) {
	const op = "lifecycle.Cancel"

	count, err := m.repo.CancelSubscription(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		if err := m.tiers.Invalidate(userUID); err != nil {
			m.log.Warn("failed to invalidate tier cache", sl.Err(err))
		}
	}
	return count, nil
}

func addBillingPeriod(start time.Time, bp tierconfig.BillingPeriod) time.Time {
	if bp == tierconfig.BillingYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
