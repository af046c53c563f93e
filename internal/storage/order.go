package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/coaching-platform/internal/models"
)

// CreateOrder вставляет новый заказ со статусом pending.
func (s *Storage) CreateOrder(ctx context.Context, order models.Order) (string, error) {
	const op = "storage.CreateOrder"

	query := `INSERT INTO orders (id, user_uid, package_type, billing_period, amount_cents, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query,
		order.ID, order.UserUID, order.PackageType, order.BillingPeriod,
		order.AmountCents, models.OrderStatusPending).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetOrder возвращает заказ по ID.
func (s *Storage) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	const op = "storage.GetOrder"

	query := `SELECT id, user_uid, package_type, billing_period, amount_cents, status, linked_to_user, created_at
			  FROM orders
			  WHERE id = $1`
	var order models.Order
	err := s.DB.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID, &order.UserUID, &order.PackageType, &order.BillingPeriod,
		&order.AmountCents, &order.Status, &order.LinkedToUser, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &order, nil
}

// UpdateOrderStatus переводит заказ из pending в терминальный статус.
// Переходы только вперёд: повтор того же статуса — no-op, попытка сменить
// терминальный статус возвращает ErrOrderFinal.
func (s *Storage) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	const op = "storage.UpdateOrderStatus"

	query := `UPDATE orders
			  SET status = $2
			  WHERE id = $1 AND status = $3`
	result, err := s.DB.ExecContext(ctx, query, orderID, status, models.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected > 0 {
		return nil
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if order.Status == status {
		// повторная доставка колбэка с тем же итогом
		return nil
	}
	return fmt.Errorf("%s: %w", op, ErrOrderFinal)
}

// ActivateSubscriptionFromOrder применяет оплаченный заказ к подписке
// пользователя в одной транзакции: проверка статуса заказа, upsert строки
// подписки и отметка linked_to_user выполняются атомарно. Повторный вызов
// для того же заказа возвращает уже созданную подписку (created=false) —
// колбэки провайдера доставляются более одного раза.
func (s *Storage) ActivateSubscriptionFromOrder(ctx context.Context, orderID string, startDate, endDate time.Time) (*models.Subscription, bool, error) {
	const op = "storage.ActivateSubscriptionFromOrder"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var order models.Order
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_uid, package_type, billing_period, status, linked_to_user
		 FROM orders
		 WHERE id = $1
		 FOR UPDATE`, orderID).Scan(
		&order.ID, &order.UserUID, &order.PackageType, &order.BillingPeriod,
		&order.Status, &order.LinkedToUser)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if order.Status != models.OrderStatusCompleted && order.Status != models.OrderStatusPaid {
		return nil, false, fmt.Errorf("%s: %w", op, ErrOrderNotPaid)
	}

	var existing models.Subscription
	var existingEnd sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_uid, package_type, billing_period, status, start_date, end_date, order_id
		 FROM subscriptions
		 WHERE order_id = $1`, orderID).Scan(
		&existing.ID, &existing.UserUID, &existing.PackageType, &existing.BillingPeriod,
		&existing.Status, &existing.StartDate, &existingEnd, &existing.OrderID)
	if err == nil {
		if existingEnd.Valid {
			existing.EndDate = &existingEnd.Time
		}
		return &existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var sub models.Subscription
	err = tx.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_uid, package_type, billing_period, status, start_date, end_date, order_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_uid) DO UPDATE
		 SET package_type = EXCLUDED.package_type,
		     billing_period = EXCLUDED.billing_period,
		     status = EXCLUDED.status,
		     start_date = EXCLUDED.start_date,
		     end_date = EXCLUDED.end_date,
		     order_id = EXCLUDED.order_id
		 RETURNING id`,
		order.UserUID, order.PackageType, order.BillingPeriod,
		models.SubscriptionStatusActive, startDate, endDate, orderID).Scan(&sub.ID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE orders SET linked_to_user = true WHERE id = $1`, orderID); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	sub.UserUID = order.UserUID
	sub.PackageType = order.PackageType
	sub.BillingPeriod = order.BillingPeriod
	sub.Status = models.SubscriptionStatusActive
	sub.StartDate = startDate
	sub.EndDate = &endDate
	sub.OrderID = orderID
	return &sub, true, nil
}
