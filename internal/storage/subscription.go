package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/coaching-platform/internal/models"
)

// GetSubscriptionByUserUID возвращает строку подписки пользователя.
// Статус и end_date интерпретирует вызывающая сторона: активная по статусу
// подписка с end_date в прошлом эффективно считается free.
func (s *Storage) GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByUserUID"

	query := `SELECT id, user_uid, package_type, billing_period, status, start_date, end_date, order_id
			  FROM subscriptions
			  WHERE user_uid = $1`
	var sub models.Subscription
	var endDate sql.NullTime
	var orderID sql.NullString
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&sub.ID, &sub.UserUID, &sub.PackageType, &sub.BillingPeriod,
		&sub.Status, &sub.StartDate, &endDate, &orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if endDate.Valid {
		sub.EndDate = &endDate.Time
	}
	sub.OrderID = orderID.String
	return &sub, nil
}

// CancelSubscription переводит активную подписку пользователя в cancelled.
// Строка не удаляется: история нужна поддержке и биллингу.
func (s *Storage) CancelSubscription(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CancelSubscription"

	query := `UPDATE subscriptions
			  SET status = $2
			  WHERE user_uid = $1 AND status = $3`
	result, err := s.DB.ExecContext(ctx, query, userUID,
		models.SubscriptionStatusCancelled, models.SubscriptionStatusActive)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindSubscriptionsExpiringTomorrow возвращает данные для уведомлений
// о подписках, истекающих завтра.
func (s *Storage) FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.ExpiryInfo, error) {
	const op = "storage.FindSubscriptionsExpiringTomorrow"

	query := `SELECT u.email, u.username, sub.package_type, sub.end_date
			  FROM subscriptions sub
			  JOIN users u ON u.uid = sub.user_uid
			  WHERE sub.status = $1
			    AND sub.end_date IS NOT NULL
			    AND sub.end_date::date = (now() + interval '1 day')::date`
	rows, err := s.DB.QueryContext(ctx, query, models.SubscriptionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var infos []*models.ExpiryInfo
	for rows.Next() {
		var info models.ExpiryInfo
		if err := rows.Scan(&info.Email, &info.Username, &info.PackageType, &info.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		infos = append(infos, &info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return infos, nil
}

// ExpireLapsedSubscriptions помечает просроченные подписки как expired.
// Гигиена отчётности: ни один путь проверки доступа не полагается на этот
// статус, ленивое истечение по end_date работает и без этой задачи.
func (s *Storage) ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.ExpireLapsedSubscriptions"

	query := `UPDATE subscriptions
			  SET status = $1
			  WHERE status = $2 AND end_date IS NOT NULL AND end_date < $3`
	result, err := s.DB.ExecContext(ctx, query,
		models.SubscriptionStatusExpired, models.SubscriptionStatusActive, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}
