package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ConsumeUsage атомарно потребляет одну единицу квоты фичи в окне.
// Проверка лимита и инкремент выполняются одним SQL-выражением: upsert
// с условным инкрементом. Два конкурентных запроса не могут оба пройти
// на последней единице — условие count < limit проверяется базой под
// блокировкой строки, а не приложением до записи. Если лимит исчерпан,
// выражение не возвращает строку и счётчик не растёт дальше лимита.
func (s *Storage) ConsumeUsage(ctx context.Context, userUID, featureKey string, windowStart time.Time, limit int) (int, bool, error) {
	const op = "storage.ConsumeUsage"
	select {
	case <-ctx.Done():
		return 0, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO usage_counters (user_uid, feature_key, window_start, count)
			  VALUES ($1, $2, $3, 1)
			  ON CONFLICT (user_uid, feature_key, window_start) DO UPDATE
			  SET count = usage_counters.count + 1
			  WHERE usage_counters.count < $4
			  RETURNING count`
	var count int
	err := s.DB.QueryRowContext(ctx, query, userUID, featureKey, windowStart, limit).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		// строка есть и count >= limit: потребление отклонено
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return count, true, nil
}

// ReadUsage возвращает текущее значение счётчика в окне.
// Отсутствие строки означает ноль использований.
func (s *Storage) ReadUsage(ctx context.Context, userUID, featureKey string, windowStart time.Time) (int, error) {
	const op = "storage.ReadUsage"

	query := `SELECT count
			  FROM usage_counters
			  WHERE user_uid = $1 AND feature_key = $2 AND window_start = $3`
	var count int
	err := s.DB.QueryRowContext(ctx, query, userUID, featureKey, windowStart).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// DeleteClosedUsageWindows удаляет счётчики закрытых окон.
// Плановая уборка: корректность квот от неё не зависит, новое окно
// всегда начинается свежей строкой.
func (s *Storage) DeleteClosedUsageWindows(ctx context.Context, before time.Time) (int64, error) {
	const op = "storage.DeleteClosedUsageWindows"

	query := `DELETE FROM usage_counters WHERE window_start < $1`
	result, err := s.DB.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}
