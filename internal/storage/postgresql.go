// Package storage реализует хранилище данных на основе PostgreSQL
// для движка entitlement/квот: пользователи, подписки, записи в программы,
// заказы и счётчики использования. Всё взаимное исключение конкурентных
// запросов отдано атомарным операциям базы — в приложении нет блокировок.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки уровня хранилища.
var (
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubscriptionNotFound у пользователя нет строки подписки.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrOrderNotFound заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotPaid заказ не в статусе completed/paid.
	ErrOrderNotPaid = errors.New("order is not paid")
	// ErrOrderFinal заказ уже в терминальном статусе, переход назад запрещён.
	ErrOrderFinal = errors.New("order status is final")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'usage_counters'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table usage_counters missing or query error: %w", err)
	}
	return nil
}
