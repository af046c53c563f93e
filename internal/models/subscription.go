package models

import (
	"time"

	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// Статусы подписки. Строка не удаляется при отмене — статус
// сохраняет историю для поддержки и биллинга.
const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription представляет платную подписку пользователя.
// У пользователя не более одной строки подписки: апгрейд и продление
// заменяют её, а не добавляют новую.
//
// Статус active сам по себе не даёт доступа: EndDate в прошлом означает
// free независимо от статуса (ленивое истечение, фоновая задача может
// отставать или отсутствовать).
type Subscription struct {
	ID            int                      // Идентификатор строки
	UserUID       string                   // UID владельца
	PackageType   tierconfig.Tier          // Тариф подписки
	BillingPeriod tierconfig.BillingPeriod // Период оплаты: monthly или yearly
	Status        string                   // pending | active | cancelled | expired
	StartDate     time.Time                // Дата начала
	EndDate       *time.Time               // Дата окончания, nil = бессрочная
	OrderID       string                   // Заказ, активировавший подписку
}

// ExpiryInfo данные для письма об истекающей подписке.
type ExpiryInfo struct {
	Email       string
	Username    string
	PackageType tierconfig.Tier
	EndDate     time.Time
}
