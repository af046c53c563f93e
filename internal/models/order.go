package models

import (
	"time"

	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// Статусы заказа. Переходы только вперёд: pending -> completed | failed,
// заказ никогда не возвращается в pending.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
)

// Order представляет заказ на покупку или апгрейд подписки.
// Создаётся до оплаты, обновляется колбэком платёжного провайдера и
// ровно один раз потребляется активацией подписки.
type Order struct {
	ID            string                   // UUID заказа
	UserUID       string                   // UID покупателя
	PackageType   tierconfig.Tier          // Покупаемый тариф
	BillingPeriod tierconfig.BillingPeriod // Период оплаты
	AmountCents   int                      // Сумма в центах
	Status        string                   // pending | completed | paid | failed
	LinkedToUser  bool                     // Заказ уже применён к подписке
	CreatedAt     time.Time                // Дата создания
}
