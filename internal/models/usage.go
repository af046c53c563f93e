package models

import "time"

// UsageCounter счётчик использования фичи внутри одного окна квоты.
// Одна строка на (пользователь, фича, окно); создаётся лениво при первом
// использовании, сброс — это новая строка с новым window_start, а не
// обнуление на месте.
type UsageCounter struct {
	UserUID     string    // UID пользователя
	FeatureKey  string    // Ключ фичи
	WindowStart time.Time // Каноническое начало окна
	Count       int       // Использовано в окне
}

// QuotaDecision результат попытки потребления квоты.
type QuotaDecision struct {
	Allowed   bool      `json:"allowed"`
	Unlimited bool      `json:"unlimited,omitempty"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
}

// RateLimitDecision результат проверки лимита запросов.
type RateLimitDecision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// UpgradeQuote стоимость апгрейда тарифа до конца оплаченного периода.
type UpgradeQuote struct {
	AmountCents   int    `json:"amount_cents"`
	DaysRemaining int    `json:"days_remaining"`
	Message       string `json:"message"`
}
