package models

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`        // Электронная почта
	Username string `json:"username" validate:"required,alphanum"`  // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`     // Пароль
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required"`          // Пароль
}

// DummyOrder используется для приёма данных нового заказа из JSON-запроса
// до валидации и преобразования в Order.
type DummyOrder struct {
	PackageType   string `json:"package_type" validate:"required,oneof=core pro premium"`  // Покупаемый тариф
	BillingPeriod string `json:"billing_period" validate:"required,oneof=monthly yearly"`  // Период оплаты
}

// DummyUpgradeQuote используется для приёма параметров расчёта апгрейда.
type DummyUpgradeQuote struct {
	NewPackageType   string `json:"new_package_type" validate:"required,oneof=core pro premium"`  // Целевой тариф
	NewBillingPeriod string `json:"new_billing_period" validate:"required,oneof=monthly yearly"` // Целевой период оплаты
}

// DummyWebhook данные колбэка платёжного провайдера после парсинга.
// Формат провайдера на проводе нас не касается: движку важны только
// идентификатор заказа и итоговый статус.
type DummyWebhook struct {
	OrderID string `json:"order_id" validate:"required,uuid"`                        // Идентификатор заказа
	Status  string `json:"status" validate:"required,oneof=completed paid failed"` // Итог оплаты
}
