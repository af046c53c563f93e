// Package entitlement отвечает на вопрос, доступна ли фича тарифу вообще,
// независимо от того, сколько раз она уже использована. Чистая функция над
// таблицей тарифов: без побочных эффектов и без I/O, что делает полную
// матрицу тариф × фича тривиально тестируемой.
package entitlement

import (
	"fmt"

	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// Decision результат проверки доступности фичи.
// Если фича недоступна, UpgradeTier указывает самый дешёвый тариф,
// на котором она появляется, — подсказка для апсейла в UI.
type Decision struct {
	Allowed        bool            `json:"allowed"`
	UpgradeTier    tierconfig.Tier `json:"upgrade_tier,omitempty"`
	UpgradeMessage string          `json:"upgrade_message,omitempty"`
}

// Checker проверяет доступность фич по таблице тарифов.
type Checker struct {
	cfg *tierconfig.Config
}

// New создает новый Checker.
func New(cfg *tierconfig.Config) *Checker {
	return &Checker{cfg: cfg}
}

// Check возвращает решение для пары тариф × фича. Тотальна: любая пара
// имеет определённый ответ, неизвестная фича — отказ без подсказки.
func (c *Checker) Check(tier tierconfig.Tier, feature tierconfig.Feature) Decision {
	if c.cfg.Allowed(tier, feature) {
		return Decision{Allowed: true}
	}
	target, ok := c.cfg.CheapestTierWith(feature)
	if !ok {
		return Decision{Allowed: false}
	}
	return Decision{
		Allowed:        false,
		UpgradeTier:    target,
		UpgradeMessage: fmt.Sprintf("feature %s is available starting from the %s plan", feature, target),
	}
}
