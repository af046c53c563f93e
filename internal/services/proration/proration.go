// Package proration считает единоразовую доплату за апгрейд тарифа
// посреди оплаченного периода. Все денежные значения — целые центы,
// никакой плавающей точки в денежной арифметике.
package proration

import (
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// ErrUnknownPrice целевой тариф не имеет прямой цены (например, программный).
var ErrUnknownPrice = errors.New("price is not defined for tier")

// Calculator вычисляет стоимость апгрейда.
type Calculator struct {
	cfg *tierconfig.Config
}

// New создает новый Calculator.
func New(cfg *tierconfig.Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Quote возвращает доплату за переход на newTier до конца оплаченного
// периода. Неиспользованный остаток текущего тарифа зачитывается по
// дневной ставке; итог не бывает отрицательным — кредит за даунгрейд
// сознательно не выплачивается (политика, а не баг: смена вниз
// применяется с конца периода).
func (c *Calculator) Quote(
	currentTier tierconfig.Tier, currentPeriod tierconfig.BillingPeriod,
	newTier tierconfig.Tier, newPeriod tierconfig.BillingPeriod,
	subscriptionEndDate, now time.Time,
) (models.UpgradeQuote, error) {
	priceNew, ok := c.cfg.Price(newTier, newPeriod)
	if !ok {
		return models.UpgradeQuote{}, fmt.Errorf("proration.Quote: %w", ErrUnknownPrice)
	}
	// free и программные тарифы не покупаются — остаток считается нулевым
	priceCur, _ := c.cfg.Price(currentTier, currentPeriod)

	daysRemaining := ceilDays(subscriptionEndDate.Sub(now))
	if daysRemaining <= 0 {
		return models.UpgradeQuote{
			AmountCents: 0,
			Message:     "current period has ended, the new plan starts a fresh billing cycle",
		}, nil
	}

	curDays := int64(tierconfig.PeriodLengthDays(currentPeriod))
	newDays := int64(tierconfig.PeriodLengthDays(newPeriod))

	// amount = dailyNew*days - dailyCur*days, посчитано одной дробью,
	// чтобы округлять один раз: (priceNew*curDays - priceCur*newDays) *
	// days / (newDays*curDays), округление к ближайшему
	num := int64(daysRemaining) * (int64(priceNew)*curDays - int64(priceCur)*newDays)
	den := newDays * curDays
	amount := int64(0)
	if num > 0 {
		amount = (num + den/2) / den
	}

	return models.UpgradeQuote{
		AmountCents:   int(amount),
		DaysRemaining: daysRemaining,
		Message: fmt.Sprintf("upgrade to %s (%s) for the remaining %d day(s)",
			newTier, newPeriod, daysRemaining),
	}, nil
}

// ceilDays возвращает число начатых суток в d, не меньше нуля.
func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	days := d / (24 * time.Hour)
	if d%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}
