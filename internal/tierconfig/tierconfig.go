// Package tierconfig содержит статическую таблицу политик тарифов:
// какие фичи доступны тарифу, какие квоты на них действуют и сколько
// стоит платный тариф. Таблица только для чтения: изменения требуют
// деплоя, а не миграции. Конфиг создаётся один раз и передаётся в
// сервисы при конструировании — без глобального изменяемого состояния.
package tierconfig

import (
	"github.com/magabrotheeeer/coaching-platform/internal/lib/quotawindow"
)

// Tier именованный уровень подписки или программы.
type Tier string

// Тарифы в порядке возрастания приоритета.
const (
	TierFree          Tier = "free"
	TierCore          Tier = "core"
	TierPro           Tier = "pro"
	TierPremium       Tier = "premium"
	TierKickstart     Tier = "kickstart"
	TierTransformatie Tier = "transformatie"
	TierVIP           Tier = "vip"
)

// BillingPeriod период оплаты платной подписки.
type BillingPeriod string

const (
	// BillingMonthly — помесячная оплата.
	BillingMonthly BillingPeriod = "monthly"
	// BillingYearly — годовая оплата.
	BillingYearly BillingPeriod = "yearly"
)

// Feature ключ фичи, закрытой тарифом и квотой.
type Feature string

const (
	// FeatureAIChat — чат с AI-ассистентом.
	FeatureAIChat Feature = "ai_chat"
	// FeaturePhotoAnalysis — анализ фото прогресса.
	FeaturePhotoAnalysis Feature = "photo_analysis"
	// FeatureProfileTools — инструменты профиля.
	FeatureProfileTools Feature = "profile_tools"
	// FeatureCourses — доступ к курсам.
	FeatureCourses Feature = "courses"
	// FeatureCoachChat — прямой чат с коучем.
	FeatureCoachChat Feature = "coach_chat"
)

// Quota лимит использования фичи внутри окна.
type Quota struct {
	Limit  int
	Period quotawindow.Period
}

// TierPolicy описывает политику одного тарифа.
// Отсутствие фичи в Quotas означает безлимит для этого тарифа.
type TierPolicy struct {
	AllowedFeatures []Feature
	Quotas          map[Feature]Quota
	PriceMonthly    int // в центах, 0 = тариф не покупается напрямую
	PriceYearly     int // в центах
}

// Config таблица политик тарифов, только для чтения.
type Config struct {
	precedence   []Tier // от дешёвого к приоритетному
	policies     map[Tier]TierPolicy
	programTiers map[string]Tier // slug программы -> тариф
}

// Default возвращает продакшен-таблицу тарифов.
func Default() *Config {
	return &Config{
		precedence: []Tier{
			TierFree, TierCore, TierPro, TierPremium,
			TierKickstart, TierTransformatie, TierVIP,
		},
		programTiers: map[string]Tier{
			"kickstart":     TierKickstart,
			"transformatie": TierTransformatie,
			"vip":           TierVIP,
		},
		policies: map[Tier]TierPolicy{
			TierFree: {
				AllowedFeatures: []Feature{FeatureAIChat, FeatureProfileTools},
				Quotas: map[Feature]Quota{
					FeatureAIChat:       {Limit: 3, Period: quotawindow.PeriodDay},
					FeatureProfileTools: {Limit: 5, Period: quotawindow.PeriodWeek},
				},
			},
			TierCore: {
				AllowedFeatures: []Feature{FeatureAIChat, FeatureProfileTools, FeatureCourses},
				Quotas: map[Feature]Quota{
					FeatureAIChat: {Limit: 15, Period: quotawindow.PeriodDay},
				},
				PriceMonthly: 2450,
				PriceYearly:  24500,
			},
			TierPro: {
				AllowedFeatures: []Feature{FeatureAIChat, FeaturePhotoAnalysis, FeatureProfileTools, FeatureCourses},
				Quotas: map[Feature]Quota{
					FeatureAIChat:        {Limit: 50, Period: quotawindow.PeriodDay},
					FeaturePhotoAnalysis: {Limit: 10, Period: quotawindow.PeriodWeek},
				},
				PriceMonthly: 3950,
				PriceYearly:  39500,
			},
			TierPremium: {
				AllowedFeatures: []Feature{FeatureAIChat, FeaturePhotoAnalysis, FeatureProfileTools, FeatureCourses},
				Quotas: map[Feature]Quota{
					FeaturePhotoAnalysis: {Limit: 30, Period: quotawindow.PeriodWeek},
				},
				PriceMonthly: 5950,
				PriceYearly:  59500,
			},
			TierKickstart: {
				AllowedFeatures: []Feature{FeatureAIChat, FeaturePhotoAnalysis, FeatureProfileTools, FeatureCourses},
				Quotas: map[Feature]Quota{
					FeatureAIChat:        {Limit: 25, Period: quotawindow.PeriodDay},
					FeaturePhotoAnalysis: {Limit: 10, Period: quotawindow.PeriodWeek},
				},
			},
			TierTransformatie: {
				AllowedFeatures: []Feature{FeatureAIChat, FeaturePhotoAnalysis, FeatureProfileTools, FeatureCourses, FeatureCoachChat},
				Quotas: map[Feature]Quota{
					FeaturePhotoAnalysis: {Limit: 30, Period: quotawindow.PeriodWeek},
					FeatureCoachChat:     {Limit: 10, Period: quotawindow.PeriodDay},
				},
			},
			TierVIP: {
				AllowedFeatures: []Feature{FeatureAIChat, FeaturePhotoAnalysis, FeatureProfileTools, FeatureCourses, FeatureCoachChat},
				Quotas:          map[Feature]Quota{},
			},
		},
	}
}

// Tiers возвращает все тарифы от дешёвого к приоритетному.
func (c *Config) Tiers() []Tier {
	res := make([]Tier, len(c.precedence))
	copy(res, c.precedence)
	return res
}

// Features возвращает все известные фичи.
func (c *Config) Features() []Feature {
	return []Feature{FeatureAIChat, FeaturePhotoAnalysis, FeatureProfileTools, FeatureCourses, FeatureCoachChat}
}

// Rank возвращает приоритет тарифа: чем больше, тем выше.
// Неизвестный тариф имеет ранг -1 и проигрывает любому известному.
func (c *Config) Rank(t Tier) int {
	for i, tier := range c.precedence {
		if tier == t {
			return i
		}
	}
	return -1
}

// Allowed сообщает, входит ли фича в allow-list тарифа.
func (c *Config) Allowed(t Tier, f Feature) bool {
	policy, ok := c.policies[t]
	if !ok {
		return false
	}
	for _, feature := range policy.AllowedFeatures {
		if feature == f {
			return true
		}
	}
	return false
}

// QuotaFor возвращает квоту фичи для тарифа.
// Второй результат false означает безлимит (или недоступную фичу —
// это различает Allowed).
func (c *Config) QuotaFor(t Tier, f Feature) (Quota, bool) {
	policy, ok := c.policies[t]
	if !ok {
		return Quota{}, false
	}
	q, ok := policy.Quotas[f]
	return q, ok
}

// CheapestTierWith возвращает самый дешёвый тариф, которому доступна фича.
func (c *Config) CheapestTierWith(f Feature) (Tier, bool) {
	for _, tier := range c.precedence {
		if c.Allowed(tier, f) {
			return tier, true
		}
	}
	return "", false
}

// Price возвращает цену тарифа в центах для периода оплаты.
// Второй результат false — тариф не покупается напрямую.
func (c *Config) Price(t Tier, bp BillingPeriod) (int, bool) {
	policy, ok := c.policies[t]
	if !ok {
		return 0, false
	}
	switch bp {
	case BillingYearly:
		return policy.PriceYearly, policy.PriceYearly > 0
	default:
		return policy.PriceMonthly, policy.PriceMonthly > 0
	}
}

// ProgramTier возвращает тариф, соответствующий активной записи в программу.
func (c *Config) ProgramTier(slug string) (Tier, bool) {
	t, ok := c.programTiers[slug]
	return t, ok
}

// KnownTier сообщает, определён ли тариф в таблице.
func (c *Config) KnownTier(t Tier) bool {
	_, ok := c.policies[t]
	return ok
}

// KnownFeature сообщает, определена ли фича.
func (c *Config) KnownFeature(f Feature) bool {
	for _, feature := range c.Features() {
		if feature == f {
			return true
		}
	}
	return false
}

// PeriodLengthDays возвращает длину периода оплаты в днях для прорейта.
func PeriodLengthDays(bp BillingPeriod) int {
	if bp == BillingYearly {
		return 365
	}
	return 30
}
