// Package metrics объявляет счётчики Prometheus движка квот.
// Сами значения отдаются наружу через /metrics (promhttp).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotaRejections количество отклонённых потреблений квоты по фичам.
	QuotaRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_rejections_total",
		Help: "Number of feature consumptions rejected by quota.",
	}, []string{"feature"})

	// RateLimitRejections количество запросов, отклонённых лимитером,
	// по классам конечных точек.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Number of requests rejected by the rate limiter.",
	}, []string{"class"})

	// SubscriptionActivations количество активаций подписок по тарифам.
	SubscriptionActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_activations_total",
		Help: "Number of subscription activations from paid orders.",
	}, []string{"package_type"})
)
