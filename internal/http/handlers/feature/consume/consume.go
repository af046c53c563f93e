// Package consume реализует HTTP-обработчик потребления единицы квоты фичи.
//
// Запрос проходит две проверки: доступна ли фича на тарифе пользователя
// (403 с подсказкой об апгрейде, если нет) и осталась ли квота в текущем
// окне (429 с временем сброса, если исчерпана). Успешный ответ означает,
// что единица квоты атомарно списана.
package consume

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/coaching-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coaching-platform/internal/http/response"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/services/entitlement"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// TierService определяет вычисление эффективного тарифа пользователя.
type TierService interface {
	Resolve(ctx context.Context, userUID string) (tierconfig.Tier, error)
}

// EntitlementService определяет проверку доступности фичи на тарифе.
type EntitlementService interface {
	Check(tier tierconfig.Tier, feature tierconfig.Feature) entitlement.Decision
}

// QuotaService определяет атомарное потребление квоты.
type QuotaService interface {
	TryConsume(ctx context.Context, userUID string, feature tierconfig.Feature) (models.QuotaDecision, error)
}

// Handler обрабатывает запросы на потребление квоты фичи.
type Handler struct {
	log          *slog.Logger
	tiers        TierService
	entitlements EntitlementService
	quotas       QuotaService
	cfg          *tierconfig.Config
}

// New создает новый Handler.
func New(log *slog.Logger, tiers TierService, entitlements EntitlementService, quotas QuotaService, cfg *tierconfig.Config) *Handler {
	return &Handler{
		log:          log,
		tiers:        tiers,
		entitlements: entitlements,
		quotas:       quotas,
		cfg:          cfg,
	}
}

// ServeHTTP godoc
// @Summary Потребить единицу квоты фичи
// @Description Проверяет доступ к фиче на тарифе пользователя и атомарно списывает единицу квоты.
// @Tags Features
// @Produce  json
// @Param feature path string true "Ключ фичи"
// @Success 200 {object} map[string]any "Единица квоты списана"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Фича недоступна на тарифе"
// @Failure 404 {object} response.ErrorResponse "Неизвестная фича"
// @Failure 429 {object} response.ErrorResponse "Квота исчерпана"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /features/{feature}/consume [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feature.consume"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	feature := tierconfig.Feature(chi.URLParam(r, "feature"))
	if !h.cfg.KnownFeature(feature) {
		log.Info("unknown feature requested", slog.String("feature", string(feature)))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown feature"))
		return
	}

	tier, err := h.tiers.Resolve(r.Context(), userUID)
	if err != nil {
		log.Error("failed to resolve tier", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	decision := h.entitlements.Check(tier, feature)
	if !decision.Allowed {
		log.Info("feature not available on tier",
			slog.String("feature", string(feature)),
			slog.String("tier", string(tier)))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Response{
			Status: response.StatusError,
			Error:  decision.UpgradeMessage,
			Data: map[string]any{
				"tier":         tier,
				"upgrade_tier": decision.UpgradeTier,
			},
		})
		return
	}

	quota, err := h.quotas.TryConsume(r.Context(), userUID, feature)
	if err != nil {
		log.Error("failed to consume quota", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	if !quota.Allowed {
		log.Info("quota exhausted",
			slog.String("feature", string(feature)),
			slog.Int("limit", quota.Limit))
		w.WriteHeader(http.StatusTooManyRequests)
		render.JSON(w, r, response.Response{
			Status: response.StatusError,
			Error:  "quota exhausted for the current period",
			Data:   quota,
		})
		return
	}

	log.Info("quota consumed",
		slog.String("feature", string(feature)),
		slog.Int("used", quota.Used))
	render.JSON(w, r, response.StatusOKWithData(quota))
}
