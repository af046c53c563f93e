// Package quotastatus реализует HTTP-обработчик чтения остатка квоты фичи
// без потребления — для индикаторов остатка в интерфейсе.
package quotastatus

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

// QuotaService определяет чтение состояния квоты без потребления.
type QuotaService interface {
	Status(ctx context.Context, userUID string, feature tierconfig.Feature) (models.QuotaDecision, error)
}

// Handler обрабатывает запросы состояния квоты.
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
// @Summary Остаток квоты фичи
// @Description Возвращает использование и лимит фичи в текущем окне, не списывая квоту.
// @Tags Features
// @Produce  json
// @Param feature path string true "Ключ фичи"
// @Success 200 {object} map[string]any "Состояние квоты"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Фича недоступна на тарифе"
// @Failure 404 {object} response.ErrorResponse "Неизвестная фича"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /features/{feature}/quota [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feature.quotastatus"
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

	quota, err := h.quotas.Status(r.Context(), userUID, feature)
	if err != nil {
		log.Error("failed to read quota status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"tier":  tier,
		"quota": quota,
	}))
}
