// Package upgradequote реализует HTTP-обработчик расчёта доплаты за
// апгрейд тарифа до конца оплаченного периода.
package upgradequote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/coaching-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coaching-platform/internal/http/response"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/services/proration"
	"github.com/magabrotheeeer/coaching-platform/internal/storage"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// SubscriptionRepository определяет чтение строки подписки.
type SubscriptionRepository interface {
	GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error)
}

// Calculator определяет расчёт стоимости апгрейда.
type Calculator interface {
	Quote(currentTier tierconfig.Tier, currentPeriod tierconfig.BillingPeriod,
		newTier tierconfig.Tier, newPeriod tierconfig.BillingPeriod,
		subscriptionEndDate, now time.Time) (models.UpgradeQuote, error)
}

// Handler обрабатывает запросы расчёта апгрейда.
type Handler struct {
	log        *slog.Logger
	repo       SubscriptionRepository
	calculator Calculator
	validate   *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, repo SubscriptionRepository, calculator Calculator) *Handler {
	return &Handler{
		log:        log,
		repo:       repo,
		calculator: calculator,
		validate:   validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Рассчитать доплату за апгрейд
// @Description Возвращает стоимость перехода на более дорогой тариф до конца оплаченного периода. Ничего не списывает и не меняет.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.DummyUpgradeQuote true "Целевой тариф и период"
// @Success 200 {object} map[string]any "Расчёт доплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Нет активной подписки для апгрейда"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions/me/upgrade-quote [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.upgradequote"
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

	var req models.DummyUpgradeQuote
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	sub, err := h.repo.GetSubscriptionByUserUID(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, storage.ErrSubscriptionNotFound) {
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("no active subscription to upgrade"))
			return
		}
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	if sub.Status != models.SubscriptionStatusActive || sub.EndDate == nil {
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("no active subscription to upgrade"))
		return
	}

	quote, err := h.calculator.Quote(
		sub.PackageType, sub.BillingPeriod,
		tierconfig.Tier(req.NewPackageType), tierconfig.BillingPeriod(req.NewBillingPeriod),
		*sub.EndDate, time.Now().UTC(),
	)
	if err != nil {
		if errors.Is(err, proration.ErrUnknownPrice) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("target tier has no direct price"))
			return
		}
		log.Error("failed to calculate upgrade quote", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("upgrade quote calculated",
		slog.String("new_package_type", req.NewPackageType),
		slog.Int("amount_cents", quote.AmountCents))
	render.JSON(w, r, response.StatusOKWithData(quote))
}
