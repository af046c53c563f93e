// Package status реализует HTTP-обработчик статуса подписки и
// эффективного тарифа текущего пользователя.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/coaching-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coaching-platform/internal/http/response"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/storage"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

// TierService определяет вычисление эффективного тарифа пользователя.
type TierService interface {
	Resolve(ctx context.Context, userUID string) (tierconfig.Tier, error)
}

// SubscriptionRepository определяет чтение строки подписки.
type SubscriptionRepository interface {
	GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error)
}

// Handler обрабатывает запросы статуса подписки.
type Handler struct {
	log   *slog.Logger
	tiers TierService
	repo  SubscriptionRepository
}

// New создает новый Handler.
func New(log *slog.Logger, tiers TierService, repo SubscriptionRepository) *Handler {
	return &Handler{
		log:   log,
		tiers: tiers,
		repo:  repo,
	}
}

// ServeHTTP godoc
// @Summary Статус подписки текущего пользователя
// @Description Возвращает эффективный тариф и, если есть, строку подписки.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Тариф и подписка"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"
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

	tier, err := h.tiers.Resolve(r.Context(), userUID)
	if err != nil {
		log.Error("failed to resolve tier", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	data := map[string]any{"tier": tier}
	sub, err := h.repo.GetSubscriptionByUserUID(r.Context(), userUID)
	switch {
	case err == nil:
		data["subscription"] = sub
	case errors.Is(err, storage.ErrSubscriptionNotFound):
		// пользователь без подписки — тариф определяют программы или free
	default:
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(data))
}
