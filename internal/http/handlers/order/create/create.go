// Package create реализует HTTP-обработчик создания заказа на покупку
// тарифа. Заказ создаётся в статусе pending; итог оплаты приходит позже
// вебхуком платёжного провайдера.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/coaching-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coaching-platform/internal/http/response"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/services/lifecycle"
)

// Service описывает интерфейс бизнес-логики создания заказа.
type Service interface {
	CreateOrder(ctx context.Context, userUID string, req models.DummyOrder) (*models.Order, error)
}

// Handler обрабатывает запросы на создание заказов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать заказ на покупку тарифа
// @Description Создает pending-заказ с ценой из таблицы тарифов. Оплата подтверждается вебхуком провайдера.
// @Tags Orders
// @Accept  json
// @Produce  json
// @Param request body models.DummyOrder true "Тариф и период оплаты"
// @Success 200 {object} map[string]any "Созданный заказ"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или тариф не покупается"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.create"
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

	var req models.DummyOrder
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

	order, err := h.service.CreateOrder(r.Context(), userUID, req)
	if err != nil {
		if errors.Is(err, lifecycle.ErrTierNotPurchasable) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("tier is not purchasable"))
			return
		}
		log.Error("failed to create order", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create order"))
		return
	}

	log.Info("order created", slog.String("order_id", order.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order_id":     order.ID,
		"amount_cents": order.AmountCents,
		"status":       order.Status,
	}))
}
