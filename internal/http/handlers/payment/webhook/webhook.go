// Package webhook реализует HTTP-обработчик колбэков платёжного
// провайдера. Подпись тела проверяется HMAC-SHA256 по общему секрету;
// колбэки могут приходить повторно, обработка идемпотентна на уровне
// бизнес-логики.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/coaching-platform/internal/http/response"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/sl"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/services/lifecycle"
	"github.com/magabrotheeeer/coaching-platform/internal/storage"
)

// Service описывает интерфейс обработки итога оплаты.
type Service interface {
	HandleWebhook(ctx context.Context, req models.DummyWebhook) (*models.Subscription, error)
}

// Handler обрабатывает колбэки платёжного провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
	validate      *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
		validate:      validator.New(),
	}
}

// verifySignature проверяет подпись тела из заголовка X-Api-Signature.
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Колбэк платёжного провайдера
// @Description Принимает итог оплаты заказа. Повторная доставка того же итога — no-op.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body models.DummyWebhook true "Итог оплаты заказа"
// @Success 200 {object} map[string]any "Итог применён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Заказ уже в другом терминальном статусе"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var req models.DummyWebhook
	if err := json.Unmarshal(body, &req); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.HandleWebhook(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrOrderNotFound), errors.Is(err, storage.ErrOrderNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		case errors.Is(err, storage.ErrOrderFinal):
			// противоречащий итог для уже завершённого заказа
			log.Error("conflicting webhook for finalized order",
				slog.String("order_id", req.OrderID),
				slog.String("status", req.Status))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("order already finalized"))
		default:
			log.Error("failed to process webhook", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
		}
		return
	}

	log.Info("webhook processed successfully",
		slog.String("order_id", req.OrderID),
		slog.String("status", req.Status))
	data := map[string]any{"order_id": req.OrderID, "status": req.Status}
	if sub != nil {
		data["subscription_status"] = sub.Status
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
