package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/services/lifecycle"
	"github.com/magabrotheeeer/coaching-platform/internal/storage"
	"github.com/magabrotheeeer/coaching-platform/internal/tierconfig"
)

const testSecret = "test-webhook-secret"

type MockService struct {
	mock.Mock
}

func (m *MockService) HandleWebhook(ctx context.Context, req models.DummyWebhook) (*models.Subscription, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func doRequest(handler *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Api-Signature", signature)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestWebhook_CompletedOrder(t *testing.T) {
	service := new(MockService)
	service.On("HandleWebhook", mock.Anything, models.DummyWebhook{
		OrderID: "7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e",
		Status:  "completed",
	}).Return(&models.Subscription{
		UserUID:     "uid-1",
		PackageType: tierconfig.TierPro,
		Status:      models.SubscriptionStatusActive,
	}, nil)

	handler := New(discardLogger(), service, testSecret)
	body := []byte(`{"order_id":"7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e","status":"completed"}`)

	rr := doRequest(handler, body, sign(body))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"subscription_status":"active"`)
	service.AssertExpectations(t)
}

func TestWebhook_MissingSignature(t *testing.T) {
	service := new(MockService)
	handler := New(discardLogger(), service, testSecret)
	body := []byte(`{"order_id":"7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e","status":"completed"}`)

	rr := doRequest(handler, body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	service.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything)
}

func TestWebhook_TamperedBody(t *testing.T) {
	service := new(MockService)
	handler := New(discardLogger(), service, testSecret)

	signed := []byte(`{"order_id":"7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e","status":"failed"}`)
	tampered := []byte(`{"order_id":"7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e","status":"completed"}`)

	rr := doRequest(handler, tampered, sign(signed))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWebhook_InvalidStatus(t *testing.T) {
	service := new(MockService)
	handler := New(discardLogger(), service, testSecret)
	body := []byte(`{"order_id":"7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e","status":"refunded"}`)

	rr := doRequest(handler, body, sign(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestWebhook_InvalidOrderID(t *testing.T) {
	service := new(MockService)
	handler := New(discardLogger(), service, testSecret)
	body := []byte(`{"order_id":"not-a-uuid","status":"completed"}`)

	rr := doRequest(handler, body, sign(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestWebhook_OrderNotFound(t *testing.T) {
	service := new(MockService)
	service.On("HandleWebhook", mock.Anything, mock.Anything).Return(nil, lifecycle.ErrOrderNotFound)

	handler := New(discardLogger(), service, testSecret)
	body := []byte(`{"order_id":"7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e","status":"completed"}`)

	rr := doRequest(handler, body, sign(body))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWebhook_ConflictingOutcome(t *testing.T) {
	service := new(MockService)
	service.On("HandleWebhook", mock.Anything, mock.Anything).Return(nil, storage.ErrOrderFinal)

	handler := New(discardLogger(), service, testSecret)
	body := []byte(`{"order_id":"7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e","status":"failed"}`)

	rr := doRequest(handler, body, sign(body))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestWebhook_FailedOrderReturnsNoSubscription(t *testing.T) {
	service := new(MockService)
	service.On("HandleWebhook", mock.Anything, models.DummyWebhook{
		OrderID: "7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e",
		Status:  "failed",
	}).Return(nil, nil)

	handler := New(discardLogger(), service, testSecret)
	body := []byte(`{"order_id":"7b2e9d1c-3f4a-4b5c-8d6e-9f0a1b2c3d4e","status":"failed"}`)

	rr := doRequest(handler, body, sign(body))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "subscription_status")
}
