package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/coaching-platform/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.ExpiryInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExpiryInfo), args.Error(1)
}

func (m *MockRepository) ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteClosedUsageWindows(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunMaintenance(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ExpireLapsedSubscriptions", mock.Anything, mock.Anything).Return(int64(3), nil).Once()
	repo.On("DeleteClosedUsageWindows", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		return before.Before(time.Now().UTC())
	})).Return(int64(12), nil).Once()

	svc := New(repo, discardLogger())
	svc.runMaintenance(context.Background())
	repo.AssertExpectations(t)
}

func TestRunMaintenance_ExpireErrorDoesNotStopCleanup(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ExpireLapsedSubscriptions", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()
	repo.On("DeleteClosedUsageWindows", mock.Anything, mock.Anything).Return(int64(0), nil).Once()

	svc := New(repo, discardLogger())
	svc.runMaintenance(context.Background())
	repo.AssertExpectations(t)
}

func TestRunNotify_NoExpiringSubscriptions(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindSubscriptionsExpiringTomorrow", mock.Anything).Return([]*models.ExpiryInfo{}, nil).Once()

	svc := New(repo, discardLogger())
	// пустой список — в очередь ничего не публикуется, канал не нужен
	svc.runNotifyExpiringSubscriptions(context.Background(), nil)
	repo.AssertExpectations(t)
}

func TestRunNotify_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindSubscriptionsExpiringTomorrow", mock.Anything).Return(nil, errors.New("db down")).Once()

	svc := New(repo, discardLogger())
	svc.runNotifyExpiringSubscriptions(context.Background(), nil)
	repo.AssertExpectations(t)
}
