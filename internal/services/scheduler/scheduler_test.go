package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/testprep/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/testprep/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) DeactivateExpired(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var fixedNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestSchedulerService_DeactivateExpired(t *testing.T) {
	expired := []models.Subscription{
		{ID: "s1", UserID: "u1", Kind: models.KindPremium},
		{ID: "s2", UserID: "u2", Kind: models.KindPremium},
	}

	tests := []struct {
		name       string
		setupMocks func(*MockRepository, *MockPublisher)
		want       int
	}{
		{
			name: "publishes event per subscription",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("DeactivateExpired", mock.Anything, fixedNow).Return(expired, nil).Once()
				p.On("Publish", mock.Anything, rabbitmq.RoutingSubscriptionExpired, models.SubscriptionEvent{
					SubscriptionID: "s1", UserID: "u1", Kind: models.KindPremium, Reason: "expired", OccurredAt: fixedNow,
				}).Return(nil).Once()
				p.On("Publish", mock.Anything, rabbitmq.RoutingSubscriptionExpired, models.SubscriptionEvent{
					SubscriptionID: "s2", UserID: "u2", Kind: models.KindPremium, Reason: "expired", OccurredAt: fixedNow,
				}).Return(nil).Once()
			},
			want: 2,
		},
		{
			name: "nothing expired",
			setupMocks: func(r *MockRepository, _ *MockPublisher) {
				r.On("DeactivateExpired", mock.Anything, fixedNow).Return([]models.Subscription{}, nil).Once()
			},
			want: 0,
		},
		{
			name: "repository error",
			setupMocks: func(r *MockRepository, _ *MockPublisher) {
				r.On("DeactivateExpired", mock.Anything, fixedNow).Return(nil, errors.New("db error")).Once()
			},
			want: 0,
		},
		{
			name: "publish error does not stop the pass",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("DeactivateExpired", mock.Anything, fixedNow).Return(expired, nil).Once()
				p.On("Publish", mock.Anything, rabbitmq.RoutingSubscriptionExpired, mock.Anything).Return(errors.New("broker down")).Twice()
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			pub := new(MockPublisher)
			service := NewSchedulerService(repo, pub, newNoopLogger())
			service.now = func() time.Time { return fixedNow }
			tt.setupMocks(repo, pub)

			got := service.DeactivateExpired(context.Background())

			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestSchedulerService_RunStopsOnCancel(t *testing.T) {
	repo := new(MockRepository)
	var passes atomic.Int32
	repo.On("DeactivateExpired", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { passes.Add(1) }).
		Return([]models.Subscription{}, nil)
	service := NewSchedulerService(repo, new(MockPublisher), newNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return passes.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerService_NewSchedulerService(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	logger := newNoopLogger()

	service := NewSchedulerService(repo, pub, logger)

	assert.NotNil(t, service)
	assert.Equal(t, repo, service.repo)
	assert.Equal(t, pub, service.publisher)
	assert.Equal(t, logger, service.log)
}
