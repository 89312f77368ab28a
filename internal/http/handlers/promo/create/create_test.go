package create

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/testprep/internal/models"
	promoservice "github.com/magabrotheeeer/testprep/internal/services/promo"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, in models.DummyPromo) (*models.Promo, error) {
	args := m.Called(ctx, in)
	if res := args.Get(0); res != nil {
		return res.(*models.Promo), args.Error(1)
	}
	return nil, args.Error(1)
}

const (
	tariffID = "0b7c9a9e-5d1f-4b8e-9a57-0d5f4a0c1e11"
	ownerID  = "4f9d7e22-3b6a-4c4e-8e0f-6c1b2a3d4e5f"
	rewardID = "8a1e2f3c-7b6d-4e5f-9a0b-1c2d3e4f5a6b"
)

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := fmt.Sprintf(`{"code":"BLOG10","tarifId":%q,"ownerId":%q,"rewardTarifId":%q,"expire_date":"2030-01-01T00:00:00Z"}`,
		tariffID, ownerID, rewardID)

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(in models.DummyPromo) bool {
					return in.Code == "BLOG10" && in.OwnerID == ownerID &&
						in.ExpireDate.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
				})).Return(&models.Promo{ID: "p1", Code: "BLOG10", RequiredReferrals: 3, UsageLimit: 1000}, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"required_referrals":3`,
		},
		{
			name:       "owner is not a uuid",
			body:       fmt.Sprintf(`{"code":"X","tarifId":%q,"ownerId":"bob","rewardTarifId":%q,"expire_date":"2030-01-01T00:00:00Z"}`, tariffID, rewardID),
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field OwnerID can contain only uuid`,
		},
		{
			name: "premium reward",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, promoservice.ErrInvalidReward).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `reward tariff must be a package tariff`,
		},
		{
			name: "expired",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, promoservice.ErrExpired).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"VALIDATION_ERROR"`,
		},
		{
			name: "unknown tariff",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, promoservice.ErrTariffNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"error":"TARIFF_NOT_FOUND"`,
		},
		{
			name: "duplicate code",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("op: %w", models.ErrAlreadyExists)).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"error":"ALREADY_EXISTS"`,
		},
		{
			name: "internal error",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"error":"INTERNAL_ERROR"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockService)
			tt.setupMock(m)

			req := httptest.NewRequest(http.MethodPost, "/promos", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			New(logger, m).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			m.AssertExpectations(t)
		})
	}
}
