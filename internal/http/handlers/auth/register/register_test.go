package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/testprep/internal/models"
	authservice "github.com/magabrotheeeer/testprep/internal/services/auth"
	promoservice "github.com/magabrotheeeer/testprep/internal/services/promo"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, in authservice.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(m *AuthServiceMock)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "valid registration",
			body: `{"email":"a@b.com","password":"password123","fullName":"Ann","promoCode":"BLOG"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, authservice.RegisterInput{
					Email: "a@b.com", Password: "password123", FullName: "Ann", PromoCode: "BLOG",
				}).Return(&models.User{ID: "u1", Email: "a@b.com", Role: models.RoleStudent}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "invalid json",
			body:           `{"email":`,
			setupMock:      func(*AuthServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "VALIDATION_ERROR",
		},
		{
			name:           "invalid email",
			body:           `{"email":"nope","password":"password123"}`,
			setupMock:      func(*AuthServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "VALIDATION_ERROR",
		},
		{
			name: "email taken",
			body: `{"email":"a@b.com","password":"password123"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, authservice.ErrUserExists).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantError:      "ALREADY_EXISTS",
		},
		{
			name: "invalid promo",
			body: `{"email":"a@b.com","password":"password123","promoCode":"OLD"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, promoservice.ErrPromoInvalid).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "PROMO_INVALID",
		},
		{
			name: "internal error",
			body: `{"email":"a@b.com","password":"password123"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(AuthServiceMock)
			tt.setupMock(m)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			New(newNoopLogger(), m).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			if tt.wantError != "" {
				assert.Equal(t, "Error", resp["status"])
				assert.Equal(t, tt.wantError, resp["error"])
			} else {
				assert.Equal(t, "OK", resp["status"])
				data := resp["data"].(map[string]any)
				assert.Equal(t, "u1", data["id"])
			}
			m.AssertExpectations(t)
		})
	}
}
