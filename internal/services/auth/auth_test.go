package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/testprep/internal/lib/jwt"
	"github.com/magabrotheeeer/testprep/internal/lib/password"
	"github.com/magabrotheeeer/testprep/internal/models"
	services "github.com/magabrotheeeer/testprep/internal/services/auth"
	promoservice "github.com/magabrotheeeer/testprep/internal/services/promo"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type ProvisionerMock struct {
	mock.Mock
}

func (m *ProvisionerMock) ProvisionFree(ctx context.Context, userID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

type PromoMock struct {
	mock.Mock
}

func (m *PromoMock) Check(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func (m *PromoMock) Redeem(ctx context.Context, code, userID string) (*models.Subscription, error) {
	args := m.Called(ctx, code, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type deps struct {
	users  *UserRepoMock
	subs   *ProvisionerMock
	promos *PromoMock
	maker  *customjwt.Maker
	svc    *services.AuthService
}

func newDeps() *deps {
	d := &deps{
		users:  new(UserRepoMock),
		subs:   new(ProvisionerMock),
		promos: new(PromoMock),
		maker:  customjwt.NewMaker("test-secret", time.Minute),
	}
	d.svc = services.NewAuthService(d.users, d.maker, d.subs, d.promos, newNoopLogger())
	return d
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		in         services.RegisterInput
		setupMocks func(d *deps)
		wantErr    error
	}{
		{
			name: "successful registration",
			in:   services.RegisterInput{Email: "test@example.com", Password: "password123", FullName: " Ann "},
			setupMocks: func(d *deps) {
				d.users.On("RegisterUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "test@example.com" &&
						user.FullName == "Ann" &&
						user.Role == models.RoleStudent &&
						password.Compare(user.PasswordHash, "password123") == nil
				})).Return(&models.User{ID: "u1", Email: "test@example.com"}, nil).Once()
				d.subs.On("ProvisionFree", mock.Anything, "u1").Return(&models.Subscription{ID: "s1"}, nil).Once()
			},
		},
		{
			name: "with promo code",
			in:   services.RegisterInput{Email: "a@b.c", Password: "password123", PromoCode: " BLOGGER "},
			setupMocks: func(d *deps) {
				d.promos.On("Check", mock.Anything, "BLOGGER").Return(nil).Once()
				d.users.On("RegisterUser", mock.Anything, mock.Anything).Return(&models.User{ID: "u1"}, nil).Once()
				d.subs.On("ProvisionFree", mock.Anything, "u1").Return(&models.Subscription{ID: "s1"}, nil).Once()
				d.promos.On("Redeem", mock.Anything, "BLOGGER", "u1").Return(&models.Subscription{ID: "s1"}, nil).Once()
			},
		},
		{
			name: "invalid promo rejects before creating user",
			in:   services.RegisterInput{Email: "a@b.c", Password: "password123", PromoCode: "NOPE"},
			setupMocks: func(d *deps) {
				d.promos.On("Check", mock.Anything, "NOPE").Return(promoservice.ErrPromoInvalid).Once()
			},
			wantErr: promoservice.ErrPromoInvalid,
		},
		{
			name: "email taken",
			in:   services.RegisterInput{Email: "a@b.c", Password: "password123"},
			setupMocks: func(d *deps) {
				d.users.On("RegisterUser", mock.Anything, mock.Anything).Return(nil, models.ErrAlreadyExists).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name: "free tariff failure keeps the user",
			in:   services.RegisterInput{Email: "a@b.c", Password: "password123"},
			setupMocks: func(d *deps) {
				d.users.On("RegisterUser", mock.Anything, mock.Anything).Return(&models.User{ID: "u1"}, nil).Once()
				d.subs.On("ProvisionFree", mock.Anything, "u1").Return(nil, errors.New("no free tariff")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			tt.setupMocks(d)

			user, err := d.svc.Register(context.Background(), tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				d.subs.AssertNotCalled(t, "ProvisionFree", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "u1", user.ID)
			}
			d.users.AssertExpectations(t)
			d.subs.AssertExpectations(t)
			d.promos.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.Hash("password123")
	require.NoError(t, err)
	active := &models.User{ID: "u1", Email: "a@b.c", PasswordHash: hash, Role: models.RoleAdmin, Active: true}
	blocked := &models.User{ID: "u2", Email: "x@b.c", PasswordHash: hash, Role: models.RoleStudent, Active: false}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "success", email: "a@b.c", password: "password123"},
		{name: "wrong password", email: "a@b.c", password: "nope", wantErr: services.ErrInvalidCredentials},
		{name: "unknown email", email: "none@b.c", password: "password123", wantErr: services.ErrInvalidCredentials},
		{name: "inactive user", email: "x@b.c", password: "password123", wantErr: services.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			d.users.On("GetUserByEmail", mock.Anything, "a@b.c").Return(active, nil).Maybe()
			d.users.On("GetUserByEmail", mock.Anything, "x@b.c").Return(blocked, nil).Maybe()
			d.users.On("GetUserByEmail", mock.Anything, "none@b.c").Return(nil, models.ErrNotFound).Maybe()

			token, user, err := d.svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", user.ID)

			claims, err := d.svc.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, "u1", claims.UserID)
			assert.Equal(t, models.RoleAdmin, claims.Role)
		})
	}
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	d := newDeps()
	other := customjwt.NewMaker("other-secret", time.Minute)
	token, err := other.GenerateToken("u1", models.RoleStudent)
	require.NoError(t, err)

	_, err = d.svc.ValidateToken(token)
	assert.Error(t, err)
}
