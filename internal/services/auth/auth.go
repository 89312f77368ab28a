// Package services содержит логику регистрации, входа и проверки токенов доступа.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/testprep/internal/lib/jwt"
	"github.com/magabrotheeeer/testprep/internal/lib/password"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
)

var (
	// ErrUserExists возвращается, если email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials возвращается при неверном email или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenMaker выпускает и проверяет токены доступа.
type TokenMaker interface {
	GenerateToken(userID, role string) (string, error)
	ParseToken(token string) (*jwt.Claims, error)
}

// Provisioner выдаёт бесплатный тариф новому пользователю.
type Provisioner interface {
	ProvisionFree(ctx context.Context, userID string) (*models.Subscription, error)
}

// PromoRedeemer проверяет и активирует промокоды.
type PromoRedeemer interface {
	Check(ctx context.Context, code string) error
	Redeem(ctx context.Context, code, userID string) (*models.Subscription, error)
}

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Email     string
	Password  string
	FullName  string
	PromoCode string
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker TokenMaker
	subs     Provisioner
	promos   PromoRedeemer
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker TokenMaker, subs Provisioner, promos PromoRedeemer, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		subs:     subs,
		promos:   promos,
		log:      log,
	}
}

// Register создаёт пользователя с ролью student и выдаёт ему бесплатный тариф.
// Промокод проверяется до создания пользователя и активируется после.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "services.auth.Register"
	code := strings.TrimSpace(in.PromoCode)
	if code != "" {
		if err := s.promos.Check(ctx, code); err != nil {
			return nil, err
		}
	}

	hashed, err := password.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.RegisterUser(ctx, models.User{
		Email:        in.Email,
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         models.RoleStudent,
	})
	if errors.Is(err, models.ErrAlreadyExists) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log := s.log.With(slog.String("user_id", user.ID))
	// Пользователь уже создан: ошибки выдачи тарифов не отменяют регистрацию.
	if _, err := s.subs.ProvisionFree(ctx, user.ID); err != nil {
		log.Error("failed to provision free tariff", sl.Err(err))
	}
	if code != "" {
		if _, err := s.promos.Redeem(ctx, code, user.ID); err != nil {
			log.Warn("failed to redeem promo code", slog.String("code", code), sl.Err(err))
		}
	}
	return user, nil
}

// Login проверяет пароль пользователя и выпускает токен доступа.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.Active {
		return "", nil, ErrInvalidCredentials
	}
	if err := password.Compare(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ValidateToken проверяет JWT и возвращает его claims.
func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	return s.jwtMaker.ParseToken(token)
}
