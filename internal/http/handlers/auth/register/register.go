// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Новый пользователь получает бесплатный тариф; необязательный промокод
// выдаёт дополнительный тариф.
package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
	authservice "github.com/magabrotheeeer/testprep/internal/services/auth"
	promoservice "github.com/magabrotheeeer/testprep/internal/services/promo"
)

// Request — входные данные регистрации.
type Request struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FullName  string `json:"fullName" validate:"max=200"`
	PromoCode string `json:"promoCode" validate:"max=64"`
}

// Service описывает бизнес-логику регистрации.
type Service interface {
	Register(ctx context.Context, in authservice.RegisterInput) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы регистрации.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.WriteValidationError(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), authservice.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		PromoCode: req.PromoCode,
	})
	switch {
	case errors.Is(err, authservice.ErrUserExists):
		log.Info("email already registered")
		response.WriteError(w, r, http.StatusConflict, response.CodeAlreadyExists, "user with this email already exists")
		return
	case errors.Is(err, promoservice.ErrPromoInvalid):
		log.Info("invalid promo code", slog.String("code", req.PromoCode))
		response.WriteError(w, r, http.StatusBadRequest, response.CodePromoInvalid, "promo code is invalid or expired")
		return
	case err != nil:
		log.Error("failed to register user", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not register user")
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":       user.ID,
		"email":    user.Email,
		"fullName": user.FullName,
		"role":     user.Role,
	}))
}
