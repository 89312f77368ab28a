// Package create реализует HTTP-обработчик создания промокода (admin).
package create

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
	promoservice "github.com/magabrotheeeer/testprep/internal/services/promo"
)

// Handler обрабатывает запросы на создание промокода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает создание промокода.
type Service interface {
	Create(ctx context.Context, in models.DummyPromo) (*models.Promo, error)
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
// @Summary Создание промокода
// @Description Владелец получает rewardTarifId после каждых required_referrals активаций.
// @Tags Promos
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyPromo true "Данные промокода"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /promos [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promo.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPromo
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

	promo, err := h.service.Create(r.Context(), req)
	switch {
	case errors.Is(err, promoservice.ErrTariffNotFound):
		response.WriteError(w, r, http.StatusNotFound, response.CodeTariffNotFound, "Tariff not found")
		return
	case errors.Is(err, promoservice.ErrInvalidReward), errors.Is(err, promoservice.ErrExpired):
		response.WriteError(w, r, http.StatusBadRequest, response.CodeValidation, err.Error())
		return
	case errors.Is(err, models.ErrAlreadyExists):
		response.WriteError(w, r, http.StatusConflict, response.CodeAlreadyExists, "promo code already exists")
		return
	case err != nil:
		log.Error("failed to create promo", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not create promo")
		return
	}

	log.Info("promo created", slog.String("promo_id", promo.ID), slog.String("code", promo.Code))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(promo))
}
