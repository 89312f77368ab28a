// Package create реализует HTTP-обработчик создания тарифа (admin).
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
	tariffservice "github.com/magabrotheeeer/testprep/internal/services/tariff"
)

// Handler обрабатывает запросы на создание тарифа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает создание тарифа.
type Service interface {
	Create(ctx context.Context, in models.DummyTariff) (*models.Tariff, error)
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
// @Summary Создание тарифа
// @Tags Tariffs
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyTariff true "Данные тарифа"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /tariffs [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tariff.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyTariff
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

	tariff, err := h.service.Create(r.Context(), req)
	switch {
	case errors.Is(err, tariffservice.ErrInvalidTariff):
		response.WriteError(w, r, http.StatusBadRequest, response.CodeValidation, err.Error())
		return
	case errors.Is(err, models.ErrAlreadyExists):
		response.WriteError(w, r, http.StatusConflict, response.CodeAlreadyExists, "tariff with this name already exists")
		return
	case err != nil:
		log.Error("failed to create tariff", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not create tariff")
		return
	}

	log.Info("tariff created", slog.String("tariff_id", tariff.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(tariff))
}
