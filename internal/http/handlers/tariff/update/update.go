// Package update реализует HTTP-обработчик частичного обновления тарифа (admin).
package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
	tariffservice "github.com/magabrotheeeer/testprep/internal/services/tariff"
)

// Handler обрабатывает запросы на обновление тарифа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает обновление тарифа.
type Service interface {
	Update(ctx context.Context, id string, upd models.TariffUpdate) (*models.Tariff, error)
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
// @Summary Обновление тарифа
// @Tags Tariffs
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID тарифа"
// @Param request body models.TariffUpdate true "Изменяемые поля"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /tariffs/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tariff.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req models.TariffUpdate
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

	tariff, err := h.service.Update(r.Context(), id, req)
	switch {
	case errors.Is(err, tariffservice.ErrTariffNotFound):
		response.WriteError(w, r, http.StatusNotFound, response.CodeTariffNotFound, "Tariff not found")
		return
	case errors.Is(err, tariffservice.ErrInvalidTariff):
		response.WriteError(w, r, http.StatusBadRequest, response.CodeValidation, err.Error())
		return
	case errors.Is(err, models.ErrAlreadyExists):
		response.WriteError(w, r, http.StatusConflict, response.CodeAlreadyExists, "tariff with this name already exists")
		return
	case err != nil:
		log.Error("failed to update tariff", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not update tariff")
		return
	}

	log.Info("tariff updated", slog.String("tariff_id", id))
	render.JSON(w, r, response.StatusOKWithData(tariff))
}
