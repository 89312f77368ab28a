// Package read реализует HTTP-обработчик получения тарифа по ID.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
	tariffservice "github.com/magabrotheeeer/testprep/internal/services/tariff"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Get(ctx context.Context, id string) (*models.Tariff, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получение тарифа
// @Tags Tariffs
// @Produce  json
// @Param id path string true "ID тарифа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /tariffs/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tariff.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	tariff, err := h.service.Get(r.Context(), id)
	if errors.Is(err, tariffservice.ErrTariffNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeTariffNotFound, "Tariff not found")
		return
	}
	if err != nil {
		log.Error("failed to read tariff", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not read tariff")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(tariff))
}
