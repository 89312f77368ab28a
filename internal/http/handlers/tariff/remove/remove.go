// Package remove реализует HTTP-обработчик снятия тарифа с продажи (admin).
package remove

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
	tariffservice "github.com/magabrotheeeer/testprep/internal/services/tariff"
)

// Handler обрабатывает запросы на удаление тарифа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает удаление тарифа.
type Service interface {
	Delete(ctx context.Context, id string) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удаление тарифа
// @Description Тариф снимается с продажи, выданные подписки продолжают действовать.
// @Tags Tariffs
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID тарифа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /tariffs/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tariff.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	err := h.service.Delete(r.Context(), id)
	if errors.Is(err, tariffservice.ErrTariffNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeTariffNotFound, "Tariff not found")
		return
	}
	if err != nil {
		log.Error("failed to remove tariff", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not remove tariff")
		return
	}

	log.Info("tariff removed", slog.String("tariff_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"id": id}))
}
