// Package list реализует HTTP-обработчик получения списка промокодов (admin).
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	List(ctx context.Context) ([]models.Promo, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список промокодов
// @Tags Promos
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /promos [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promo.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	promos, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list promos", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not list promos")
		return
	}
	if promos == nil {
		promos = []models.Promo{}
	}

	log.Info("success to list promos", slog.Int("count", len(promos)))
	render.JSON(w, r, response.StatusOKWithData(promos))
}
