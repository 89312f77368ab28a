// Package list реализует HTTP-обработчик получения списка тарифов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/testprep/internal/http/middlewarectx"
	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
)

// Handler обрабатывает запросы на получение списка тарифов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение списка тарифов.
type Service interface {
	List(ctx context.Context, includeInactive bool) ([]models.Tariff, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список тарифов
// @Description Возвращает активные тарифы. Администратор может запросить все тарифы через all=true.
// @Tags Tariffs
// @Produce  json
// @Param all query bool false "Включая снятые с продажи (admin)"
// @Success 200 {object} response.Response
// @Router /tariffs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tariff.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, _ := r.Context().Value(middlewarectx.Role).(string)
	includeInactive := role == models.RoleAdmin && r.URL.Query().Get("all") == "true"

	tariffs, err := h.service.List(r.Context(), includeInactive)
	if err != nil {
		log.Error("failed to list tariffs", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not list tariffs")
		return
	}

	log.Info("success to list tariffs", slog.Int("count", len(tariffs)))
	render.JSON(w, r, response.StatusOKWithData(tariffs))
}
