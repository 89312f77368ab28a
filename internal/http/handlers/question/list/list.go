// Package list реализует HTTP-обработчик получения списка экзаменов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/testprep/internal/http/middlewarectx"
	"github.com/magabrotheeeer/testprep/internal/http/request"
	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.Exam, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список экзаменов
// @Tags Questions
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /questions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.question.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, offset, err := request.Paging(r)
	if err != nil {
		response.WriteError(w, r, http.StatusBadRequest, response.CodeValidation, err.Error())
		return
	}

	role, _ := r.Context().Value(middlewarectx.Role).(string)
	exams, err := h.service.List(r.Context(), role != models.RoleAdmin, limit, offset)
	if err != nil {
		log.Error("failed to list questions", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not list questions")
		return
	}

	log.Info("success to list questions", slog.Int("count", len(exams)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"questions": exams,
		"limit":     limit,
		"offset":    offset,
	}))
}
