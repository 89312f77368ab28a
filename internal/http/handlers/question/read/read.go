// Package read реализует HTTP-обработчик получения экзамена по ID.
//
// Ключи ответов возвращаются только администраторам.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/testprep/internal/http/middlewarectx"
	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
)

// Handler обрабатывает запросы на получение экзамена по уникальному идентификатору.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики для получения экзамена по ID
}

// Service описывает интерфейс бизнес-логики чтения экзамена.
type Service interface {
	Get(ctx context.Context, id string) (*models.Exam, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получение экзамена
// @Tags Questions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID экзамена"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /questions/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.question.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	exam, err := h.service.Get(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		response.WriteError(w, r, http.StatusNotFound, response.CodeQuestionNotFound, "Question not found")
		return
	}
	if err != nil {
		log.Error("failed to read question", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not read question")
		return
	}

	out := *exam
	if role, _ := r.Context().Value(middlewarectx.Role).(string); role != models.RoleAdmin {
		if !exam.Published {
			response.WriteError(w, r, http.StatusNotFound, response.CodeQuestionNotFound, "Question not found")
			return
		}
		out = exam.WithoutAnswers()
	}

	log.Info("success to read question", slog.String("exam_id", exam.ID))
	render.JSON(w, r, response.StatusOKWithData(out))
}
