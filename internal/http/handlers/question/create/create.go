// Package create реализует HTTP-обработчик создания экзамена (admin).
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/testprep/internal/http/middlewarectx"
	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
)

// Handler обрабатывает запросы на создание экзамена.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает создание экзамена.
type Service interface {
	Create(ctx context.Context, createdBy string, in models.DummyExam) (*models.Exam, error)
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
// @Summary Создание экзамена
// @Tags Questions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyExam true "Экзамен с разделами"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /questions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.question.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyExam
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

	userID, _ := middlewarectx.UserIDFrom(r.Context())
	exam, err := h.service.Create(r.Context(), userID, req)
	if errors.Is(err, models.ErrAlreadyExists) {
		response.WriteError(w, r, http.StatusConflict, response.CodeAlreadyExists, "question with this slug already exists")
		return
	}
	if err != nil {
		log.Error("failed to create question", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not create question")
		return
	}

	log.Info("question created", slog.String("exam_id", exam.ID), slog.Int("parts", len(exam.Parts)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(exam))
}
