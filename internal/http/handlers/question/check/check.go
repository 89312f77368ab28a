// Package check реализует HTTP-обработчик проверки ответов на экзамен.
//
// Ответы проверяются только при наличии пригодной подписки; каждая успешная
// проверка списывает одну попытку и возвращается вместе со снимком прав.
package check

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/testprep/internal/http/middlewarectx"
	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
	gradingservice "github.com/magabrotheeeer/testprep/internal/services/grading"
)

// Handler обрабатывает отправку ответов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает проверку ответов.
type Service interface {
	GradeSubmission(ctx context.Context, userID string, sub models.Submission) (*models.GradingResult, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверка ответов
// @Tags Questions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.Submission true "Ответы"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /questions/check-answers [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.question.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		response.WriteError(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
		return
	}

	var req models.Submission
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}

	res, err := h.service.GradeSubmission(r.Context(), userID, req)
	switch {
	case errors.Is(err, gradingservice.ErrValidation):
		response.WriteError(w, r, http.StatusBadRequest, response.CodeValidation, "questionId and answers are required")
		return
	case errors.Is(err, gradingservice.ErrNoActiveSubscription):
		log.Info("no active subscription", slog.String("user_id", userID))
		response.WriteError(w, r, http.StatusForbidden, response.CodeNoActiveSubscription,
			"No active subscription. Please purchase a subscription")
		return
	case errors.Is(err, gradingservice.ErrQuestionNotFound):
		response.WriteError(w, r, http.StatusNotFound, response.CodeQuestionNotFound, "Question not found")
		return
	case errors.Is(err, gradingservice.ErrNoParts):
		response.WriteError(w, r, http.StatusBadRequest, response.CodeNoParts, "No parts found for this question")
		return
	case err != nil:
		log.Error("failed to grade submission", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not check answers")
		return
	}

	log.Info("submission graded",
		slog.String("user_id", userID),
		slog.String("exam_id", res.ExamID),
		slog.Float64("score", res.Score))
	render.JSON(w, r, response.StatusOKWithData(res))
}
