// Package history реализует HTTP-обработчик истории подписок и результатов.
package history

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

// Handler возвращает все подписки пользователя и постраничную историю проверок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение истории.
type Service interface {
	History(ctx context.Context, userID string, limit, offset int) ([]models.Subscription, []models.GradingResult, error)
}

// Response — тело успешного ответа.
type Response struct {
	Subscriptions []models.Subscription  `json:"subscriptions"`
	Results       []models.GradingResult `json:"results"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary История подписок
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы результатов"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=Response}
// @Router /subscriptions/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
		return
	}

	limit, offset, err := request.Paging(r)
	if err != nil {
		response.WriteError(w, r, http.StatusBadRequest, response.CodeValidation, err.Error())
		return
	}

	subs, results, err := h.service.History(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error("failed to load history", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not load history")
		return
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	if results == nil {
		results = []models.GradingResult{}
	}

	render.JSON(w, r, response.StatusOKWithData(Response{
		Subscriptions: subs,
		Results:       results,
		Limit:         limit,
		Offset:        offset,
	}))
}
