// Package check реализует HTTP-обработчик проверки права на прохождение теста.
package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/testprep/internal/http/middlewarectx"
	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	subservice "github.com/magabrotheeeer/testprep/internal/services/subscription"
)

// Handler отвечает, может ли пользователь пройти тест прямо сейчас.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает проверку права.
type Service interface {
	Check(ctx context.Context, userID string) (subservice.CheckResult, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверка доступа к тесту
// @Description Исчерпанная подписка деактивируется при проверке.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /subscriptions/check [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
		return
	}

	res, err := h.service.Check(r.Context(), userID)
	if err != nil {
		log.Error("failed to check subscription", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not check subscription")
		return
	}

	log.Debug("subscription checked", slog.String("user_id", userID), slog.Bool("can_take_test", res.CanTakeTest))
	render.JSON(w, r, response.StatusOKWithData(res))
}
