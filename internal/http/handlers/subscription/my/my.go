// Package my реализует HTTP-обработчик получения действующих подписок пользователя.
package my

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

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	My(ctx context.Context, userID string) ([]models.Subscription, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Мои подписки
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /subscriptions/my [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.my"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
		return
	}

	subs, err := h.service.My(r.Context(), userID)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not list subscriptions")
		return
	}

	out := make([]models.Entitlement, 0, len(subs))
	for i := range subs {
		out = append(out, models.EntitlementOf(&subs[i]))
	}
	render.JSON(w, r, response.StatusOKWithData(out))
}
