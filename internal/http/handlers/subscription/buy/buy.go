// Package buy реализует HTTP-обработчик покупки тарифа.
//
// Покупка пакета того же типа продлевает действующую подписку: квота
// суммируется, срок premium выбирается наибольший.
package buy

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
	subservice "github.com/magabrotheeeer/testprep/internal/services/subscription"
)

// Request описывает тело запроса на покупку.
type Request struct {
	TariffID string `json:"tariffId" validate:"required,uuid"`
}

// Handler обрабатывает запросы на покупку тарифа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает покупку тарифа.
type Service interface {
	Buy(ctx context.Context, userID, tariffID string) (*models.Subscription, error)
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
// @Summary Покупка тарифа
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Тариф"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /subscriptions/buy [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.buy"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
		return
	}

	var req Request
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

	sub, err := h.service.Buy(r.Context(), userID, req.TariffID)
	switch {
	case errors.Is(err, subservice.ErrTariffNotFound):
		response.WriteError(w, r, http.StatusNotFound, response.CodeTariffNotFound, "Tariff not found")
		return
	case errors.Is(err, subservice.ErrTariffUnavailable):
		response.WriteError(w, r, http.StatusBadRequest, response.CodeTariffUnavailable, "Tariff is no longer available")
		return
	case err != nil:
		log.Error("failed to buy tariff", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, response.CodeInternal, "could not buy tariff")
		return
	}

	log.Info("tariff bought", slog.String("user_id", userID), slog.String("subscription_id", sub.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(models.EntitlementOf(sub)))
}
