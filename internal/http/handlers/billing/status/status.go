// Package status обработчик чтения подписки текущего пользователя.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// Service чтение последней подписки.
type Service interface {
	CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// Handler обработчик GET /billing/subscription.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущая подписка
// @Description Последняя подписка пользователя или null, если оплат не было
// @Tags Billing
// @Produce  json
// @Success 200 {object} response.NullableData{data=models.Subscription} "Подписка или null"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /billing/subscription [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok {
		log.Error("identity not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	sub, err := h.service.CurrentSubscription(r.Context(), id.UserID)
	if err != nil {
		log.Error("failed to read subscription", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithNullable(sub))
}
