// Package checkout обработчик создания сессии оплаты Pro-подписки.
package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/paymentprovider"
)

// Request необязательный тариф, по умолчанию берется тариф из конфига.
type Request struct {
	PriceID string `json:"price_id"`
}

// Service создание сессии оплаты.
type Service interface {
	Start(ctx context.Context, id access.Identity, priceID string) (*paymentprovider.CheckoutResult, error)
}

// Handler обработчик POST /billing/checkout.
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
// @Summary Начать оплату
// @Description Создает сессию Stripe Checkout в режиме подписки и возвращает ссылку на оплату
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param request body Request false "Тариф"
// @Success 200 {object} response.Response{data=paymentprovider.CheckoutResult} "Сессия оплаты"
// @Failure 400 {object} response.ErrorResponse "Тариф не задан"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка процессора"
// @Router /billing/checkout [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"

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

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	res, err := h.service.Start(r.Context(), id, req.PriceID)
	if errors.Is(err, apperr.ErrValidation) {
		log.Warn("checkout rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("price_id is required"))
		return
	}
	if err != nil {
		log.Error("failed to start checkout", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start checkout"))
		return
	}

	log.Info("checkout started", sl.UserID(id.UserID), slog.String("session_id", res.SessionID))
	render.JSON(w, r, response.OKWithData(res))
}
