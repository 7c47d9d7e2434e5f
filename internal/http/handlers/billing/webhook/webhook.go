// Package webhook прием событий Stripe.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/metrics"
	"github.com/magabrotheeeer/notes-app/internal/paymentprovider"
)

// MaxBodyBytes предел размера тела вебхука.
const MaxBodyBytes = 65536

// SignatureHeader заголовок с подписью Stripe.
const SignatureHeader = "Stripe-Signature"

// Parser проверяет подпись и разбирает событие.
type Parser interface {
	ParseEvent(payload []byte, signature string) (*paymentprovider.Event, error)
}

// Service применяет событие к реестру подписок.
type Service interface {
	HandleEvent(ctx context.Context, ev *paymentprovider.Event) error
}

// Recorder учет обработанных событий.
type Recorder interface {
	ObserveWebhook(eventType, outcome string)
}

// Handler обработчик POST /billing/webhook.
type Handler struct {
	log      *slog.Logger
	parser   Parser
	service  Service
	recorder Recorder
}

// New создает Handler.
func New(log *slog.Logger, parser Parser, service Service, recorder Recorder) *Handler {
	return &Handler{
		log:      log,
		parser:   parser,
		service:  service,
		recorder: recorder,
	}
}

// Received тело успешного ответа процессору.
type Received struct {
	Received bool `json:"received"`
}

// ServeHTTP godoc
// @Summary Вебхук Stripe
// @Description Принимает checkout.session.completed, customer.subscription.updated и customer.subscription.deleted. 5xx просит процессор повторить доставку
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} Received "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Временная ошибка"
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Warn("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	ev, err := h.parser.ParseEvent(body, r.Header.Get(SignatureHeader))
	if err != nil {
		h.recorder.ObserveWebhook("", metrics.OutcomeInvalidSignature)
		if errors.Is(err, paymentprovider.ErrInvalidSignature) {
			log.Warn("webhook signature rejected", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
		log.Warn("failed to parse webhook event", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed event"))
		return
	}

	log = log.With(slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))
	if err := h.service.HandleEvent(r.Context(), ev); err != nil {
		h.recorder.ObserveWebhook(ev.Type, metrics.OutcomeFailed)
		log.Error("failed to handle webhook event", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	h.recorder.ObserveWebhook(ev.Type, metrics.OutcomeProcessed)
	log.Info("webhook processed")
	render.JSON(w, r, Received{Received: true})
}
