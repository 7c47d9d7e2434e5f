// Package read обработчик чтения заметки.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// Service чтение заметки.
type Service interface {
	Get(ctx context.Context, id access.Identity, noteID string) (*models.Note, error)
}

// Handler обработчик GET /notes/{id}.
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
// @Summary Получить заметку по ID
// @Tags Notes
// @Produce  json
// @Param id path string true "ID заметки"
// @Success 200 {object} response.Response{data=models.Note} "Заметка"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Заметка не найдена"
// @Router /notes/{id} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notes.read"

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

	note, err := h.service.Get(r.Context(), id, chi.URLParam(r, "id"))
	if errors.Is(err, apperr.ErrNotFound) {
		log.Info("note not found", sl.UserID(id.UserID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("note not found"))
		return
	}
	if err != nil {
		log.Error("failed to read note", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(note))
}
