// Package remove обработчик удаления заметки.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
)

// Service удаление заметки.
type Service interface {
	Delete(ctx context.Context, userID, noteID string) error
}

// Handler обработчик DELETE /notes/{id}.
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
// @Summary Удалить заметку по ID
// @Tags Notes
// @Produce  json
// @Param id path string true "ID заметки"
// @Success 200 {object} response.Response "Заметка удалена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Заметка не найдена"
// @Router /notes/{id} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notes.remove"

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

	noteID := chi.URLParam(r, "id")
	err := h.service.Delete(r.Context(), id.UserID, noteID)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Info("note not found", sl.UserID(id.UserID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("note not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete note", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("note deleted", sl.UserID(id.UserID), slog.String("note_id", noteID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":      noteID,
		"message": "note deleted",
	}))
}
