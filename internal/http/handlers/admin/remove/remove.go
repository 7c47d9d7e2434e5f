// Package remove обработчик удаления пользователя администратором.
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

// Service удаление пользователя вместе с заметками и подписками.
type Service interface {
	DeleteUser(ctx context.Context, adminID, targetID string) error
}

// Handler обработчик DELETE /admin/users/{id}.
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
// @Summary Удалить пользователя
// @Description Удаляет пользователя, его заметки и подписки. Удалить себя нельзя
// @Tags Admin
// @Produce  json
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response "Пользователь удален"
// @Failure 400 {object} response.ErrorResponse "Попытка удалить себя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /admin/users/{id} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.remove"

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

	targetID := chi.URLParam(r, "id")
	err := h.service.DeleteUser(r.Context(), id.UserID, targetID)
	switch {
	case errors.Is(err, apperr.ErrValidation):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("cannot delete yourself"))
		return
	case errors.Is(err, apperr.ErrNotFound):
		log.Info("user not found", slog.String("target_id", targetID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case errors.Is(err, apperr.ErrConflict):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("cannot delete the last admin"))
		return
	case err != nil:
		log.Error("failed to delete user", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("user deleted", sl.UserID(id.UserID), slog.String("target_id", targetID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":      targetID,
		"message": "user deleted",
	}))
}
