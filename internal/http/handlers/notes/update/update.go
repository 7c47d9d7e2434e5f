// Package update обработчик частичного обновления заметки.
package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// Request поля, которые нужно изменить. Отсутствующие поля не меняются.
type Request struct {
	Title    *string `json:"title" validate:"omitempty,max=500"`
	Content  *string `json:"content"`
	Favorite *bool   `json:"favorite"`
}

// Service обновление заметки.
type Service interface {
	Update(ctx context.Context, userID, noteID string, patch models.NotePatch) (*models.Note, error)
}

// Handler обработчик PUT /notes/{id}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
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
// @Summary Обновить заметку по ID
// @Description Частичное обновление: заголовок, текст, избранное. Время изменения обновляется всегда
// @Tags Notes
// @Accept  json
// @Produce  json
// @Param id path string true "ID заметки"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Note} "Обновленная заметка"
// @Failure 400 {object} response.ErrorResponse "Пустой заголовок, пустое тело или некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Заметка не найдена"
// @Router /notes/{id} [put]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notes.update"

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
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	patch := models.NotePatch{
		Title:      req.Title,
		Content:    req.Content,
		IsFavorite: req.Favorite,
	}
	if patch.Empty() {
		log.Info("empty update body")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("nothing to update"))
		return
	}

	note, err := h.service.Update(r.Context(), id.UserID, chi.URLParam(r, "id"), patch)
	switch {
	case errors.Is(err, apperr.ErrValidation):
		log.Info("update rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("title is required"))
		return
	case errors.Is(err, apperr.ErrNotFound):
		log.Info("note not found", sl.UserID(id.UserID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("note not found"))
		return
	case err != nil:
		log.Error("failed to update note", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(note))
}
