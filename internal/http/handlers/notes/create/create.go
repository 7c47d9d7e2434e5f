// Package create обработчик создания заметки.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// Request тело запроса на создание заметки.
type Request struct {
	Title   string `json:"title" validate:"required,max=500"`
	Content string `json:"content"`
}

// Service создание заметки.
type Service interface {
	Create(ctx context.Context, userID, title, content string) (*models.Note, error)
}

// Handler обработчик POST /notes.
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
// @Summary Создать заметку
// @Tags Notes
// @Accept  json
// @Produce  json
// @Param request body Request true "Заголовок и текст"
// @Success 201 {object} response.Response{data=models.Note} "Созданная заметка"
// @Failure 400 {object} response.ErrorResponse "Пустой заголовок или некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован или удален"
// @Router /notes [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notes.create"

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

	note, err := h.service.Create(r.Context(), id.UserID, req.Title, req.Content)
	if errors.Is(err, apperr.ErrValidation) {
		log.Info("note rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("title is required"))
		return
	}
	// владелец удален, токен еще не истек
	if errors.Is(err, apperr.ErrNotFound) {
		log.Info("note owner not found", sl.UserID(id.UserID))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	if err != nil {
		log.Error("failed to create note", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("note created", sl.UserID(id.UserID), slog.String("note_id", note.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(note))
}
