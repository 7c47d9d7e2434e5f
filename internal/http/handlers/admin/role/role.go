// Package role обработчик смены роли пользователя.
package role

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

// Request новая роль.
type Request struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// Service смена роли.
type Service interface {
	SetRole(ctx context.Context, adminID, targetID, role string) (*models.User, error)
}

// Handler обработчик PATCH /admin/users/{id}/role.
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
// @Summary Сменить роль пользователя
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path string true "ID пользователя"
// @Param request body Request true "Роль user или admin"
// @Success 200 {object} response.Response{data=models.User} "Обновленный пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректная роль"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Нельзя снять последнего администратора"
// @Router /admin/users/{id}/role [patch]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.role"

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

	targetID := chi.URLParam(r, "id")
	user, err := h.service.SetRole(r.Context(), id.UserID, targetID, req.Role)
	switch {
	case errors.Is(err, apperr.ErrValidation):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid role"))
		return
	case errors.Is(err, apperr.ErrNotFound):
		log.Info("user not found", slog.String("target_id", targetID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case errors.Is(err, apperr.ErrConflict):
		log.Warn("refused to demote last admin", slog.String("target_id", targetID))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("cannot demote the last admin"))
		return
	case err != nil:
		log.Error("failed to set role", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("role changed", sl.UserID(id.UserID), slog.String("target_id", targetID), slog.String("role", user.Role))
	render.JSON(w, r, response.OKWithData(user))
}
