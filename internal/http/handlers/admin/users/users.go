// Package users обработчик административного списка пользователей.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// Service выборка пользователей со статистикой.
type Service interface {
	ListUsersWithStats(ctx context.Context) ([]*models.UserStats, error)
}

// Handler обработчик GET /admin/users.
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
// @Summary Список пользователей
// @Description Все пользователи, новые первыми, с последней подпиской и числом заметок
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.UserStats} "Пользователи"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Router /admin/users [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.ListUsersWithStats(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}
	if stats == nil {
		stats = []*models.UserStats{}
	}

	render.JSON(w, r, response.OKWithData(stats))
}
