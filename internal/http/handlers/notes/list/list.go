// Package list обработчик списка заметок.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// Service чтение списка заметок.
type Service interface {
	List(ctx context.Context, userID string, filter models.NoteFilter) ([]*models.Note, error)
}

// Handler обработчик GET /notes.
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
// @Summary Список заметок
// @Description Заметки текущего пользователя, сначала недавно измененные. Поиск без учета регистра по заголовку и тексту
// @Tags Notes
// @Produce  json
// @Param search query string false "Подстрока для поиска"
// @Param favorite query bool false "Только избранные"
// @Success 200 {object} response.Response{data=[]models.Note} "Список заметок"
// @Failure 400 {object} response.ErrorResponse "Некорректный параметр"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /notes [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notes.list"

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

	filter := models.NoteFilter{Search: r.URL.Query().Get("search")}
	if fav := r.URL.Query().Get("favorite"); fav != "" {
		v, err := strconv.ParseBool(fav)
		if err != nil {
			log.Info("invalid favorite parameter", slog.String("favorite", fav))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("favorite must be true or false"))
			return
		}
		filter.FavoriteOnly = v
	}

	notes, err := h.service.List(r.Context(), id.UserID, filter)
	if err != nil {
		log.Error("failed to list notes", sl.UserID(id.UserID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}
	if notes == nil {
		notes = []*models.Note{}
	}

	render.JSON(w, r, response.OKWithData(notes))
}
