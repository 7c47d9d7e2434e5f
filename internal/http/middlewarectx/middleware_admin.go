package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// RoleSource текущая роль пользователя из хранилища.
type RoleSource interface {
	CurrentRole(ctx context.Context, userID string) (string, error)
}

// RoleGate проверка роли.
type RoleGate interface {
	RequireRole(id access.Identity, role string) error
}

// AdminOnly пропускает только администраторов. Роль перечитывается из
// хранилища, роль из токена не используется. Ставится после JWTMiddleware.
func AdminOnly(log *slog.Logger, roles RoleSource, gate RoleGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminOnly"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			id, ok := IdentityFromContext(r.Context())
			if !ok {
				log.Error("identity not found in context")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			role, err := roles.CurrentRole(r.Context(), id.UserID)
			if errors.Is(err, apperr.ErrNotFound) {
				log.Info("user from token no longer exists", sl.UserID(id.UserID))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}
			if err != nil {
				log.Error("failed to read current role", sl.UserID(id.UserID), sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal server error"))
				return
			}

			id.Role = role
			if err := gate.RequireRole(id, models.RoleAdmin); err != nil {
				log.Info("admin access denied", sl.UserID(id.UserID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
