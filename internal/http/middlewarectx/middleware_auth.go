// Package middlewarectx содержит HTTP middleware: проверку сессии,
// доступ администратора, ограничение частоты запросов и метрики.
//
// JWTMiddleware проверяет токен из заголовка Authorization и кладет
// access.Identity в контекст запроса. При ошибке возвращает 401.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/http/response"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// IdentityKey ключ access.Identity в контексте.
const IdentityKey Key = "identity"

// Authenticator превращает токен в Identity.
type Authenticator interface {
	Authenticate(token string) (access.Identity, error)
}

// WithIdentity кладет Identity в контекст.
func WithIdentity(ctx context.Context, id access.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFromContext достает Identity, false если запрос не аутентифицирован.
func IdentityFromContext(ctx context.Context) (access.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(access.Identity)
	return id, ok && id.UserID != ""
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
func JWTMiddleware(gate Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			id, err := gate.Authenticate(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
