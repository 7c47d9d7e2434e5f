// Package access принимает решения о доступе: кто сделал запрос,
// хватает ли ему роли и принадлежит ли ему ресурс. Пакет не выполняет
// ввода-вывода, HTTP-привязка находится в middlewarectx.
package access

import (
	"fmt"

	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/jwt"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// Identity аутентифицированный пользователь запроса.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin сообщает, что у пользователя роль администратора.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// TokenParser проверяет сессионный токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// Gate проверки доступа для всех защищенных операций.
type Gate struct {
	tokens TokenParser
}

// NewGate создает Gate.
func NewGate(tokens TokenParser) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate превращает токен сессии в Identity.
func (g *Gate) Authenticate(token string) (Identity, error) {
	const op = "access.Authenticate"
	if token == "" {
		return Identity{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthenticated)
	}
	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w: %w", op, apperr.ErrUnauthenticated, err)
	}
	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// RequireRole проверяет роль. Администратор проходит любую проверку роли.
func (g *Gate) RequireRole(id Identity, role string) error {
	if id.UserID == "" {
		return fmt.Errorf("access.RequireRole: %w", apperr.ErrUnauthenticated)
	}
	if id.Role == role || id.IsAdmin() {
		return nil
	}
	return fmt.Errorf("access.RequireRole: %w", apperr.ErrForbidden)
}

// AuthorizeOwner разрешает доступ только владельцу ресурса. Для чужого
// ресурса возвращается apperr.ErrNotFound, чтобы не раскрывать его существование.
func (g *Gate) AuthorizeOwner(id Identity, ownerID string) error {
	if id.UserID == "" {
		return fmt.Errorf("access.AuthorizeOwner: %w", apperr.ErrUnauthenticated)
	}
	if id.UserID != ownerID {
		return fmt.Errorf("access.AuthorizeOwner: %w", apperr.ErrNotFound)
	}
	return nil
}
