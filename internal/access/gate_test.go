package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/jwt"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

func TestGate_Authenticate(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Hour)
	gate := NewGate(maker)

	token, err := maker.GenerateToken("user-1", models.RoleAdmin)
	require.NoError(t, err)
	expired, err := jwt.NewJWTMaker("secret", -time.Minute).GenerateToken("user-1", models.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		want    Identity
		wantErr error
	}{
		{name: "valid token", token: token, want: Identity{UserID: "user-1", Role: models.RoleAdmin}},
		{name: "empty token", token: "", wantErr: apperr.ErrUnauthenticated},
		{name: "garbage", token: "abc", wantErr: apperr.ErrUnauthenticated},
		{name: "expired", token: expired, wantErr: apperr.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.Authenticate(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, Identity{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGate_RequireRole(t *testing.T) {
	gate := NewGate(nil)

	tests := []struct {
		name    string
		id      Identity
		role    string
		wantErr error
	}{
		{name: "admin for admin", id: Identity{UserID: "a", Role: models.RoleAdmin}, role: models.RoleAdmin},
		{name: "admin passes user check", id: Identity{UserID: "a", Role: models.RoleAdmin}, role: models.RoleUser},
		{name: "user for user", id: Identity{UserID: "u", Role: models.RoleUser}, role: models.RoleUser},
		{name: "user for admin", id: Identity{UserID: "u", Role: models.RoleUser}, role: models.RoleAdmin, wantErr: apperr.ErrForbidden},
		{name: "anonymous", id: Identity{}, role: models.RoleUser, wantErr: apperr.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.RequireRole(tt.id, tt.role)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGate_AuthorizeOwner(t *testing.T) {
	gate := NewGate(nil)

	assert.NoError(t, gate.AuthorizeOwner(Identity{UserID: "u1", Role: models.RoleUser}, "u1"))
	assert.ErrorIs(t, gate.AuthorizeOwner(Identity{UserID: "u2", Role: models.RoleUser}, "u1"), apperr.ErrNotFound)
	// администратор не читает чужие заметки
	assert.ErrorIs(t, gate.AuthorizeOwner(Identity{UserID: "admin", Role: models.RoleAdmin}, "u1"), apperr.ErrNotFound)
	assert.ErrorIs(t, gate.AuthorizeOwner(Identity{}, "u1"), apperr.ErrUnauthenticated)
}
