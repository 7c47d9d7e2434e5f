package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

func TestStorage_CreateUser(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()

	u, err := storage.CreateUser(ctx, models.User{
		Email:        "Alice@Example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Alice@Example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.False(t, u.CreatedAt.IsZero())

	tests := []struct {
		name  string
		email string
	}{
		{name: "same email", email: "Alice@Example.com"},
		{name: "different case", email: "alice@example.COM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.CreateUser(ctx, models.User{Email: tt.email, PasswordHash: "h", Role: models.RoleUser})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrConflict)
		})
	}

	t.Run("lookup ignores case", func(t *testing.T) {
		got, err := storage.GetUserByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := storage.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("by id", func(t *testing.T) {
		got, err := storage.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Name)

		_, err = storage.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = storage.GetUserByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestStorage_SetUserRole(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := NewTestDataFactory(t, storage)
	now := time.Now()

	admin := factory.CreateUser("admin@example.com", models.RoleAdmin, now)
	user := factory.CreateUser("user@example.com", models.RoleUser, now)

	t.Run("promote user", func(t *testing.T) {
		u, err := storage.SetUserRole(ctx, user, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, u.Role)

		role, err := storage.GetUserRole(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, role)
	})

	t.Run("demote one of two admins", func(t *testing.T) {
		u, err := storage.SetUserRole(ctx, user, models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, u.Role)
	})

	t.Run("last admin cannot be demoted", func(t *testing.T) {
		_, err := storage.SetUserRole(ctx, admin, models.RoleUser)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrConflict)

		role, err := storage.GetUserRole(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, role)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := storage.SetUserRole(ctx, uuid.NewString(), models.RoleAdmin)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("invalid role rejected by schema", func(t *testing.T) {
		_, err := storage.SetUserRole(ctx, user, "owner")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestStorage_SetUserRole_ReflectedInListing(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := NewTestDataFactory(t, storage)
	now := time.Now()

	factory.CreateUser("admin@example.com", models.RoleAdmin, now.Add(-time.Hour))
	user := factory.CreateUser("user@example.com", models.RoleUser, now)

	roleOf := func(t *testing.T, userID string) string {
		t.Helper()
		stats, err := storage.ListUsersWithStats(ctx)
		require.NoError(t, err)
		for _, s := range stats {
			if s.ID == userID {
				return s.Role
			}
		}
		t.Fatalf("user %s missing from listing", userID)
		return ""
	}

	require.Equal(t, models.RoleUser, roleOf(t, user))

	_, err := storage.SetUserRole(ctx, user, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, roleOf(t, user))

	_, err = storage.SetUserRole(ctx, user, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, roleOf(t, user))
}

func TestStorage_DeleteUser_Cascades(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := NewTestDataFactory(t, storage)
	now := time.Now()

	admin := factory.CreateUser("admin@example.com", models.RoleAdmin, now)
	user := factory.CreateUser("user@example.com", models.RoleUser, now)
	noteID := factory.CreateNote(user, "Shopping", "milk", false, now)
	factory.CreateSubscription(user, "sub_1", "cus_1", models.StatusActive, now)

	require.NoError(t, storage.DeleteUser(ctx, user))

	_, err := storage.GetNote(ctx, noteID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = storage.GetSubscriptionByStripeID(ctx, "sub_1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = storage.DeleteUser(ctx, user)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = storage.DeleteUser(ctx, admin)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}
