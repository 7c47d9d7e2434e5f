package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/notes-app/internal/config"
	"github.com/magabrotheeeer/notes-app/internal/migrations"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции проекта.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("notes"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/notes?sslmode=disable", host, port.Port())

	storage, err := New(ctx, config.Storage{
		StorageConnectionString: dsn,
		QueryTimeout:            5 * time.Second,
		MaxOpenConns:            5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	return storage
}

// TestDataFactory создает тестовые данные напрямую через SQL.
type TestDataFactory struct {
	t       *testing.T
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных.
func NewTestDataFactory(t *testing.T, storage *Storage) *TestDataFactory {
	return &TestDataFactory{t: t, storage: storage}
}

// CreateUser создает пользователя с заданной ролью и возвращает его id.
func (f *TestDataFactory) CreateUser(email, role string, createdAt time.Time) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO users (email, name, password_hash, role, created_at, updated_at)
		VALUES ($1, 'Test', 'hash', $2, $3, $3) RETURNING id`, email, role, createdAt).Scan(&id)
	require.NoError(f.t, err)
	return id
}

// CreateNote создает заметку с заданным временем изменения.
func (f *TestDataFactory) CreateNote(userID, title, content string, favorite bool, updatedAt time.Time) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO notes (user_id, title, content, is_favorite, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`, userID, title, content, favorite, updatedAt).Scan(&id)
	require.NoError(f.t, err)
	return id
}

// CreateSubscription создает подписку с заданным статусом.
func (f *TestDataFactory) CreateSubscription(userID, stripeID, customerID string, status models.SubscriptionStatus, updatedAt time.Time) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions
		(user_id, stripe_subscription_id, stripe_customer_id, status, price_id, current_period_end, updated_at)
		VALUES ($1, $2, $3, $4, 'price_1', $5, $5) RETURNING id`,
		userID, stripeID, customerID, status, updatedAt).Scan(&id)
	require.NoError(f.t, err)
	return id
}

func ptr[T any](v T) *T {
	return &v
}
