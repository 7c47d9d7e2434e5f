package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
)

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) Authenticate(token string) (access.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(access.Identity), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	authMock := new(AuthenticatorMock)
	logger := newNoopLogger()

	handlerCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		id, ok := middlewarectx.IdentityFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "u1", id.UserID)
		assert.Equal(t, "user", id.Role)
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.JWTMiddleware(authMock, logger)(nextHandler)

	tests := []struct {
		name           string
		authHeader     string
		mockID         *access.Identity
		mockErr        error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "token rejected",
			authHeader:     "Bearer token",
			mockID:         &access.Identity{},
			mockErr:        apperr.ErrUnauthenticated,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer validtoken",
			mockID:         &access.Identity{UserID: "u1", Role: "user"},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false
			authMock.ExpectedCalls = nil
			authMock.Calls = nil
			if tt.mockID != nil {
				authMock.On("Authenticate", strings.TrimPrefix(tt.authHeader, "Bearer ")).
					Return(*tt.mockID, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			authMock.AssertExpectations(t)
		})
	}
}

func TestIdentityFromContext(t *testing.T) {
	_, ok := middlewarectx.IdentityFromContext(context.Background())
	assert.False(t, ok)

	_, ok = middlewarectx.IdentityFromContext(middlewarectx.WithIdentity(context.Background(), access.Identity{}))
	assert.False(t, ok)

	id, ok := middlewarectx.IdentityFromContext(middlewarectx.WithIdentity(context.Background(), access.Identity{UserID: "u1"}))
	assert.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
}

type RoleSourceMock struct {
	mock.Mock
}

func (m *RoleSourceMock) CurrentRole(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name       string
		identity   *access.Identity
		storeRole  string
		storeErr   error
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "no identity",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token says admin but store says user",
			identity:   &access.Identity{UserID: "u1", Role: "admin"},
			storeRole:  "user",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "token says user but store says admin",
			identity:   &access.Identity{UserID: "u1", Role: "user"},
			storeRole:  "admin",
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "user deleted",
			identity:   &access.Identity{UserID: "u1", Role: "admin"},
			storeErr:   apperr.ErrNotFound,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "store failure",
			identity:   &access.Identity{UserID: "u1", Role: "admin"},
			storeErr:   errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles := new(RoleSourceMock)
			if tt.identity != nil {
				roles.On("CurrentRole", mock.Anything, tt.identity.UserID).Return(tt.storeRole, tt.storeErr).Once()
			}
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				id, _ := middlewarectx.IdentityFromContext(r.Context())
				assert.Equal(t, "admin", id.Role)
				w.WriteHeader(http.StatusOK)
			})
			mw := middlewarectx.AdminOnly(newNoopLogger(), roles, access.NewGate(nil))(next)

			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			roles.AssertExpectations(t)
		})
	}
}
