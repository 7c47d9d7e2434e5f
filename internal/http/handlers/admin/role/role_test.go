package role

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SetRole(ctx context.Context, adminID, targetID, role string) (*models.User, error) {
	args := m.Called(ctx, adminID, targetID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRoleHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "promote",
			body: `{"role":"admin"}`,
			setupMock: func(m *MockService) {
				m.On("SetRole", mock.Anything, "admin-1", "u2", "admin").
					Return(&models.User{ID: "u2", Email: "b@example.com", Role: "admin"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown role",
			body:           `{"role":"owner"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "field Role must be one of: user admin",
		},
		{
			name:           "missing role",
			body:           `{}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "field Role is a required field",
		},
		{
			name: "unknown user",
			body: `{"role":"user"}`,
			setupMock: func(m *MockService) {
				m.On("SetRole", mock.Anything, "admin-1", "u2", "user").Return(nil, apperr.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "user not found",
		},
		{
			name: "last admin",
			body: `{"role":"user"}`,
			setupMock: func(m *MockService) {
				m.On("SetRole", mock.Anything, "admin-1", "u2", "user").Return(nil, apperr.ErrConflict)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "cannot demote the last admin",
		},
		{
			name: "store error",
			body: `{"role":"user"}`,
			setupMock: func(m *MockService) {
				m.On("SetRole", mock.Anything, "admin-1", "u2", "user").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPatch, "/admin/users/u2/role", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "u2")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "test-request-id")
			ctx = middlewarectx.WithIdentity(ctx, access.Identity{UserID: "admin-1", Role: "admin"})
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, got["error"])
			} else {
				assert.Equal(t, "admin", got["data"].(map[string]any)["role"])
			}
			svc.AssertExpectations(t)
		})
	}
}
