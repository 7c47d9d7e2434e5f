package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSignupHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(m *ServiceMock)
		wantStatusCode int
		wantError      string
		wantStatus     string
	}{
		{
			name:        "valid registration",
			requestBody: Request{Name: "Ann", Email: "ann@example.com", Password: "password123"},
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "Ann", "ann@example.com", "password123").
					Return(&models.User{ID: "u1", Email: "ann@example.com", Name: "Ann", Role: "user", PasswordHash: "secret-hash"}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - bad email",
			requestBody:    Request{Email: "nope", Password: "password123"},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email must be a valid email",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - short password",
			requestBody:    Request{Email: "ann@example.com", Password: "short"},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password must be at least 8 characters",
			wantStatus:     "Error",
		},
		{
			name:        "email taken",
			requestBody: Request{Email: "ann@example.com", Password: "password123"},
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "", "ann@example.com", "password123").
					Return(nil, apperr.ErrConflict).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "email already registered",
			wantStatus:     "Error",
		},
		{
			name:        "storage failure",
			requestBody: Request{Email: "ann@example.com", Password: "password123"},
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "", "ann@example.com", "password123").
					Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal server error",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			handler := New(newNoopLogger(), svc)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(v)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.NotContains(t, rec.Body.String(), "secret-hash")

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Contains(t, got["error"], tt.wantError)
			} else {
				data := got["data"].(map[string]any)
				assert.Equal(t, "u1", data["id"])
				assert.Equal(t, "user", data["role"])
			}
			svc.AssertExpectations(t)
		})
	}
}
