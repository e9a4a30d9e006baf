package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*models.AuthResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := models.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"}

	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(m *ServiceMock)
		wantStatusCode int
		wantBody       string
	}{
		{
			name:        "successful registration",
			requestBody: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid).Return(&models.AuthResult{
					Token: "tok",
					User:  &models.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", Role: "user"},
				}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantBody:       `"token":"tok"`,
		},
		{
			name:           "invalid json",
			requestBody:    "not a json",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:           "validation error",
			requestBody:    models.RegisterRequest{Name: "Alice", Email: "bad", Password: "123"},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       "field Email must be a valid email, field Password must be at least 6 characters",
		},
		{
			name:           "password longer than bcrypt accepts",
			requestBody:    models.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: strings.Repeat("x", 80)},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       "field Password must be at most 72 characters",
		},
		{
			name:        "email already registered",
			requestBody: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid).
					Return(nil, apperr.Validation("email already registered")).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"status":"Error","error":"email already registered"}`,
		},
		{
			name:        "internal error",
			requestBody: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid).Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"status":"Error","error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			handler := New(newNoopLogger(), svc)

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-id"))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "password")
			svc.AssertExpectations(t)
		})
	}
}
