package create

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	valid := models.RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "secret123", Role: "admin"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное создание",
			body: `{"name":"Bob","email":"bob@example.com","password":"secret123","role":"admin"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, valid).
					Return(&models.User{ID: "u-1", Name: "Bob", Email: "bob@example.com", Role: "admin"}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"role":"admin"`,
		},
		{
			name:           "invalid json",
			body:           `{"name":`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "failed to decode request",
		},
		{
			name:           "короткий пароль",
			body:           `{"name":"Bob","email":"bob@example.com","password":"123"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"status":"Error"`,
		},
		{
			name: "email занят",
			body: `{"name":"Bob","email":"bob@example.com","password":"secret123","role":"admin"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, valid).Return(nil, apperr.Validation("email already registered")).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "email already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
