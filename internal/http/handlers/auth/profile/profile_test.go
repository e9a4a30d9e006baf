package profile

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Profile(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestProfileHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("профиль найден", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Profile", mock.Anything, "u-1").
			Return(&models.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", Role: "user"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{ID: "u-1", Role: "user"}))
		w := httptest.NewRecorder()

		New(logger, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"alice@example.com"`)
		svc.AssertExpectations(t)
	})

	t.Run("пользователь удалён", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Profile", mock.Anything, "u-1").Return(nil, apperr.NotFound("User not found")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{ID: "u-1"}))
		w := httptest.NewRecorder()

		New(logger, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "User not found")
	})

	t.Run("no user in context", func(t *testing.T) {
		svc := new(MockService)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		w := httptest.NewRecorder()

		New(logger, svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
	})
}
