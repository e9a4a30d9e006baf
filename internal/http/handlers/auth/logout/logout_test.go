package logout

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/sales-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

func TestLogoutHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{ID: "u-1"}))
	w := httptest.NewRecorder()

	New(slog.New(slog.NewTextHandler(io.Discard, nil))).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"message":"Logged out successfully"}}`, w.Body.String())
}
