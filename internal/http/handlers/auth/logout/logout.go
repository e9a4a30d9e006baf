package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
)

// Message ответ на выход из системы.
const Message = "Logged out successfully"

// Handler завершает сессию. Токены не хранятся на сервере, клиент просто забывает токен.
type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{
		log: log,
	}
}

// ServeHTTP godoc
// @Summary Выход из системы
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	user, _ := middlewarectx.UserFromContext(r.Context())
	if user != nil {
		h.log.Info("user logged out",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("user_id", user.ID))
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": Message,
	}))
}
