// Package profileupdate реализует HTTP-обработчик изменения профиля текущего пользователя.
package profileupdate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

type Service interface {
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменение профиля
// @Description Меняет имя, email и пароль. Пустые поля не меняются.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Новые значения"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/profile [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profileupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		response.RenderError(w, r, apperr.Unauthorized(middlewarectx.MsgNoToken))
		return
	}

	var req models.UpdateProfileRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.RenderValidation(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), caller.ID, req)
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("profile updated", slog.String("user_id", user.ID))
	render.JSON(w, r, response.StatusOKWithData(user))
}
