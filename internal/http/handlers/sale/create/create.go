// Package create реализует HTTP-обработчик создания продажи.
//
// Продажа создаётся на текущего пользователя. Администратор может указать
// владельца в поле user.
package create

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

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Create(ctx context.Context, caller *models.User, req models.CreateSaleRequest) (*models.Sale, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание продажи
// @Tags Sales
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CreateSaleRequest true "Данные продажи"
// @Success 201 {object} response.Response{data=models.Sale}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /sales [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sale.create"

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

	var req models.CreateSaleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	log.Info("request body decoded", slog.String("client", req.ClientName))

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.RenderValidation(w, r, err)
		return
	}

	sale, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		log.Error("failed to create sale", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("sale created", slog.String("id", sale.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(sale))
}
