package analytics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

type Service interface {
	Analytics(ctx context.Context) (*models.Analytics, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сводка по продажам
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Analytics}
// @Failure 403 {object} response.ErrorResponse
// @Router /sales/analytics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sale.analytics"

	a, err := h.service.Analytics(r.Context())
	if err != nil {
		h.log.Error("failed to build analytics",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(a))
}
