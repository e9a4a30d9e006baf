// Package update реализует приём очередного платежа по продаже.
//
// Сумма платежа проверяется раньше, чем продажа ищется в хранилище, поэтому
// некорректная сумма даёт 400 даже для несуществующей продажи.
package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	RecordPayment(ctx context.Context, id string, req models.PaymentRequest) (*models.Sale, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Приём платежа
// @Tags Sales
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID продажи"
// @Param request body models.PaymentRequest true "Сумма и способ оплаты"
// @Success 200 {object} response.Response{data=models.Sale}
// @Failure 400 {object} response.ErrorResponse "Некорректная сумма или продажа уже оплачена"
// @Failure 404 {object} response.ErrorResponse
// @Router /sales/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sale.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.PaymentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	id := chi.URLParam(r, "id")
	sale, err := h.service.RecordPayment(r.Context(), id, req)
	if err != nil {
		log.Warn("failed to record payment", slog.String("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("payment recorded",
		slog.String("id", sale.ID),
		slog.String("status", string(sale.PaymentStatus)),
	)
	render.JSON(w, r, response.StatusOKWithData(sale))
}
