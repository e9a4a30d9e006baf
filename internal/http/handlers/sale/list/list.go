package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
	services "github.com/magabrotheeeer/sales-tracker/internal/services/sale"
)

type Service interface {
	List(ctx context.Context, params services.ListParams) (*models.SalePage, error)
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
// @Summary Список продаж
// @Description Фильтры объединяются через AND. Даты в формате YYYY-MM-DD, границы включаются.
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Param clientName query string false "Подстрока имени клиента"
// @Param startDate query string false "Начало периода leadDate"
// @Param endDate query string false "Конец периода leadDate"
// @Param paymentMethod query string false "Способ оплаты"
// @Param user query string false "ID владельца"
// @Param page query int false "Номер страницы" default(1)
// @Param pageSize query int false "Размер страницы" default(10)
// @Success 200 {object} response.Response{data=models.SalePage}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /sales [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sale.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	params := services.ListParams{
		ClientName:    q.Get("clientName"),
		StartDate:     q.Get("startDate"),
		EndDate:       q.Get("endDate"),
		PaymentMethod: q.Get("paymentMethod"),
		User:          q.Get("user"),
		Page:          q.Get("page"),
		PageSize:      q.Get("pageSize"),
	}

	page, err := h.service.List(r.Context(), params)
	if err != nil {
		log.Error("failed to list sales", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Debug("sales listed", slog.Int("count", len(page.Sales)), slog.Int("total", page.Total))
	render.JSON(w, r, response.StatusOKWithData(page))
}
