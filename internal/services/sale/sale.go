// Package services содержит бизнес-логику продаж: создание, чтение с кешированием,
// выборку по фильтру, приём платежей, удаление и сводную аналитику.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/events"
	"github.com/magabrotheeeer/sales-tracker/internal/ledger"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// SaleRepository определяет методы для работы с продажами в хранилище.
type SaleRepository interface {
	// CreateSale сохраняет продажу и возвращает её в сохранённом виде.
	CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error)
	// ReadSale возвращает продажу по id вместе с владельцем и историей платежей.
	ReadSale(ctx context.Context, id string) (*models.Sale, error)
	// RemoveSale удаляет продажу по id.
	RemoveSale(ctx context.Context, id string) error
	// RecordPayment атомарно применяет apply к заблокированной продаже.
	RecordPayment(ctx context.Context, id string, apply func(sale *models.Sale) (models.PaymentEntry, error)) (*models.Sale, error)
	// ListSales возвращает страницу продаж по фильтру.
	ListSales(ctx context.Context, filter models.SaleFilter) (*models.SalePage, error)
	// SalesAnalytics считает сводку по всем продажам.
	SalesAnalytics(ctx context.Context) (*models.Analytics, error)
}

// UserLookup проверяет существование владельца продажи.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// SetIfNewer сохраняет значение, только если в кеше нет записи той же или более новой версии.
	SetIfNewer(ctx context.Context, key string, value any, version int, expiration time.Duration) (bool, error)
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Metrics счётчики бизнес-операций.
type Metrics interface {
	SaleCreated()
	PaymentRecorded(status models.PaymentStatus)
}

// ListParams параметры выборки в том виде, в каком они пришли в запросе.
type ListParams struct {
	ClientName    string
	StartDate     string
	EndDate       string
	PaymentMethod string
	User          string
	Page          string
	PageSize      string
}

// SaleService реализует бизнес-логику работы с продажами, включая кеширование.
type SaleService struct {
	repo      SaleRepository
	users     UserLookup
	cache     Cache
	publisher events.Publisher
	metrics   Metrics
	cacheTTL  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewSaleService создает новый экземпляр SaleService.
func NewSaleService(repo SaleRepository, users UserLookup, cache Cache, publisher events.Publisher,
	metrics Metrics, cacheTTL time.Duration, log *slog.Logger) *SaleService {
	return &SaleService{
		repo:      repo,
		users:     users,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		log:       log,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// MsgSaleNotFound сообщение для удалённой или отсутствующей продажи.
const MsgSaleNotFound = "Sale not found"

// deletedVersion версия отметки об удалении, её не перекроет ни одна запись продажи.
const deletedVersion = math.MaxInt32

func cacheKey(id string) string {
	return "sale:" + id
}

// cacheSale кладёт продажу в кеш, не затирая более новую версию.
// Если записать не удалось, ключ удаляется, чтобы не оставить старое значение.
func (s *SaleService) cacheSale(ctx context.Context, sale *models.Sale) {
	key := cacheKey(sale.ID)
	if _, err := s.cache.SetIfNewer(ctx, key, sale, sale.Version, s.cacheTTL); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
		}
	}
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("invalid sale id")
	}
	return nil
}

// Create создает продажу. Администратор может указать владельца в запросе,
// остальные пользователи создают продажи только на себя.
func (s *SaleService) Create(ctx context.Context, caller *models.User, req models.CreateSaleRequest) (*models.Sale, error) {
	if caller == nil {
		return nil, apperr.Unauthorized("Not authorized")
	}

	ownerID := caller.ID
	if owner := strings.TrimSpace(req.User); owner != "" && caller.IsAdmin() {
		if _, err := uuid.Parse(owner); err != nil {
			return nil, apperr.Validation("user must be a valid id")
		}
		if _, err := s.users.GetUserByID(ctx, owner); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.Validation("user does not exist")
			}
			return nil, err
		}
		ownerID = owner
	}

	now := s.now()
	sale, err := ledger.NewSale(req, ownerID, now)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new sale", slog.String("id", created.ID), slog.String("user_id", ownerID))
	s.metrics.SaleCreated()

	s.cacheSale(ctx, created)
	s.publish(ctx, events.NewSaleEvent(events.SaleCreated, created, nil, now))
	return created, nil
}

// Read возвращает продажу по id, используя кеш или репозиторий.
// Продажа из базы попадает в кеш, только если там нет более новой версии:
// чтение, начатое до параллельного платежа, не перезапишет его результат.
func (s *SaleService) Read(ctx context.Context, id string) (*models.Sale, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	key := cacheKey(id)
	var cached models.Sale
	found, err := s.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	case found && cached.Version == deletedVersion:
		return nil, apperr.NotFound(MsgSaleNotFound)
	case found:
		return &cached, nil
	}

	sale, err := s.repo.ReadSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.cache.SetIfNewer(ctx, key, sale, sale.Version, s.cacheTTL); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
	return sale, nil
}

// ParseFilter проверяет параметры выборки и подставляет значения по умолчанию.
func ParseFilter(p ListParams) (models.SaleFilter, error) {
	filter := models.SaleFilter{
		ClientName: strings.TrimSpace(p.ClientName),
		Page:       models.DefaultPage,
		PageSize:   models.DefaultPageSize,
	}

	if v := strings.TrimSpace(p.StartDate); v != "" {
		t, err := ledger.ParseDate(v)
		if err != nil {
			return filter, apperr.Validation("startDate must be a date in format YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if v := strings.TrimSpace(p.EndDate); v != "" {
		t, err := ledger.ParseDate(v)
		if err != nil {
			return filter, apperr.Validation("endDate must be a date in format YYYY-MM-DD")
		}
		filter.EndDate = &t
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, apperr.Validation("endDate must not be before startDate")
	}

	if v := strings.TrimSpace(p.PaymentMethod); v != "" {
		method := models.PaymentMethod(v)
		if !method.Valid() {
			return filter, apperr.Validation("unsupported paymentMethod: " + v)
		}
		filter.PaymentMethod = method
	}

	if v := strings.TrimSpace(p.User); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			return filter, apperr.Validation("user must be a valid id")
		}
		filter.UserID = v
	}

	var err error
	if filter.Page, err = parsePositive("page", p.Page, models.DefaultPage); err != nil {
		return filter, err
	}
	if filter.PageSize, err = parsePositive("pageSize", p.PageSize, models.DefaultPageSize); err != nil {
		return filter, err
	}
	if filter.PageSize > models.MaxPageSize {
		filter.PageSize = models.MaxPageSize
	}
	return filter, nil
}

func parsePositive(name, value string, def int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, apperr.Validation(fmt.Sprintf("%s must be a positive integer", name))
	}
	return n, nil
}

// List возвращает страницу продаж по фильтру.
func (s *SaleService) List(ctx context.Context, params ListParams) (*models.SalePage, error) {
	filter, err := ParseFilter(params)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, filter)
}

// RecordPayment принимает очередной платёж по продаже.
func (s *SaleService) RecordPayment(ctx context.Context, id string, req models.PaymentRequest) (*models.Sale, error) {
	if req.ReceivedAmount == nil {
		return nil, apperr.Validation(ledger.MsgAmountNotPositive)
	}
	amount := req.ReceivedAmount.Round(2)
	if err := ledger.ValidatePaymentAmount(amount); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}

	now := s.now()
	var entry models.PaymentEntry
	sale, err := s.repo.RecordPayment(ctx, id, func(sale *models.Sale) (models.PaymentEntry, error) {
		var applyErr error
		entry, applyErr = ledger.ApplyPayment(sale, amount, req.PaymentMethod, now)
		return entry, applyErr
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payment recorded",
		slog.String("id", sale.ID),
		slog.String("amount", entry.Amount.String()),
		slog.String("status", string(sale.PaymentStatus)),
	)
	s.metrics.PaymentRecorded(sale.PaymentStatus)

	s.cacheSale(ctx, sale)

	paid := entry.Amount
	s.publish(ctx, events.NewSaleEvent(events.PaymentRecorded, sale, &paid, now))
	if sale.PaymentStatus == models.StatusCompleted {
		s.publish(ctx, events.NewSaleEvent(events.SaleCompleted, sale, nil, now))
	}
	return sale, nil
}

// Remove удаляет продажу по id. После удаления в кеш пишется отметка
// с максимальной версией, поэтому запоздавшее чтение не вернёт продажу обратно.
func (s *SaleService) Remove(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	if err := s.repo.RemoveSale(ctx, id); err != nil {
		return err
	}
	s.log.Info("sale removed", slog.String("id", id))

	key := cacheKey(id)
	if err := s.cache.Set(ctx, key, models.Sale{ID: id, Version: deletedVersion}, s.cacheTTL); err != nil {
		s.log.Warn("failed to mark sale deleted in cache", slog.String("key", key), sl.Err(err))
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
		}
	}

	s.publish(ctx, events.NewSaleEvent(events.SaleDeleted, &models.Sale{ID: id}, nil, s.now()))
	return nil
}

// Analytics возвращает сводку по всем продажам. Для пустой базы все значения нулевые.
func (s *SaleService) Analytics(ctx context.Context) (*models.Analytics, error) {
	a, err := s.repo.SalesAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	a.TotalRevenue = a.TotalRevenue.Round(2)
	a.PendingPayments = a.PendingPayments.Round(2)
	return a, nil
}

func (s *SaleService) publish(ctx context.Context, event events.SaleEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish event",
			slog.String("type", event.Type),
			slog.String("sale_id", event.SaleID),
			sl.Err(err),
		)
	}
}
