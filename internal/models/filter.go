package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultPage номер страницы по умолчанию.
	DefaultPage = 1
	// DefaultPageSize размер страницы по умолчанию.
	DefaultPageSize = 10
	// MaxPageSize верхняя граница размера страницы.
	MaxPageSize = 100
)

// SaleFilter параметры выборки продаж, передаются в слой доступа к данным.
// Пустые поля не участвуют в фильтрации, заданные объединяются через AND.
type SaleFilter struct {
	ClientName    string        // подстрока имени клиента без учёта регистра
	StartDate     *time.Time    // leadDate >= StartDate
	EndDate       *time.Time    // leadDate <= EndDate
	PaymentMethod PaymentMethod // точное совпадение
	UserID        string        // владелец продажи
	Page          int
	PageSize      int
}

// Offset смещение для текущей страницы.
func (f SaleFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// SalePage страница продаж вместе с общим числом подходящих записей.
type SalePage struct {
	Sales      []*Sale `json:"sales"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}

// Analytics сводка по всем продажам.
type Analytics struct {
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	PendingPayments decimal.Decimal `json:"pendingPayments"`
	TotalSales      int             `json:"totalSales"`
	CompletedSales  int             `json:"completedSales"`
	PendingSales    int             `json:"pendingSales"`
}
