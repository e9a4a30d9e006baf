// Package ledger содержит арифметику расчётов по продаже: создание продажи
// с предоплатой, приём очередного платежа и вычисление статуса оплаты.
// Функции пакета не обращаются к хранилищу и не зависят от времени выполнения.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// Сообщения об ошибках, которые видит клиент.
const (
	MsgAlreadyCompleted  = "Payment already completed. No remaining amount left."
	MsgAmountNotPositive = "Received amount must be greater than 0"
	MsgAmountExceeds     = "Received amount exceeds remaining balance."
	MsgTotalTooLarge     = "totalAmount must not exceed 999999999999.99"
)

// MaxAmount наибольшая сумма, которую хранит колонка NUMERIC(14,2).
var MaxAmount = decimal.RequireFromString("999999999999.99")

// Status вычисляет статус оплаты по оплаченной сумме и остатку.
func Status(upfront, received, remaining decimal.Decimal) models.PaymentStatus {
	switch {
	case remaining.Sign() <= 0:
		return models.StatusCompleted
	case upfront.Add(received).Sign() > 0:
		return models.StatusPartiallyPaid
	default:
		return models.StatusPending
	}
}

// ParseDate разбирает дату в формате YYYY-MM-DD, допускается и RFC 3339.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(models.DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(24 * time.Hour), nil
}

// NewSale проверяет данные и собирает новую продажу.
//
// ReceivedAmount всегда начинается с нуля. Ненулевая предоплата становится
// первой записью истории платежей с датой now.
func NewSale(req models.CreateSaleRequest, ownerID string, now time.Time) (*models.Sale, error) {
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return nil, apperr.Validation("clientName is required")
	}
	if req.TotalAmount == nil {
		return nil, apperr.Validation("totalAmount is required")
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperr.Validation("user is required")
	}

	total := req.TotalAmount.Round(2)
	if total.IsNegative() {
		return nil, apperr.Validation("totalAmount must not be negative")
	}
	if total.GreaterThan(MaxAmount) {
		return nil, apperr.Validation(MsgTotalTooLarge)
	}

	upfront := decimal.Zero
	if req.UpfrontAmount != nil {
		upfront = req.UpfrontAmount.Round(2)
	}
	if upfront.IsNegative() {
		return nil, apperr.Validation("upfrontAmount must not be negative")
	}
	if upfront.GreaterThan(total) {
		return nil, apperr.Validation("upfrontAmount must not exceed totalAmount")
	}

	method := models.PaymentMethod(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		return nil, apperr.Validation("paymentMethod is required")
	}
	if !method.Valid() {
		return nil, apperr.Validation("unsupported paymentMethod: " + string(method))
	}

	if strings.TrimSpace(req.LeadDate) == "" {
		return nil, apperr.Validation("leadDate is required")
	}
	leadDate, err := ParseDate(req.LeadDate)
	if err != nil {
		return nil, apperr.Validation("leadDate must be a date in format YYYY-MM-DD")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}

	remaining := total.Sub(upfront)
	sale := &models.Sale{
		ClientName:      clientName,
		TotalAmount:     total,
		UpfrontAmount:   upfront,
		ReceivedAmount:  decimal.Zero,
		RemainingAmount: remaining,
		PaymentStatus:   Status(upfront, decimal.Zero, remaining),
		PaymentMethod:   method,
		Currency:        currency,
		Description:     strings.TrimSpace(req.Description),
		LeadDate:        leadDate,
		User:            models.Owner{ID: ownerID},
		PaymentHistory:  []models.PaymentEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if upfront.IsPositive() {
		sale.PaymentHistory = append(sale.PaymentHistory, models.PaymentEntry{
			Amount: upfront,
			Date:   now,
			Method: method,
		})
	}
	return sale, nil
}

// ValidatePaymentAmount проверяет сумму платежа до обращения к продаже.
func ValidatePaymentAmount(amount decimal.Decimal) error {
	if amount.Round(2).Sign() <= 0 {
		return apperr.Validation(MsgAmountNotPositive)
	}
	return nil
}

// ApplyPayment применяет платёж к продаже.
//
// Проверки идут в порядке: сумма, завершённость продажи, способ оплаты, остаток.
// При любой ошибке продажа не меняется. При успехе обновляются полученная сумма,
// остаток, статус, дата изменения, а в историю добавляется ровно одна запись.
// Пустой method означает способ оплаты самой продажи.
func ApplyPayment(sale *models.Sale, amount decimal.Decimal, method string, now time.Time) (models.PaymentEntry, error) {
	if err := ValidatePaymentAmount(amount); err != nil {
		return models.PaymentEntry{}, err
	}
	amount = amount.Round(2)

	if sale.RemainingAmount.Sign() <= 0 {
		return models.PaymentEntry{}, apperr.InvalidState(MsgAlreadyCompleted)
	}

	entryMethod := sale.PaymentMethod
	if m := strings.TrimSpace(method); m != "" {
		entryMethod = models.PaymentMethod(m)
		if !entryMethod.Valid() {
			return models.PaymentEntry{}, apperr.Validation("unsupported paymentMethod: " + m)
		}
	}

	received := sale.ReceivedAmount.Add(amount)
	remaining := sale.TotalAmount.Sub(sale.UpfrontAmount.Add(received))
	if remaining.IsNegative() {
		return models.PaymentEntry{}, apperr.Validation(MsgAmountExceeds)
	}

	entry := models.PaymentEntry{
		Amount: amount,
		Date:   now,
		Method: entryMethod,
	}
	sale.ReceivedAmount = received
	sale.RemainingAmount = remaining
	sale.PaymentStatus = Status(sale.UpfrontAmount, received, remaining)
	sale.PaymentHistory = append(sale.PaymentHistory, entry)
	sale.UpdatedAt = now
	return entry, nil
}
