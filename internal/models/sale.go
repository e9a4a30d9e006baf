package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod способ оплаты продажи.
type PaymentMethod string

const (
	MethodCashapp      PaymentMethod = "Cashapp"
	MethodZelle        PaymentMethod = "Zelle"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodPaypal       PaymentMethod = "Paypal"
	MethodCreditCard   PaymentMethod = "Credit Card"
	MethodOther        PaymentMethod = "Other"
)

// PaymentMethods закрытый список допустимых способов оплаты.
var PaymentMethods = []PaymentMethod{
	MethodCashapp, MethodZelle, MethodBankTransfer, MethodPaypal, MethodCreditCard, MethodOther,
}

// Valid проверяет, что способ оплаты входит в закрытый список.
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// PaymentStatus статус оплаты продажи.
type PaymentStatus string

const (
	StatusPending       PaymentStatus = "Pending"
	StatusPartiallyPaid PaymentStatus = "Partially Paid"
	StatusCompleted     PaymentStatus = "Completed"
)

// DefaultCurrency метка валюты по умолчанию.
const DefaultCurrency = "USD"

// DateLayout формат дат во входных данных и фильтрах.
const DateLayout = "2006-01-02"

// PaymentEntry одна запись истории платежей. После добавления не меняется.
type PaymentEntry struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Method PaymentMethod   `json:"method"`
}

// Owner владелец продажи. Name и Email заполняются при чтении одной продажи.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Sale продажа клиенту с учётом частичных оплат.
//
// RemainingAmount = TotalAmount - (UpfrontAmount + ReceivedAmount) и не бывает отрицательным.
// ReceivedAmount накапливает только платежи, внесённые после создания продажи.
type Sale struct {
	ID              string          `json:"id"`
	ClientName      string          `json:"clientName"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	UpfrontAmount   decimal.Decimal `json:"upfrontAmount"`
	ReceivedAmount  decimal.Decimal `json:"receivedAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description,omitempty"`
	LeadDate        time.Time       `json:"leadDate"`
	User            Owner           `json:"user"`
	PaymentHistory  []PaymentEntry  `json:"paymentHistory"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PaidAmount сумма всех внесённых платежей, включая предоплату.
func (s *Sale) PaidAmount() decimal.Decimal {
	return s.UpfrontAmount.Add(s.ReceivedAmount)
}

// CreateSaleRequest данные для создания продажи.
//
// Суммы передаются указателями: validator отличает отсутствующее поле от нуля.
// User учитывается только для администратора, остальные создают продажи на себя.
type CreateSaleRequest struct {
	ClientName    string           `json:"clientName" validate:"required"`
	TotalAmount   *decimal.Decimal `json:"totalAmount" validate:"required"`
	UpfrontAmount *decimal.Decimal `json:"upfrontAmount,omitempty"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`
	Currency      string           `json:"currency,omitempty"`
	Description   string           `json:"description,omitempty"`
	LeadDate      string           `json:"leadDate" validate:"required"`
	User          string           `json:"user,omitempty" validate:"omitempty,uuid"`
}

// PaymentRequest данные очередного платежа по продаже.
type PaymentRequest struct {
	ReceivedAmount *decimal.Decimal `json:"receivedAmount"`
	PaymentMethod  string           `json:"paymentMethod,omitempty"`
}
