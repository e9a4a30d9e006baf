package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// История платежей собирается в JSON прямо в запросе, чтобы чтение
// одной продажи и страницы продаж обходилось одним обращением к базе.
const saleSelect = `SELECT s.id, s.client_name, s.total_amount, s.upfront_amount, s.received_amount,
			      s.remaining_amount, s.payment_status, s.payment_method, s.currency, s.description,
			      s.lead_date, s.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
			      s.version, s.created_at, s.updated_at,
			      COALESCE((SELECT json_agg(json_build_object(
			                  'amount', ph.amount, 'date', ph.paid_at, 'method', ph.method) ORDER BY ph.id)
			                FROM payment_history ph WHERE ph.sale_id = s.id), '[]'::json)
			  FROM sales s
			  LEFT JOIN users u ON u.id = s.user_id`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanSale(row rowScanner) (*models.Sale, error) {
	var (
		sale    models.Sale
		method  string
		status  string
		history []byte
	)
	if err := row.Scan(&sale.ID, &sale.ClientName, &sale.TotalAmount, &sale.UpfrontAmount,
		&sale.ReceivedAmount, &sale.RemainingAmount, &status, &method, &sale.Currency,
		&sale.Description, &sale.LeadDate, &sale.User.ID, &sale.User.Name, &sale.User.Email,
		&sale.Version, &sale.CreatedAt, &sale.UpdatedAt, &history); err != nil {
		return nil, err
	}
	sale.PaymentStatus = models.PaymentStatus(status)
	sale.PaymentMethod = models.PaymentMethod(method)
	sale.PaymentHistory = []models.PaymentEntry{}
	if err := json.Unmarshal(history, &sale.PaymentHistory); err != nil {
		return nil, fmt.Errorf("decode payment history: %w", err)
	}
	return &sale, nil
}

func saleErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidTextValue {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("Sale not found"))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// MsgAmountOutOfRange возвращается, когда сумма не помещается в NUMERIC(14,2).
const MsgAmountOutOfRange = "amount is out of range"

// amountErr переводит переполнение числовой колонки в ошибку валидации.
func amountErr(op string, err error) error {
	if pgCode(err) == pgNumericOutOfRange {
		return fmt.Errorf("%s: %w", op, apperr.Validation(MsgAmountOutOfRange))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func readSale(ctx context.Context, q querier, id string) (*models.Sale, error) {
	return scanSale(q.QueryRowContext(ctx, saleSelect+` WHERE s.id = $1`, id))
}

// CreateSale сохраняет продажу вместе с начальной историей платежей в одной транзакции.
func (s *Storage) CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	const op = "storage.CreateSale"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO sales (client_name, total_amount, upfront_amount, received_amount,
			      remaining_amount, payment_status, payment_method, currency, description,
			      lead_date, user_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
			  RETURNING id`
	var id string
	if err = tx.QueryRowContext(ctx, query,
		sale.ClientName, sale.TotalAmount, sale.UpfrontAmount, sale.ReceivedAmount,
		sale.RemainingAmount, string(sale.PaymentStatus), string(sale.PaymentMethod), sale.Currency,
		sale.Description, sale.LeadDate, sale.User.ID, sale.CreatedAt).Scan(&id); err != nil {
		return nil, amountErr(op, err)
	}

	for _, entry := range sale.PaymentHistory {
		if err = insertPayment(ctx, tx, id, entry); err != nil {
			return nil, amountErr(op, err)
		}
	}

	created, err := readSale(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func insertPayment(ctx context.Context, tx *sql.Tx, saleID string, entry models.PaymentEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payment_history (sale_id, amount, paid_at, method) VALUES ($1, $2, $3, $4)`,
		saleID, entry.Amount, entry.Date, string(entry.Method))
	return err
}

// ReadSale возвращает продажу с именем и email владельца и историей платежей.
func (s *Storage) ReadSale(ctx context.Context, id string) (*models.Sale, error) {
	const op = "storage.ReadSale"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sale, err := readSale(ctx, s.DB, id)
	if err != nil {
		return nil, saleErr(op, err)
	}
	return sale, nil
}

// RemoveSale удаляет продажу, история платежей удаляется каскадно.
func (s *Storage) RemoveSale(ctx context.Context, id string) error {
	const op = "storage.RemoveSale"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return saleErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("Sale not found"))
	}
	return nil
}

// RecordPayment атомарно применяет платёж к продаже.
//
// Строка продажи блокируется до конца транзакции, поэтому параллельные платежи
// по одной продаже выполняются строго по очереди и видят актуальный остаток.
// apply получает заблокированную продажу и меняет её, ошибка apply откатывает транзакцию.
func (s *Storage) RecordPayment(ctx context.Context, id string,
	apply func(sale *models.Sale) (models.PaymentEntry, error)) (*models.Sale, error) {
	const op = "storage.RecordPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var lockedID string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM sales WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID); err != nil {
		return nil, saleErr(op, err)
	}

	sale, err := readSale(ctx, tx, lockedID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry, err := apply(sale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE sales
			  SET received_amount = $1, remaining_amount = $2, payment_status = $3,
			      version = version + 1, updated_at = $4
			  WHERE id = $5
			  RETURNING version`
	if err = tx.QueryRowContext(ctx, query,
		sale.ReceivedAmount, sale.RemainingAmount, string(sale.PaymentStatus),
		sale.UpdatedAt, lockedID).Scan(&sale.Version); err != nil {
		return nil, amountErr(op, err)
	}
	if err = insertPayment(ctx, tx, lockedID, entry); err != nil {
		return nil, amountErr(op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sale, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func buildSaleWhere(filter models.SaleFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if name := strings.TrimSpace(filter.ClientName); name != "" {
		add("s.client_name ILIKE $%d", "%"+escapeLike(name)+"%")
	}
	if filter.StartDate != nil {
		add("s.lead_date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("s.lead_date <= $%d", *filter.EndDate)
	}
	if filter.PaymentMethod != "" {
		add("s.payment_method = $%d", string(filter.PaymentMethod))
	}
	if filter.UserID != "" {
		add("s.user_id = $%d", filter.UserID)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListSales возвращает страницу продаж по фильтру и общее число подходящих записей.
// Продажи упорядочены от новых к старым.
func (s *Storage) ListSales(ctx context.Context, filter models.SaleFilter) (*models.SalePage, error) {
	const op = "storage.ListSales"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where, args := buildSaleWhere(filter)

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales s`+where, args...).Scan(&total); err != nil {
		return nil, saleErr(op, err)
	}

	query := saleSelect + where +
		fmt.Sprintf(" ORDER BY s.created_at DESC, s.id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.QueryContext(ctx, query, append(args, filter.PageSize, filter.Offset())...)
	if err != nil {
		return nil, saleErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	sales := make([]*models.Sale, 0, filter.PageSize)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sales = append(sales, sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totalPages := 0
	if filter.PageSize > 0 {
		totalPages = (total + filter.PageSize - 1) / filter.PageSize
	}
	return &models.SalePage{
		Sales:      sales,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// SalesAnalytics считает сводку по всем продажам одним запросом.
// Выручка включает предоплату и все последующие платежи.
func (s *Storage) SalesAnalytics(ctx context.Context) (*models.Analytics, error) {
	const op = "storage.SalesAnalytics"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COALESCE(SUM(upfront_amount + received_amount), 0),
			      COALESCE(SUM(remaining_amount), 0),
			      COUNT(*),
			      COUNT(*) FILTER (WHERE remaining_amount = 0)
			  FROM sales`
	var a models.Analytics
	if err := s.DB.QueryRowContext(ctx, query).Scan(
		&a.TotalRevenue, &a.PendingPayments, &a.TotalSales, &a.CompletedSales); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.PendingSales = a.TotalSales - a.CompletedSales
	return &a, nil
}
