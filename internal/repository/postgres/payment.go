package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"payrecon/internal/domain"
	"payrecon/internal/repository"
)

const paymentColumns = `id, order_id, tran_id, customer_name, customer_email, customer_phone,
		amount, currency, status, payment_method, items, created_at, payment_date, updated_at`

// itemRow is the JSONB representation of a payment item.
type itemRow struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	items := make([]itemRow, len(payment.Items))
	for i, it := range payment.Items {
		items[i] = itemRow{Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	var tranID sql.NullString
	if payment.HasTranID() {
		tranID = sql.NullString{String: payment.TranID, Valid: true}
	}

	var paymentDate sql.NullTime
	if payment.PaymentDate != nil {
		paymentDate = sql.NullTime{Time: *payment.PaymentDate, Valid: true}
	}

	_, err = r.q.ExecContext(ctx, query,
		payment.ID,
		payment.OrderID,
		tranID,
		payment.CustomerName,
		payment.CustomerEmail,
		payment.CustomerPhone,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.PaymentMethod,
		itemsJSON,
		payment.CreatedAt,
		paymentDate,
		payment.UpdatedAt,
	)
	if pqCode(err) == codeUniqueViolation {
		if pqConstraint(err) == paymentsPrimaryKey {
			return repository.ErrDuplicateID
		}
		return repository.ErrDuplicateTranID
	}
	return err
}

// Find returns one page of payments matching the filter and the total match count.
func (r *PaymentRepository) Find(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int, error) {
	filter = filter.Normalize()
	where, args := whereClause(filter)

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT %s FROM payments%s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		paymentColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0, filter.Limit)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// Totals aggregates every payment matching the filter.
func (r *PaymentRepository) Totals(ctx context.Context, filter domain.PaymentFilter) (domain.PaymentTotals, error) {
	where, args := whereClause(filter)
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)
		FROM payments` + where

	var totals domain.PaymentTotals
	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&totals.Count,
		&totals.CompletedCount,
		&totals.CompletedAmount,
	)
	return totals, err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByTranID retrieves a payment by its gateway transaction id.
func (r *PaymentRepository) GetByTranID(ctx context.Context, tranID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tran_id = $1`
	return r.getOne(ctx, query, tranID)
}

// UpdateStatus writes status, payment date and updated-at in one statement.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, paymentDate *time.Time, updatedAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $1, payment_date = COALESCE(payment_date, $2), updated_at = $3
		WHERE id = $4
	`

	var date sql.NullTime
	if paymentDate != nil {
		date = sql.NullTime{Time: *paymentDate, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, status, date, updatedAt, id)
	if err != nil {
		if pqCode(err) == codeInvalidTextRepr {
			return repository.ErrNotFound
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, key string) (*domain.Payment, error) {
	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		// A malformed uuid can never match a row.
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == codeInvalidTextRepr {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var (
		payment     domain.Payment
		tranID      sql.NullString
		itemsJSON   []byte
		paymentDate sql.NullTime
	)

	err := s.Scan(
		&payment.ID,
		&payment.OrderID,
		&tranID,
		&payment.CustomerName,
		&payment.CustomerEmail,
		&payment.CustomerPhone,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.PaymentMethod,
		&itemsJSON,
		&payment.CreatedAt,
		&paymentDate,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tranID.Valid {
		payment.TranID = tranID.String
	}
	if paymentDate.Valid {
		d := paymentDate.Time
		payment.PaymentDate = &d
	}

	var items []itemRow
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("decode items of payment %s: %w", payment.ID, err)
	}
	payment.Items = make([]domain.PaymentItem, len(items))
	for i, it := range items {
		payment.Items[i] = domain.PaymentItem{Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}

	return &payment, nil
}
