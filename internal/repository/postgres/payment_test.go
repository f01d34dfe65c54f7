package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrecon/internal/domain"
	"payrecon/internal/repository"
)

var columns = []string{
	"id", "order_id", "tran_id", "customer_name", "customer_email", "customer_phone",
	"amount", "currency", "status", "payment_method", "items", "created_at", "payment_date", "updated_at",
}

func setupMockDB(t *testing.T) (*PaymentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPaymentRepository(db), mock
}

func TestGetByID_ScansRow(t *testing.T) {
	repo, mock := setupMockDB(t)
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(columns).AddRow(
		"11111111-1111-1111-1111-111111111111", "ORD-1", "TXN-1", "Alice", "alice@example.com", "017",
		"300.00", "BDT", "completed", "bkash", []byte(`[{"name":"Go","price":"300","quantity":1}]`),
		now, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE id = $1`)).
		WithArgs("11111111-1111-1111-1111-111111111111").
		WillReturnRows(rows)

	p, err := repo.GetByID(context.Background(), "11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	assert.Equal(t, "TXN-1", p.TranID)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
	assert.True(t, decimal.NewFromInt(300).Equal(p.Amount))
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Go", p.Items[0].Name)
	require.NotNil(t, p.PaymentDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetByID_MalformedIDIsNotFound(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE id = $1`)).
		WithArgs("not-a-uuid").
		WillReturnError(&pq.Error{Code: codeInvalidTextRepr})

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateStatus_KeepsExistingPaymentDate(t *testing.T) {
	repo, mock := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`payment_date = COALESCE(payment_date, $2)`)).
		WithArgs(domain.PaymentStatusFailed, sqlmock.AnyArg(), now, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "p1", domain.PaymentStatusFailed, &now, now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_NoRowsIsNotFound(t *testing.T) {
	repo, mock := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "p1", domain.PaymentStatusFailed, nil, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreate_DuplicateTranID(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO payments`)).
		WillReturnError(&pq.Error{Code: codeUniqueViolation})

	err := repo.Create(context.Background(), &domain.Payment{
		ID:            "p1",
		OrderID:       "ORD-1",
		TranID:        "TXN-1",
		Amount:        decimal.NewFromInt(10),
		Status:        domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodCard,
		Items:         []domain.PaymentItem{{Name: "x", Price: decimal.NewFromInt(10), Quantity: 1}},
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateTranID)
}

func TestCreate_DuplicateID(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO payments`)).
		WillReturnError(&pq.Error{Code: codeUniqueViolation, Constraint: paymentsPrimaryKey})

	err := repo.Create(context.Background(), &domain.Payment{
		ID:            "p1",
		OrderID:       "ORD-1",
		Amount:        decimal.NewFromInt(10),
		Status:        domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodCard,
		Items:         []domain.PaymentItem{{Name: "x", Price: decimal.NewFromInt(10), Quantity: 1}},
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateID)
}

func TestFind_BuildsFilteredPagedQuery(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM payments WHERE status = $1`)).
		WithArgs("completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC, id ASC LIMIT $2 OFFSET $3`)).
		WithArgs("completed", 5, 5).
		WillReturnRows(sqlmock.NewRows(columns))

	payments, total, err := repo.Find(context.Background(), domain.PaymentFilter{
		Page:   2,
		Limit:  5,
		Status: domain.PaymentStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Empty(t, payments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTotals_ScansAggregates(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) FILTER (WHERE status = 'completed')`)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "completed", "sum"}).AddRow(3, 1, "300.00"))

	totals, err := repo.Totals(context.Background(), domain.PaymentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, totals.Count)
	assert.Equal(t, 1, totals.CompletedCount)
	assert.True(t, decimal.NewFromInt(300).Equal(totals.CompletedAmount))
}

func TestWhereClause_SearchIncludesMethodDisplayNames(t *testing.T) {
	where, args := whereClause(domain.PaymentFilter{Search: "bank"})
	assert.Contains(t, where, "order_id ILIKE $1")
	assert.Contains(t, where, "payment_method = ANY($2)")
	require.Len(t, args, 2)
	assert.Equal(t, "%bank%", args[0])

	where, args = whereClause(domain.PaymentFilter{Search: "50%_off"})
	assert.NotContains(t, where, "ANY")
	assert.Equal(t, `%50\%\_off%`, args[0])

	where, args = whereClause(domain.PaymentFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestMigrate_RunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
