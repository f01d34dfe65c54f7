package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS payments (
		id             UUID PRIMARY KEY,
		order_id       TEXT NOT NULL,
		tran_id        TEXT UNIQUE,
		customer_name  TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		amount         NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
		currency       VARCHAR(8) NOT NULL,
		status         VARCHAR(16) NOT NULL CHECK (status IN ('pending', 'completed', 'failed', 'cancelled')),
		payment_method VARCHAR(32) NOT NULL,
		items          JSONB NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		payment_date   TIMESTAMPTZ,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS payments_created_at_idx ON payments (created_at DESC, id)`,
	`CREATE INDEX IF NOT EXISTS payments_status_idx ON payments (status)`,
	`CREATE INDEX IF NOT EXISTS payments_order_id_idx ON payments (order_id)`,
}

// Migrate creates the payments table and its indexes if they do not exist.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
