package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"payrecon/internal/app"
	"payrecon/internal/config"
	"payrecon/internal/domain"
)

// testCLI runs commands against a seeded in-memory store and the mock gateway.
func testCLI(t *testing.T) (*cli, *app.Container) {
	t.Helper()
	t.Setenv("STORE_DRIVER", app.StoreDriverMemory)
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("GATEWAY_DRIVER", app.GatewayDriverMock)
	t.Setenv("GATEWAY_STATUS_MAP", "../../configs/gateway_status.yaml")

	container, err := app.NewContainer(context.Background(), config.Load(), zap.NewNop())
	require.NoError(t, err)

	created := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	for i, p := range []struct{ id, tranID string }{{"p1", "TXN-1"}, {"p2", ""}} {
		require.NoError(t, container.Payments.Create(context.Background(), &domain.Payment{
			ID:            p.id,
			OrderID:       "ORD-" + p.id,
			TranID:        p.tranID,
			Amount:        decimal.NewFromInt(250),
			Currency:      "BDT",
			Status:        domain.PaymentStatusPending,
			PaymentMethod: domain.PaymentMethodBkash,
			Items:         []domain.PaymentItem{{Name: "Go Course", Price: decimal.NewFromInt(250), Quantity: 1}},
			CreatedAt:     created.Add(time.Duration(i) * time.Hour),
			UpdatedAt:     created,
		}))
	}

	c := &cli{
		connect: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app.Container, error) {
			return container, nil
		},
	}
	return c, container
}

func execute(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(c)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	c, _ := testCLI(t)

	out, err := execute(t, c, "list", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "p2")
	assert.NotContains(t, out, "ORD-p1")
	assert.Contains(t, out, "page 1/2, 2 payments, 0 completed")
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	c, _ := testCLI(t)

	_, err := execute(t, c, "list", "--status", "refunded")
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestSetStatus(t *testing.T) {
	c, container := testCLI(t)

	out, err := execute(t, c, "set-status", "p1", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "p1 TXN-1 -> completed")

	out, err = execute(t, c, "set-status", "TXN-1", "failed", "--by-tran")
	require.NoError(t, err)
	assert.Contains(t, out, "-> failed")

	_, err = execute(t, c, "set-status", "unknown", "cancelled", "--tran-id", "TXN-1")
	require.NoError(t, err)

	p, err := container.Payments.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, p.Status)
	assert.NotNil(t, p.PaymentDate)
}

func TestSetStatus_Errors(t *testing.T) {
	c, _ := testCLI(t)

	_, err := execute(t, c, "set-status", "p1", "refunded")
	assert.ErrorContains(t, err, "unknown status")

	_, err = execute(t, c, "set-status", "missing", "completed")
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, c, "set-status", "p1")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c, _ := testCLI(t)

	out, err := execute(t, c, "validate", "TXN-1")
	require.NoError(t, err)
	assert.Contains(t, out, "-> completed")

	_, err = execute(t, c, "validate", "p2", "--by-id")
	assert.ErrorContains(t, err, "transaction id")
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	c, _ := testCLI(t)

	_, err := execute(t, c, "migrate")
	assert.ErrorContains(t, err, "STORE_DRIVER=postgres")
}
