package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"payrecon/internal/app"
	"payrecon/internal/domain"
	"payrecon/internal/repository/postgres"
)

func migrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the payments schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, container *app.Container) error {
				if container.DB == nil {
					return errors.New("migrate requires STORE_DRIVER=postgres")
				}
				if err := postgres.Migrate(ctx, container.DB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}

func listCmd(c *cli) *cobra.Command {
	var (
		filter    domain.PaymentFilter
		status    string
		method    string
		startDate string
		endDate   string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments with summary statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				s, ok := domain.ParsePaymentStatus(status)
				if !ok {
					return fmt.Errorf("%w: status %q", domain.ErrInvalidFilter, status)
				}
				filter.Status = s
			}
			if method != "" {
				m, ok := domain.ParsePaymentMethod(method)
				if !ok {
					return fmt.Errorf("%w: payment method %q", domain.ErrInvalidFilter, method)
				}
				filter.PaymentMethod = m
			}

			var err error
			if filter.StartDate, err = domain.ParseFilterDate(startDate, false); err != nil {
				return err
			}
			if filter.EndDate, err = domain.ParseFilterDate(endDate, true); err != nil {
				return err
			}

			return c.run(cmd, func(ctx context.Context, container *app.Container) error {
				page, err := container.Reconciliation.List(ctx, filter)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), page)
				}
				return writePage(cmd.OutOrStdout(), page)
			})
		},
	}

	cmd.Flags().IntVarP(&filter.Page, "page", "p", 1, "page number")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", domain.DefaultPageLimit, "payments per page")
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "match order id, customer or method name")
	cmd.Flags().StringVar(&status, "status", "", "pending, completed, failed or cancelled")
	cmd.Flags().StringVar(&method, "method", "", "payment method, e.g. bkash or card")
	cmd.Flags().StringVar(&startDate, "from", "", "created on or after (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&endDate, "to", "", "created on or before (YYYY-MM-DD or RFC3339)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}

func setStatusCmd(c *cli) *cobra.Command {
	var (
		tranID string
		byTran bool
	)

	cmd := &cobra.Command{
		Use:   "set-status <payment-id|tran-id> <status>",
		Short: "Set the status of a payment",
		Long: `Set the status of a payment.

The first argument is a payment id. With --tran-id, that transaction id is
used when the payment id is unknown. With --by-tran the first argument is
a gateway transaction id.

Examples:
  paymentctl set-status 3f1c... completed
  paymentctl set-status 3f1c... failed --tran-id SSL-20260301-0042
  paymentctl set-status SSL-20260301-0042 cancelled --by-tran`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := domain.ParsePaymentStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q", args[1])
			}

			return c.run(cmd, func(ctx context.Context, container *app.Container) error {
				var (
					payment *domain.Payment
					err     error
				)
				if byTran {
					payment, err = container.Reconciliation.UpdateStatusByTranID(ctx, args[0], status)
				} else {
					payment, err = container.Reconciliation.UpdateStatusWithFallback(ctx, args[0], tranID, status)
				}
				if err != nil {
					return err
				}
				return writePayment(cmd.OutOrStdout(), payment)
			})
		},
	}

	cmd.Flags().StringVar(&tranID, "tran-id", "", "fallback transaction id")
	cmd.Flags().BoolVar(&byTran, "by-tran", false, "address the payment by transaction id")
	cmd.MarkFlagsMutuallyExclusive("tran-id", "by-tran")

	return cmd
}

func validateCmd(c *cli) *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "validate <tran-id>",
		Short: "Query the gateway and apply its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, container *app.Container) error {
				var (
					payment *domain.Payment
					err     error
				)
				if byID {
					payment, err = container.Reconciliation.ValidateByPaymentID(ctx, args[0])
				} else {
					payment, err = container.Reconciliation.Validate(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return writePayment(cmd.OutOrStdout(), payment)
			})
		},
	}

	cmd.Flags().BoolVar(&byID, "by-id", false, "the argument is a payment id")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePage(w io.Writer, page *domain.PaymentPage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORDER\tTRAN ID\tMETHOD\tAMOUNT\tSTATUS\tCREATED")
	for _, p := range page.Payments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %s\t%s\t%s\n",
			p.ID, p.OrderID, dash(p.TranID), p.PaymentMethod.DisplayName(),
			p.Amount.StringFixed(2), p.Currency, p.Status, p.CreatedAt.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\npage %d/%d, %d payments, %d completed, total %s, average %s\n",
		page.Pagination.Page, page.Pagination.TotalPages, page.Stats.Total, page.Stats.Completed,
		page.Stats.TotalAmount.StringFixed(2), page.Stats.AverageAmount.StringFixed(2))
	return err
}

func writePayment(w io.Writer, p *domain.Payment) error {
	paid := "-"
	if p.PaymentDate != nil {
		paid = p.PaymentDate.Format(time.RFC3339)
	}
	_, err := fmt.Fprintf(w, "%s %s -> %s (paid %s)\n", p.ID, dash(p.TranID), p.Status, paid)
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
