// Command paymentctl is the operator CLI for the payment reconciliation
// service. It talks to the same store and gateways as the server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"payrecon/internal/app"
	"payrecon/internal/config"
	"payrecon/internal/logger"
)

var Version = "dev"

// cli carries the flags shared by every subcommand.
type cli struct {
	timeout  time.Duration
	logLevel string

	// connect builds the container; replaced in tests.
	connect func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app.Container, error)
}

func main() {
	if err := newRootCmd(&cli{connect: app.NewContainer}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "paymentctl",
		Short:         "Inspect and reconcile academy payments",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "overall command timeout")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(migrateCmd(c))
	rootCmd.AddCommand(listCmd(c))
	rootCmd.AddCommand(setStatusCmd(c))
	rootCmd.AddCommand(validateCmd(c))

	return rootCmd
}

// run connects the backends and calls fn with a context bounded by --timeout.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, container *app.Container) error) error {
	cfg := config.Load()

	zl, err := logger.New(cfg.Log.Env, c.logLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	container, err := c.connect(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer container.Close()

	return fn(ctx, container)
}
