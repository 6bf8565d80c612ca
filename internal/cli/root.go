// Package cli implements the paynet command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/config"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/db"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/logging"
)

// NewRootCommand builds the paynet command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "paynet",
		Short: "Simulated card payment network",
		Long: `paynet routes card purchases from issuing banks to acquiring banks
through authorize, settle and capture stages and records every attempt.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSlice("env-file", []string{".env"}, "Environment files to load before reading configuration")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedCommand(),
		newPurchaseCommand(),
		newTransactionCommand(),
		newAcquirersCommand(),
		newAnalyticsCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadRuntime reads configuration and builds the logger.
func loadRuntime(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func openPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*db.Pool, error) {
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.URL, MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	if err != nil {
		return nil, err
	}
	logger.Info("database connection pool initialized")
	return pool, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
