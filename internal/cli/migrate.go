package cli

import (
	"github.com/spf13/cobra"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/db"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			pool, err := openPool(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			return db.Migrate(cmd.Context(), pool, logger)
		},
	}
}

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load banks, merchant accounts and customer accounts from a network file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				path = cfg.Network.BootstrapFile
			}

			pool, err := openPool(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			return seedNetwork(cmd.Context(), path, db.NewStore(pool.Pool, logger), logger)
		},
	}
	cmd.Flags().String("file", "", "Network file (defaults to NETWORK_BOOTSTRAP_FILE)")
	return cmd
}
