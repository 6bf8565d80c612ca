package cli

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/analytics"
)

func newAnalyticsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Network transaction analytics backed by ClickHouse",
	}

	consume := &cobra.Command{
		Use:   "consume",
		Short: "Store completed network transactions from RabbitMQ in ClickHouse",
		RunE:  runAnalyticsConsume,
	}

	report := &cobra.Command{
		Use:   "report",
		Short: "Summarize completed attempts per acquirer",
		RunE:  runAnalyticsReport,
	}
	report.Flags().Duration("since", 24*time.Hour, "Report window ending now")

	cmd.AddCommand(consume, report)
	return cmd
}

func runAnalyticsConsume(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.RabbitMQ.URL == "" {
		return fmt.Errorf("RABBITMQ_URL is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := analytics.NewClickHouseClient(ctx, cfg.ClickHouse)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := analytics.NewTransactionRepository(client)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	consumer, err := analytics.NewConsumer(cfg.RabbitMQ, repo, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	logger.Info("analytics consumer running",
		zap.String("queue", cfg.RabbitMQ.Queue),
		zap.String("clickhouse", cfg.ClickHouse.Host))
	return consumer.Start(ctx)
}

func runAnalyticsReport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	since, _ := cmd.Flags().GetDuration("since")
	if since <= 0 {
		return fmt.Errorf("--since must be positive")
	}

	client, err := analytics.NewClickHouseClient(cmd.Context(), cfg.ClickHouse)
	if err != nil {
		return err
	}
	defer client.Close()

	to := time.Now().UTC()
	stats, err := analytics.NewTransactionRepository(client).AcquirerSummary(cmd.Context(), to.Add(-since), to)
	if err != nil {
		return err
	}
	return writeAcquirerStats(cmd.OutOrStdout(), stats)
}

func writeAcquirerStats(w io.Writer, stats []analytics.AcquirerStats) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No completed transactions in this window.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACQUIRER\tTRANSACTIONS\tCAPTURED\tCAPTURE RATE\tVOLUME\tAVG MS")
	for _, s := range stats {
		acquirer := s.AcquirerBankCode
		if acquirer == "" {
			acquirer = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\t%s\t%.0f\n",
			acquirer,
			s.Transactions,
			s.Captured,
			s.CaptureRate()*100,
			s.CapturedVolume.StringFixed(2),
			s.AvgProcessingMs)
	}
	return tw.Flush()
}
