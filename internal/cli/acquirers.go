package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/db"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

func newAcquirersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acquirers",
		Short: "Inspect acquiring banks",
	}

	rank := &cobra.Command{
		Use:   "rank",
		Short: "Score every acquirer able to settle a purchase",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawAmount, _ := cmd.Flags().GetString("amount")
			currency, _ := cmd.Flags().GetString("currency")
			amount, err := domain.ParseAmount(rawAmount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			if err := domain.ValidateCurrencyCode(currency); err != nil {
				return fmt.Errorf("invalid --currency: %w", err)
			}

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

			network := domain.NewPaymentNetwork(db.NewStore(pool.Pool, logger), nil, sim.NewReal(), domain.NetworkConfig{})
			ranked, err := network.RankAcquirers(cmd.Context(), amount.InexactFloat64(), currency)
			if err != nil {
				return err
			}
			return writeRanking(cmd.OutOrStdout(), amount, ranked)
		},
	}
	rank.Flags().String("amount", "100", "Purchase amount")
	rank.Flags().String("currency", "USD", "ISO 4217 currency code")

	cmd.AddCommand(rank)
	return cmd
}

// writeRanking prints acquirers best first with the fee each would charge.
func writeRanking(w io.Writer, amount decimal.Decimal, ranked []domain.ScoredAcquirer) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, "No acquirer supports this currency.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tBANK\tSCORE\tFEE\tSUCCESS\tLATENCY")
	for i, r := range ranked {
		fees := domain.CalculateFees(amount, r.Bank)
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\t%dms\n",
			i+1,
			r.Bank.Code,
			r.Score,
			domain.FormatAmount(fees.TotalFee),
			strconv.FormatFloat(r.Bank.SuccessProbability*100, 'f', 1, 64)+"%",
			r.Bank.BaseLatencyMs)
	}
	return tw.Flush()
}
