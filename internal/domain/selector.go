package domain

import (
	"context"
	"sort"
)

// Routing weights of the acquirer score.
const (
	costWeight    = 0.3
	successWeight = 0.4
	speedWeight   = 0.3
)

// ScoredAcquirer is a candidate acquirer with its routing score.
type ScoredAcquirer struct {
	Bank  *BankConfig
	Score float64
}

// AcquirerSelector ranks acquirers by cost, reliability and speed.
type AcquirerSelector struct {
	directory BankLookup
}

// NewAcquirerSelector creates an AcquirerSelector.
func NewAcquirerSelector(directory BankLookup) *AcquirerSelector {
	return &AcquirerSelector{directory: directory}
}

// ScoreAcquirer computes
//
//	0.3*max(0, 10-fee) + 0.4*success*10 + 0.3*max(0, 10-latency/100)
//
// where fee is the bank's processing fee for amount.
func ScoreAcquirer(bank *BankConfig, amount float64) float64 {
	perTxn, _ := bank.PerTransactionFee.Float64()
	pct, _ := bank.PercentageFee.Float64()
	fee := perTxn + amount*pct/100

	costScore := max(0, 10-fee)
	successScore := bank.SuccessProbability * 10
	speedScore := max(0, 10-float64(bank.BaseLatencyMs)/100)

	return costWeight*costScore + successWeight*successScore + speedWeight*speedScore
}

// Rank returns all active acquirers for currency ordered by descending score.
// Equal scores keep directory order (bank code ascending).
func (s *AcquirerSelector) Rank(ctx context.Context, amount float64, currency string) ([]ScoredAcquirer, error) {
	candidates, err := s.directory.ListActiveAcquirers(ctx, currency)
	if err != nil {
		return nil, err
	}

	ranked := make([]ScoredAcquirer, 0, len(candidates))
	for _, bank := range candidates {
		ranked = append(ranked, ScoredAcquirer{Bank: bank, Score: ScoreAcquirer(bank, amount)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// SelectOptimalAcquirer returns the highest scoring acquirer, or nil if no
// acquirer supports currency.
func (s *AcquirerSelector) SelectOptimalAcquirer(ctx context.Context, amount float64, currency string) (*BankConfig, error) {
	ranked, err := s.Rank(ctx, amount, currency)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}
	return ranked[0].Bank, nil
}
