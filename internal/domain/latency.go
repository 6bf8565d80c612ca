package domain

import (
	"context"
	"time"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

const (
	minIssuerLatencyMs   = 50
	minAcquirerLatencyMs = 30
)

// issuerLatencyMs draws the simulated issuer response time for bank at now.
func issuerLatencyMs(env sim.Environment, bank *BankConfig, now time.Time) int {
	var jitter int
	switch bank.Tier {
	case BankTier1:
		jitter = env.IntRange(-50, 100)
	case BankTier2:
		jitter = env.IntRange(-100, 300)
	default:
		jitter = env.IntRange(-200, 800)
	}

	if bank.OutsideBusinessHours(now) {
		jitter += env.IntRange(500, 2000)
	}

	return max(minIssuerLatencyMs, bank.BaseLatencyMs+jitter)
}

// acquirerLatencyMs draws the simulated acquirer response time: 60% of the
// bank's base latency plus jitter.
func acquirerLatencyMs(env sim.Environment, bank *BankConfig) int {
	base := int(float64(bank.BaseLatencyMs) * 0.6)
	return max(minAcquirerLatencyMs, base+env.IntRange(-50, 150))
}

// waitLatency blocks for latencyMs. With a positive timeout shorter than the
// latency it waits for the timeout only and reports expiry. Context
// cancellation also counts as expiry. The returned value is the time waited.
func waitLatency(ctx context.Context, env sim.Environment, latencyMs int, timeout time.Duration) (int, bool) {
	delay := time.Duration(latencyMs) * time.Millisecond
	if timeout > 0 && delay > timeout {
		if err := env.Sleep(ctx, timeout); err != nil {
			return latencyMs, true
		}
		return int(timeout / time.Millisecond), true
	}
	if err := env.Sleep(ctx, delay); err != nil {
		return latencyMs, true
	}
	return latencyMs, false
}
