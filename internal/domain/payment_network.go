package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

// NetworkConfig tunes the simulated network.
type NetworkConfig struct {
	// StageTimeout bounds each simulated bank response. Zero disables it.
	StageTimeout time.Duration

	// CompensateCaptureFailure reverses the settlement when capture fails.
	CompensateCaptureFailure bool
}

// PaymentNetwork is the entry point used by transports: it wires the issuer,
// acquirer and coordinator over one store.
type PaymentNetwork struct {
	store       Store
	issuer      *IssuerAuthorizer
	acquirer    *AcquirerSettler
	coordinator *NetworkCoordinator
	ledger      *AccountLedger
	selector    *AcquirerSelector
}

// NewPaymentNetwork builds the network components. A nil directory defaults
// to a BankDirectory reading straight from store.
func NewPaymentNetwork(
	store Store,
	directory BankLookup,
	env sim.Environment,
	cfg NetworkConfig,
	opts ...CoordinatorOption,
) *PaymentNetwork {
	if directory == nil {
		directory = NewBankDirectory(store.Banks(), store.Merchants())
	}

	ledger := NewAccountLedger(store, env)
	selector := NewAcquirerSelector(directory)
	issuer := NewIssuerAuthorizer(store.Accounts(), directory, ledger, env, cfg.StageTimeout)
	acquirer := NewAcquirerSettler(store, directory, env, cfg.StageTimeout)

	opts = append([]CoordinatorOption{WithCaptureCompensation(cfg.CompensateCaptureFailure)}, opts...)
	coordinator := NewNetworkCoordinator(store, directory, selector, issuer, acquirer, env, opts...)

	return &PaymentNetwork{
		store:       store,
		issuer:      issuer,
		acquirer:    acquirer,
		coordinator: coordinator,
		ledger:      ledger,
		selector:    selector,
	}
}

// AuthorizePurchase runs issuer authorization only. Funds are not moved.
func (n *PaymentNetwork) AuthorizePurchase(ctx context.Context, req AuthorizeRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return n.issuer.Authorize(ctx, req)
}

// SettlePurchase runs acquirer settlement only.
func (n *PaymentNetwork) SettlePurchase(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return n.acquirer.Settle(ctx, req)
}

// ProcessNetworkTransaction routes a purchase through authorize, settle and capture.
func (n *PaymentNetwork) ProcessNetworkTransaction(ctx context.Context, req PurchaseRequest) (*NetworkResult, error) {
	return n.coordinator.Process(ctx, req)
}

// ReverseSettlement undoes a settlement.
func (n *PaymentNetwork) ReverseSettlement(ctx context.Context, settlementID string) (*Settlement, error) {
	return n.acquirer.Reverse(ctx, settlementID)
}

// GetNetworkTransaction returns the latest audit record for a payment.
func (n *PaymentNetwork) GetNetworkTransaction(ctx context.Context, paymentID string) (*NetworkTransaction, error) {
	return n.store.NetworkTransactions().GetLatestByPaymentID(ctx, paymentID)
}

// AccountHistory returns an account's ledger entries, newest first.
func (n *PaymentNetwork) AccountHistory(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*LedgerEntry, error) {
	return n.ledger.History(ctx, accountID, limit, offset)
}

// RankAcquirers scores every acquirer able to settle currency.
func (n *PaymentNetwork) RankAcquirers(ctx context.Context, amount float64, currency string) ([]ScoredAcquirer, error) {
	return n.selector.Rank(ctx, amount, currency)
}
