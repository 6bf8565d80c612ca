package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// Network is the set of network operations exposed by the transports.
// *domain.PaymentNetwork implements it.
type Network interface {
	AuthorizePurchase(ctx context.Context, req domain.AuthorizeRequest) (*domain.AuthResult, error)
	SettlePurchase(ctx context.Context, req domain.SettleRequest) (*domain.SettleResult, error)
	ProcessNetworkTransaction(ctx context.Context, req domain.PurchaseRequest) (*domain.NetworkResult, error)
	ReverseSettlement(ctx context.Context, settlementID string) (*domain.Settlement, error)
	GetNetworkTransaction(ctx context.Context, paymentID string) (*domain.NetworkTransaction, error)
	AccountHistory(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.LedgerEntry, error)
}

var _ Network = (*domain.PaymentNetwork)(nil)
