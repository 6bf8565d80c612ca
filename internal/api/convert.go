package api

import (
	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// NewAuthorizeResponse converts an issuer result.
func NewAuthorizeResponse(r *domain.AuthResult) AuthorizeResponse {
	return AuthorizeResponse{
		Success:           r.Approved,
		ResponseCode:      string(r.ResponseCode),
		DeclineReason:     r.DeclineReason,
		ResponseTimeMs:    r.ResponseTimeMs,
		BankCode:          r.BankCode,
		AuthorizationCode: r.AuthorizationCode,
		AvailableBalance:  r.AvailableBalance,
	}
}

// NewSettleResponse converts an acquirer result.
func NewSettleResponse(r *domain.SettleResult) SettleResponse {
	return SettleResponse{
		Success:          r.Approved,
		ResponseCode:     string(r.ResponseCode),
		DeclineReason:    r.DeclineReason,
		ResponseTimeMs:   r.ResponseTimeMs,
		AcquirerBankCode: r.AcquirerBankCode,
		SettlementID:     r.SettlementID,
		Fees:             newFees(r.Fees),
		MerchantBalance:  r.MerchantBalance,
	}
}

// NewPurchaseResponse converts a network result.
func NewPurchaseResponse(r *domain.NetworkResult) PurchaseResponse {
	resp := PurchaseResponse{
		Success:           r.Success,
		ResponseCode:      string(r.ResponseCode),
		DeclineReason:     r.DeclineReason,
		AuthorizationCode: r.AuthorizationCode,
		SettlementID:      r.SettlementID,
		RoutingReason:     r.RoutingReason,
		Fees:              newFees(r.Fees),
	}
	if txn := r.Transaction; txn != nil {
		resp.IssuerResponseTimeMs = txn.IssuerResponseTimeMs
		resp.AcquirerResponseTimeMs = txn.AcquirerResponseTimeMs
		resp.TotalProcessingTimeMs = txn.TotalProcessingTimeMs
		converted := NewNetworkTransaction(txn)
		resp.Transaction = &converted
	}
	return resp
}

// NewNetworkTransaction converts an audit record.
func NewNetworkTransaction(txn *domain.NetworkTransaction) NetworkTransaction {
	return NetworkTransaction{
		ID:                     txn.ID.String(),
		PaymentID:              txn.PaymentID,
		AccountID:              txn.CustomerAccountID.String(),
		MerchantID:             txn.MerchantID,
		IssuerBankCode:         txn.IssuerBankCode,
		AcquirerBankCode:       txn.AcquirerBankCode,
		Amount:                 txn.Amount,
		Currency:               txn.Currency,
		SagaState:              string(txn.State),
		IssuerStatus:           string(txn.IssuerStatus),
		AcquirerStatus:         string(txn.AcquirerStatus),
		FinalStatus:            string(txn.FinalStatus),
		IssuerResponseCode:     string(txn.IssuerResponseCode),
		AcquirerResponseCode:   string(txn.AcquirerResponseCode),
		IssuerResponseTimeMs:   txn.IssuerResponseTimeMs,
		AcquirerResponseTimeMs: txn.AcquirerResponseTimeMs,
		TotalProcessingTimeMs:  txn.TotalProcessingTimeMs,
		AuthorizationCode:      txn.AuthorizationCode,
		SettlementID:           txn.SettlementID,
		DeclineReason:          txn.DeclineReason,
		CreatedAt:              formatTime(txn.CreatedAt),
		CompletedAt:            formatOptionalTime(txn.CompletedAt),
	}
}

// NewSettlement converts a settlement record.
func NewSettlement(s *domain.Settlement) Settlement {
	return Settlement{
		SettlementID: s.Reference,
		PaymentID:    s.PaymentID,
		Gross:        s.Gross,
		Fee:          s.Fee,
		Net:          s.Net,
		Status:       string(s.Status),
		ReversedAt:   formatOptionalTime(s.ReversedAt),
	}
}

// NewLedgerResponse converts a page of ledger entries.
func NewLedgerResponse(accountID string, entries []*domain.LedgerEntry) LedgerResponse {
	resp := LedgerResponse{AccountID: accountID, Entries: make([]LedgerEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, LedgerEntry{
			ID:            e.ID.String(),
			Type:          string(e.Type),
			Amount:        e.Amount,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			ReferenceID:   e.ReferenceID,
			ReferenceType: e.ReferenceType,
			Description:   e.Description,
			CreatedAt:     formatTime(e.CreatedAt),
		})
	}
	return resp
}

func newFees(f *domain.FeeBreakdown) *Fees {
	if f == nil {
		return nil
	}
	return &Fees{
		PerTransactionFee: f.PerTransactionFee,
		PercentageFee:     f.PercentageFee,
		TotalFee:          f.TotalFee,
		NetAmount:         f.NetAmount,
	}
}
