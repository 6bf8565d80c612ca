package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/api"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// GetNetworkTransactionRequest looks up the latest attempt of a payment.
type GetNetworkTransactionRequest struct {
	PaymentID string `json:"payment_id"`
}

// ReverseSettlementRequest reverses a settlement.
type ReverseSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

// ListAccountLedgerRequest requests a page of an account's ledger.
type ListAccountLedgerRequest struct {
	AccountID string `json:"account_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// Server implements the PaymentNetwork gRPC service.
type Server struct {
	network api.Network
	logger  *zap.Logger
}

var _ PaymentNetworkService = (*Server)(nil)

// NewServer creates a new Server.
func NewServer(network api.Network, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{network: network, logger: logger}
}

// AuthorizePurchase runs issuer authorization only.
func (s *Server) AuthorizePurchase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.AuthorizeRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	domainReq, err := req.ToDomain()
	if err != nil {
		return nil, s.mapError(err)
	}

	result, err := s.network.AuthorizePurchase(ctx, domainReq)
	if err != nil && result == nil {
		return nil, s.mapError(err)
	}
	if err != nil {
		s.logger.Error("authorization failed", zap.String("payment_id", req.PaymentID), zap.Error(err))
	}
	return encodeResponse(api.NewAuthorizeResponse(result))
}

// SettlePurchase runs acquirer settlement only.
func (s *Server) SettlePurchase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.SettleRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	result, err := s.network.SettlePurchase(ctx, req.ToDomain())
	if err != nil && result == nil {
		return nil, s.mapError(err)
	}
	if err != nil {
		s.logger.Error("settlement failed", zap.String("payment_id", req.PaymentID), zap.Error(err))
	}
	return encodeResponse(api.NewSettleResponse(result))
}

// ProcessNetworkTransaction routes a purchase through the whole network.
func (s *Server) ProcessNetworkTransaction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.PurchaseRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	domainReq, err := req.ToDomain()
	if err != nil {
		return nil, s.mapError(err)
	}

	result, err := s.network.ProcessNetworkTransaction(ctx, domainReq)
	if err != nil && result == nil {
		return nil, s.mapError(err)
	}
	if err != nil {
		s.logger.Error("network transaction incomplete", zap.String("payment_id", req.PaymentID), zap.Error(err))
	}
	return encodeResponse(api.NewPurchaseResponse(result))
}

// GetNetworkTransaction returns the latest audit record of a payment.
func (s *Server) GetNetworkTransaction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req GetNetworkTransactionRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if req.PaymentID == "" {
		return nil, status.Error(codes.InvalidArgument, "payment_id is required")
	}

	txn, err := s.network.GetNetworkTransaction(ctx, req.PaymentID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return encodeResponse(api.NewNetworkTransaction(txn))
}

// ReverseSettlement undoes a settlement and debits the merchant's net amount.
func (s *Server) ReverseSettlement(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ReverseSettlementRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if req.SettlementID == "" {
		return nil, status.Error(codes.InvalidArgument, "settlement_id is required")
	}

	settlement, err := s.network.ReverseSettlement(ctx, req.SettlementID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return encodeResponse(api.NewSettlement(settlement))
}

// ListAccountLedger returns a page of an account's ledger, newest first.
func (s *Server) ListAccountLedger(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListAccountLedgerRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid account_id: %v", err)
	}
	if req.Limit < 0 || req.Offset < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit and offset cannot be negative")
	}

	entries, err := s.network.AccountHistory(ctx, accountID, req.Limit, req.Offset)
	if err != nil {
		return nil, s.mapError(err)
	}
	return encodeResponse(api.NewLedgerResponse(accountID.String(), entries))
}

// mapError maps domain errors to gRPC status codes.
func (s *Server) mapError(err error) error {
	switch {
	case api.IsClientError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case api.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrSettlementReversed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
