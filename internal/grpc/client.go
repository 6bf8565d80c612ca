package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/api"
)

// Client calls a remote paynet.v1.PaymentNetwork service.
type Client struct {
	cc gogrpc.ClientConnInterface
}

// NewClient creates a client on an established connection.
func NewClient(cc gogrpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, req, resp any, opts ...gogrpc.CallOption) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return err
	}
	return fromStruct(out, resp)
}

// AuthorizePurchase runs issuer authorization only.
func (c *Client) AuthorizePurchase(ctx context.Context, req api.AuthorizeRequest, opts ...gogrpc.CallOption) (*api.AuthorizeResponse, error) {
	var resp api.AuthorizeResponse
	if err := c.call(ctx, MethodAuthorizePurchase, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettlePurchase runs acquirer settlement only.
func (c *Client) SettlePurchase(ctx context.Context, req api.SettleRequest, opts ...gogrpc.CallOption) (*api.SettleResponse, error) {
	var resp api.SettleResponse
	if err := c.call(ctx, MethodSettlePurchase, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessNetworkTransaction routes a purchase through the whole network.
func (c *Client) ProcessNetworkTransaction(ctx context.Context, req api.PurchaseRequest, opts ...gogrpc.CallOption) (*api.PurchaseResponse, error) {
	var resp api.PurchaseResponse
	if err := c.call(ctx, MethodProcessNetworkTransaction, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetNetworkTransaction returns the latest audit record of a payment.
func (c *Client) GetNetworkTransaction(ctx context.Context, paymentID string, opts ...gogrpc.CallOption) (*api.NetworkTransaction, error) {
	var resp api.NetworkTransaction
	if err := c.call(ctx, MethodGetNetworkTransaction, GetNetworkTransactionRequest{PaymentID: paymentID}, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReverseSettlement undoes a settlement.
func (c *Client) ReverseSettlement(ctx context.Context, settlementID string, opts ...gogrpc.CallOption) (*api.Settlement, error) {
	var resp api.Settlement
	if err := c.call(ctx, MethodReverseSettlement, ReverseSettlementRequest{SettlementID: settlementID}, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAccountLedger returns a page of an account's ledger.
func (c *Client) ListAccountLedger(ctx context.Context, req ListAccountLedgerRequest, opts ...gogrpc.CallOption) (*api.LedgerResponse, error) {
	var resp api.LedgerResponse
	if err := c.call(ctx, MethodListAccountLedger, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}
