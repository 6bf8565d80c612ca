package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "paynet.v1.PaymentNetwork"

// Messages are google.protobuf.Struct documents whose fields are the
// snake_case JSON fields of the api package types.
const (
	MethodAuthorizePurchase         = "AuthorizePurchase"
	MethodSettlePurchase            = "SettlePurchase"
	MethodProcessNetworkTransaction = "ProcessNetworkTransaction"
	MethodGetNetworkTransaction     = "GetNetworkTransaction"
	MethodReverseSettlement         = "ReverseSettlement"
	MethodListAccountLedger         = "ListAccountLedger"
)

// PaymentNetworkService is the server API of paynet.v1.PaymentNetwork.
type PaymentNetworkService interface {
	AuthorizePurchase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SettlePurchase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProcessNetworkTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNetworkTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReverseSettlement(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccountLedger(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(PaymentNetworkService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) gogrpc.MethodDesc {
	return gogrpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PaymentNetworkService), ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PaymentNetworkService), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes paynet.v1.PaymentNetwork for grpc.Server.RegisterService.
var ServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaymentNetworkService)(nil),
	Methods: []gogrpc.MethodDesc{
		unaryHandler(MethodAuthorizePurchase, PaymentNetworkService.AuthorizePurchase),
		unaryHandler(MethodSettlePurchase, PaymentNetworkService.SettlePurchase),
		unaryHandler(MethodProcessNetworkTransaction, PaymentNetworkService.ProcessNetworkTransaction),
		unaryHandler(MethodGetNetworkTransaction, PaymentNetworkService.GetNetworkTransaction),
		unaryHandler(MethodReverseSettlement, PaymentNetworkService.ReverseSettlement),
		unaryHandler(MethodListAccountLedger, PaymentNetworkService.ListAccountLedger),
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "paynet/v1/payment_network.proto",
}

// RegisterPaymentNetworkService registers srv on s.
func RegisterPaymentNetworkService(s gogrpc.ServiceRegistrar, srv PaymentNetworkService) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}
