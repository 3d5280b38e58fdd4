package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/ahinestrog/bookshop/internal/cart"
	"github.com/ahinestrog/bookshop/internal/order"
)

const (
	cartService  = "bookshop.Cart"
	orderService = "bookshop.Order"
)

type CartServer interface {
	GetCart(context.Context, *UserRef) (*cart.Cart, error)
	AddItem(context.Context, *AddItemRequest) (*cart.Cart, error)
	UpdateItem(context.Context, *UpdateItemRequest) (*cart.Cart, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*cart.Cart, error)
}

type OrderServer interface {
	PlaceOrder(context.Context, *PlaceOrderRequest) (*order.Order, error)
	ListOrders(context.Context, *UserRef) (*OrderList, error)
	GetOrderItems(context.Context, *OrderItemsRequest) (*OrderItems, error)
	UpdateStatus(context.Context, *UpdateStatusRequest) (*order.Order, error)
}

func fullMethod(service, method string) string { return "/" + service + "/" + method }

// unary adapts a typed method to the handler shape grpc expects.
func unary[S, Req, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				resp, err := call(srv.(S), ctx, req.(*Req))
				if err != nil {
					return nil, err
				}
				return resp, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(service, method)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var cartServiceDesc = grpc.ServiceDesc{
	ServiceName: cartService,
	HandlerType: (*CartServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(cartService, "GetCart", CartServer.GetCart),
		unary(cartService, "AddItem", CartServer.AddItem),
		unary(cartService, "UpdateItem", CartServer.UpdateItem),
		unary(cartService, "RemoveItem", CartServer.RemoveItem),
	},
	Metadata: "bookshop/cart",
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderService,
	HandlerType: (*OrderServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(orderService, "PlaceOrder", OrderServer.PlaceOrder),
		unary(orderService, "ListOrders", OrderServer.ListOrders),
		unary(orderService, "GetOrderItems", OrderServer.GetOrderItems),
		unary(orderService, "UpdateStatus", OrderServer.UpdateStatus),
	},
	Metadata: "bookshop/order",
}
