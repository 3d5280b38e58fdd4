package rpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/cart"
	"github.com/ahinestrog/bookshop/internal/order"
)

// NewServer returns a gRPC server with the cart and order services
// registered. A non-empty token must be presented by every caller.
func NewServer(carts *cart.Service, orders *order.Service, token string, logger zerolog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(logCalls(logger), authorize(token)))
	s := grpc.NewServer(opts...)
	s.RegisterService(&cartServiceDesc, &cartServer{svc: carts})
	s.RegisterService(&orderServiceDesc, &orderServer{svc: orders})
	return s
}

// logCalls logs each call and turns service errors into status errors.
func logCalls(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			if _, ok := status.FromError(err); !ok {
				err = status.Error(apperr.GRPCCode(err), err.Error())
			}
		}
		code := status.Code(err)
		ev := logger.Info()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str("method", info.FullMethod).Str("code", code.String()).Dur("duration", time.Since(start)).Msg("grpc call")
		return resp, err
	}
}

func requireUser(id int64) error {
	if id <= 0 {
		return apperr.Validationf("userId is required")
	}
	return nil
}

type cartServer struct {
	svc *cart.Service
}

func (s *cartServer) GetCart(ctx context.Context, req *UserRef) (*cart.Cart, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	return s.svc.GetCart(ctx, req.UserID)
}

func (s *cartServer) AddItem(ctx context.Context, req *AddItemRequest) (*cart.Cart, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	return s.svc.AddToCart(ctx, req.UserID, req.BookID, req.Quantity)
}

func (s *cartServer) UpdateItem(ctx context.Context, req *UpdateItemRequest) (*cart.Cart, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	return s.svc.UpdateLineQuantity(ctx, req.UserID, req.ItemID, req.Quantity)
}

func (s *cartServer) RemoveItem(ctx context.Context, req *RemoveItemRequest) (*cart.Cart, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	if err := s.svc.RemoveLine(ctx, req.UserID, req.ItemID); err != nil {
		return nil, err
	}
	return s.svc.GetCart(ctx, req.UserID)
}

type orderServer struct {
	svc *order.Service
}

func (s *orderServer) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*order.Order, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	return s.svc.PlaceOrder(ctx, req.UserID, req.ShippingAddress)
}

func (s *orderServer) ListOrders(ctx context.Context, req *UserRef) (*OrderList, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	orders, err := s.svc.ListOrders(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &OrderList{Orders: orders}, nil
}

func (s *orderServer) GetOrderItems(ctx context.Context, req *OrderItemsRequest) (*OrderItems, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	items, err := s.svc.GetOrderItems(ctx, req.OrderID, req.UserID)
	if err != nil {
		return nil, err
	}
	return &OrderItems{Items: items}, nil
}

func (s *orderServer) UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*order.Order, error) {
	st, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return s.svc.UpdateOrderStatus(ctx, req.OrderID, st)
}
