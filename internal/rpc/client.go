package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/cart"
	"github.com/ahinestrog/bookshop/internal/order"
)

const defaultCallTimeout = 4 * time.Second

// Client calls the cart and order services of a bookshop server. Errors
// carry the service's error kinds, so errors.Is(err, apperr.ErrNotFound)
// works across the wire.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewClient connects to addr. token is sent with every call when set.
// Admin-only calls such as UpdateStatus need a context from WithRole.
func NewClient(addr, token string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	if token != "" {
		opts = append(opts, grpc.WithChainUnaryInterceptor(bearer(token)))
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, timeout: defaultCallTimeout}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, service, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return fromStatus(c.conn.Invoke(ctx, fullMethod(service, method), in, out))
}

func call[T any](ctx context.Context, c *Client, service, method string, in any) (*T, error) {
	out := new(T)
	if err := c.invoke(ctx, service, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCart(ctx context.Context, userID int64) (*cart.Cart, error) {
	return call[cart.Cart](ctx, c, cartService, "GetCart", &UserRef{UserID: userID})
}

func (c *Client) AddItem(ctx context.Context, userID, bookID int64, qty int) (*cart.Cart, error) {
	req := &AddItemRequest{UserID: userID, BookID: bookID, Quantity: qty}
	return call[cart.Cart](ctx, c, cartService, "AddItem", req)
}

func (c *Client) UpdateItem(ctx context.Context, userID, itemID int64, qty int) (*cart.Cart, error) {
	req := &UpdateItemRequest{UserID: userID, ItemID: itemID, Quantity: qty}
	return call[cart.Cart](ctx, c, cartService, "UpdateItem", req)
}

func (c *Client) RemoveItem(ctx context.Context, userID, itemID int64) (*cart.Cart, error) {
	return call[cart.Cart](ctx, c, cartService, "RemoveItem", &RemoveItemRequest{UserID: userID, ItemID: itemID})
}

func (c *Client) PlaceOrder(ctx context.Context, userID int64, shippingAddress string) (*order.Order, error) {
	req := &PlaceOrderRequest{UserID: userID, ShippingAddress: shippingAddress}
	return call[order.Order](ctx, c, orderService, "PlaceOrder", req)
}

func (c *Client) ListOrders(ctx context.Context, userID int64) ([]order.Order, error) {
	out, err := call[OrderList](ctx, c, orderService, "ListOrders", &UserRef{UserID: userID})
	if err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) GetOrderItems(ctx context.Context, orderID, userID int64) ([]order.Line, error) {
	req := &OrderItemsRequest{OrderID: orderID, UserID: userID}
	out, err := call[OrderItems](ctx, c, orderService, "GetOrderItems", req)
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) UpdateStatus(ctx context.Context, orderID int64, st order.Status) (*order.Order, error) {
	req := &UpdateStatusRequest{OrderID: orderID, Status: string(st)}
	return call[order.Order](ctx, c, orderService, "UpdateStatus", req)
}

type remoteError struct {
	msg  string
	kind error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }

func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var kind error
	switch st.Code() {
	case codes.NotFound:
		kind = apperr.ErrNotFound
	case codes.FailedPrecondition:
		kind = apperr.ErrConflict
	case codes.InvalidArgument:
		kind = apperr.ErrValidation
	case codes.Unauthenticated:
		kind = apperr.ErrUnauthorized
	case codes.PermissionDenied:
		kind = apperr.ErrForbidden
	default:
		return err
	}
	return &remoteError{msg: st.Message(), kind: kind}
}
