package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/cart"
	"github.com/ahinestrog/bookshop/internal/catalog"
	"github.com/ahinestrog/bookshop/internal/events"
	"github.com/ahinestrog/bookshop/internal/order"
	"github.com/ahinestrog/bookshop/internal/storage/storagetest"
)

type fixture struct {
	orders  *order.Service
	cart    *cart.Service
	catalog *catalog.Service
	rec     *events.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := storagetest.Open(t)
	rec := &events.Recorder{}
	return fixture{
		orders:  order.NewService(db, rec, zerolog.Nop()),
		cart:    cart.NewService(db, zerolog.Nop()),
		catalog: catalog.NewService(db, events.Nop{}, zerolog.Nop()),
		rec:     rec,
	}
}

func (f fixture) book(t *testing.T, isbn, price string) int64 {
	t.Helper()
	b, err := f.catalog.CreateBook(context.Background(), catalog.BookInput{
		Title:  "Book " + isbn,
		Author: "Author",
		ISBN:   isbn,
		Price:  decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return b.ID
}

func (f fixture) add(t *testing.T, userID, bookID int64, qty int) {
	t.Helper()
	_, err := f.cart.AddToCart(context.Background(), userID, bookID, qty)
	require.NoError(t, err)
}

func Test_PlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "a", "19.99")
	b := f.book(t, "b", "9.99")
	f.add(t, 1, a, 2)
	f.add(t, 1, b, 1)

	o, err := f.orders.PlaceOrder(ctx, 1, " 1 Main St ")
	require.NoError(t, err)

	assert.NotZero(t, o.ID)
	assert.NotEmpty(t, o.Reference)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, "1 Main St", o.ShippingAddress)
	assert.Equal(t, "49.97", o.Total.String())
	require.Len(t, o.Lines, 2)
	assert.Equal(t, a, o.Lines[0].BookID)
	assert.Equal(t, "39.98", o.Lines[0].Price.String())
	assert.Equal(t, "9.99", o.Lines[1].Price.String())

	_, err = f.cart.GetCart(ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "placing an order consumes the cart")

	stored, err := f.orders.GetOrder(ctx, o.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "49.97", stored.Total.String())
	assert.Equal(t, []string{order.RKOrderCreated}, f.rec.Types())
}

func Test_PlaceOrder_TotalIsSumOfLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	prices := []string{"0.10", "0.20", "3.33", "12.01"}
	for i, p := range prices {
		f.add(t, 1, f.book(t, p, p), i+1)
	}

	o, err := f.orders.PlaceOrder(ctx, 1, "addr")
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Price)
	}
	assert.True(t, sum.Equal(o.Total))
	assert.Equal(t, "58.53", o.Total.String())
}

func Test_PlaceOrder_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.book(t, "a", "5")

	_, err := f.orders.PlaceOrder(ctx, 1, "addr")
	assert.ErrorIs(t, err, apperr.ErrConflict, "missing cart")

	f.add(t, 2, bookID, 1)
	c, err := f.cart.GetCart(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, f.cart.RemoveLine(ctx, 2, c.Lines[0].ID))
	_, err = f.orders.PlaceOrder(ctx, 2, "addr")
	assert.ErrorIs(t, err, apperr.ErrConflict, "empty cart")

	f.add(t, 3, bookID, 1)
	_, err = f.orders.PlaceOrder(ctx, 3, "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	for _, user := range []int64{1, 2, 3} {
		orders, err := f.orders.ListOrders(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, orders)
	}
	assert.Empty(t, f.rec.Published())
}

func Test_PlaceOrder_DeletedBookRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.book(t, "a", "5")
	gone := f.book(t, "b", "7")
	f.add(t, 1, keep, 1)
	f.add(t, 1, gone, 1)
	require.NoError(t, f.catalog.DeleteBook(ctx, gone))

	_, err := f.orders.PlaceOrder(ctx, 1, "addr")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	c, err := f.cart.GetCart(ctx, 1)
	require.NoError(t, err, "cart survives a failed order")
	assert.Len(t, c.Lines, 2)
	orders, err := f.orders.ListOrders(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func Test_PlaceOrder_SnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.book(t, "a", "10")
	f.add(t, 1, bookID, 3)

	o, err := f.orders.PlaceOrder(ctx, 1, "addr")
	require.NoError(t, err)

	_, err = f.catalog.UpdateBook(ctx, bookID, catalog.BookInput{
		Title: "Book a", Author: "Author", ISBN: "a", Price: decimal.RequireFromString("99"),
	})
	require.NoError(t, err)

	items, err := f.orders.GetOrderItems(ctx, o.ID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "30", items[0].Price.String())

	again, err := f.orders.GetOrder(ctx, o.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "30", again.Total.String())
}

func Test_UpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, 1, f.book(t, "a", "4"), 2)
	o, err := f.orders.PlaceOrder(ctx, 1, "addr")
	require.NoError(t, err)
	before, err := f.orders.GetOrderItems(ctx, o.ID, 1)
	require.NoError(t, err)

	updated, err := f.orders.UpdateOrderStatus(ctx, o.ID, order.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, updated.Status)

	after, err := f.orders.GetOrderItems(ctx, o.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	updated, err = f.orders.UpdateOrderStatus(ctx, o.ID, order.StatusPending)
	require.NoError(t, err, "any status may follow any other")
	assert.Equal(t, order.StatusPending, updated.Status)

	_, err = f.orders.UpdateOrderStatus(ctx, 999, order.StatusDelivered)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.orders.UpdateOrderStatus(ctx, o.ID, order.Status("LOST"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Equal(t, []string{
		order.RKOrderCreated, order.RKOrderStatusChanged, order.RKOrderStatusChanged,
	}, f.rec.Types())
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) error {
	return errors.New("broker down")
}

func Test_PlaceOrder_PublishFailureIsNotFatal(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()
	catalogSvc := catalog.NewService(db, events.Nop{}, zerolog.Nop())
	cartSvc := cart.NewService(db, zerolog.Nop())
	orders := order.NewService(db, failingPublisher{}, zerolog.Nop())

	b, err := catalogSvc.CreateBook(ctx, catalog.BookInput{
		Title: "T", Author: "A", ISBN: "x", Price: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	_, err = cartSvc.AddToCart(ctx, 1, b.ID, 1)
	require.NoError(t, err)

	o, err := orders.PlaceOrder(ctx, 1, "addr")
	require.NoError(t, err)
	assert.NotZero(t, o.ID)
}

func Test_OrderReads_AreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, 1, f.book(t, "a", "1"), 1)
	o, err := f.orders.PlaceOrder(ctx, 1, "addr")
	require.NoError(t, err)
	itemID := o.Lines[0].ID

	item, err := f.orders.GetOrderItem(ctx, o.ID, itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "Book a", item.BookTitle)

	tests := []struct {
		name string
		call func() error
	}{
		{name: "order_of_other_user", call: func() error {
			_, err := f.orders.GetOrder(ctx, o.ID, 2)
			return err
		}},
		{name: "items_of_other_user", call: func() error {
			_, err := f.orders.GetOrderItems(ctx, o.ID, 2)
			return err
		}},
		{name: "item_of_other_user", call: func() error {
			_, err := f.orders.GetOrderItem(ctx, o.ID, itemID, 2)
			return err
		}},
		{name: "item_of_other_order", call: func() error {
			_, err := f.orders.GetOrderItem(ctx, o.ID, itemID+100, 1)
			return err
		}},
		{name: "missing_order", call: func() error {
			_, err := f.orders.GetOrderItems(ctx, 999, 1)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), apperr.ErrNotFound)
		})
	}
}

func Test_ListOrders_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.book(t, "a", "2")

	f.add(t, 1, bookID, 1)
	first, err := f.orders.PlaceOrder(ctx, 1, "addr")
	require.NoError(t, err)
	f.add(t, 1, bookID, 2)
	second, err := f.orders.PlaceOrder(ctx, 1, "addr")
	require.NoError(t, err)

	orders, err := f.orders.ListOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.Equal(t, 2, orders[0].Lines[0].Quantity)
}

func Test_ParseStatus(t *testing.T) {
	st, err := order.ParseStatus(" delivered ")
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, st)

	_, err = order.ParseStatus("shipped")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func Test_NewService_NilPublisher(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()
	b, err := catalog.NewService(db, nil, zerolog.Nop()).CreateBook(ctx, catalog.BookInput{
		Title: "T", Author: "A", ISBN: "x", Price: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	_, err = cart.NewService(db, zerolog.Nop()).AddToCart(ctx, 1, b.ID, 1)
	require.NoError(t, err)

	orders := order.NewService(db, nil, zerolog.Nop())
	o, err := orders.PlaceOrder(ctx, 1, "addr")
	require.NoError(t, err)
	_, err = orders.UpdateOrderStatus(ctx, o.ID, order.StatusDelivered)
	assert.NoError(t, err)
}
