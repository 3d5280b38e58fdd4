package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahinestrog/bookshop/internal/cart"
	"github.com/ahinestrog/bookshop/internal/catalog"
	"github.com/ahinestrog/bookshop/internal/events"
	"github.com/ahinestrog/bookshop/internal/order"
	"github.com/ahinestrog/bookshop/internal/storage/storagetest"
	"github.com/ahinestrog/bookshop/internal/user"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
	userPassword  = "user-password"
)

type api struct {
	t *testing.T
	h http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := storagetest.Open(t)
	users := user.NewService(db, events.Nop{}, zerolog.Nop()).WithHashCost(bcrypt.MinCost)
	_, err := users.EnsureAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	h := NewHandler(Deps{
		Catalog: catalog.NewService(db, events.Nop{}, zerolog.Nop()),
		Cart:    cart.NewService(db, zerolog.Nop()),
		Orders:  order.NewService(db, events.Nop{}, zerolog.Nop()),
		Users:   users,
		Health:  db.PingContext,
	}, Options{CORSOrigins: []string{"https://shop.example.com"}}, zerolog.Nop())
	return &api{t: t, h: h}
}

// do sends body as JSON with the given credentials and decodes the response
// into out when out is not nil.
func (a *api) do(method, path, email, password string, body, out any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.SetBasicAuth(email, password)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func (a *api) register(email string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/register", "", "", user.RegisterInput{
		Email:           email,
		Password:        userPassword,
		FirstName:       "Test",
		LastName:        "User",
		ShippingAddress: "1 Main St",
	}, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (a *api) createBook(isbn, price string) int64 {
	a.t.Helper()
	var b catalog.Book
	rec := a.do(http.MethodPost, "/books", adminEmail, adminPassword, map[string]any{
		"title": "Book " + isbn, "author": "Author", "isbn": isbn, "price": price,
	}, &b)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return b.ID
}

func Test_Healthz(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/healthz", "", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func Test_Auth(t *testing.T) {
	a := newAPI(t)
	a.register("ada@example.com")

	rec := a.do(http.MethodGet, "/cart", "", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	rec = a.do(http.MethodGet, "/cart", "ada@example.com", "wrong-password", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/books", "ada@example.com", userPassword, map[string]any{
		"title": "T", "author": "A", "isbn": "x", "price": "1",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var me user.User
	rec = a.do(http.MethodGet, "/auth/me", "ada@example.com", userPassword, nil, &me)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", me.Email)

	rec = a.do(http.MethodPost, "/auth/register", "", "", user.RegisterInput{
		Email: "ada@example.com", Password: userPassword, FirstName: "A", LastName: "B",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func Test_CartToOrderFlow(t *testing.T) {
	a := newAPI(t)
	a.register("ada@example.com")
	a.register("bob@example.com")
	bookA := a.createBook("a", "19.99")
	bookB := a.createBook("b", "9.99")
	const email = "ada@example.com"

	rec := a.do(http.MethodGet, "/cart", email, userPassword, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	a.do(http.MethodPost, "/cart", email, userPassword, addToCartRequest{BookID: bookA, Quantity: 1}, nil)
	var c cart.Cart
	rec = a.do(http.MethodPost, "/cart", email, userPassword, addToCartRequest{BookID: bookA, Quantity: 1}, &c)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)

	rec = a.do(http.MethodPost, "/cart", email, userPassword, addToCartRequest{BookID: bookB, Quantity: 3}, &c)
	require.Equal(t, http.StatusOK, rec.Code)
	lineB := c.Lines[1].ID
	rec = a.do(http.MethodPut, fmt.Sprintf("/cart/items/%d", lineB), email, userPassword, quantityRequest{Quantity: 1}, &c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "49.97", c.Total.String())

	rec = a.do(http.MethodDelete, fmt.Sprintf("/cart/items/%d", lineB), "bob@example.com", userPassword, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "lines of other carts are invisible")

	var o order.Order
	rec = a.do(http.MethodPost, "/orders", email, userPassword, nil, &o)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "49.97", o.Total.String())
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, "1 Main St", o.ShippingAddress)

	rec = a.do(http.MethodGet, "/cart", email, userPassword, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(http.MethodPost, "/orders", email, userPassword, placeOrderRequest{ShippingAddress: "x"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	itemsPath := fmt.Sprintf("/orders/%d/items", o.ID)
	var items []order.Line
	rec = a.do(http.MethodGet, itemsPath, email, userPassword, nil, &items)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, items, 2)
	rec = a.do(http.MethodGet, itemsPath, "bob@example.com", userPassword, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var item order.Line
	rec = a.do(http.MethodGet, fmt.Sprintf("%s/%d", itemsPath, items[0].ID), email, userPassword, nil, &item)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "39.98", item.Price.String())

	orderPath := fmt.Sprintf("/orders/%d", o.ID)
	rec = a.do(http.MethodPatch, orderPath, email, userPassword, statusRequest{Status: "COMPLETED"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodPatch, orderPath, adminEmail, adminPassword, statusRequest{Status: "shipped"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPatch, orderPath, adminEmail, adminPassword, statusRequest{Status: "completed"}, &o)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusCompleted, o.Status)

	var after []order.Line
	a.do(http.MethodGet, itemsPath, email, userPassword, nil, &after)
	assert.Equal(t, items, after)

	var orders []order.Order
	rec = a.do(http.MethodGet, "/orders", email, userPassword, nil, &orders)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, orders, 1)
	assert.Equal(t, order.StatusCompleted, orders[0].Status)
}

func Test_Catalog(t *testing.T) {
	a := newAPI(t)
	var cat catalog.Category
	rec := a.do(http.MethodPost, "/categories", adminEmail, adminPassword, catalog.CategoryInput{Name: "Sci-Fi"}, &cat)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodPost, "/books", adminEmail, adminPassword, map[string]any{
		"title": "Dune", "author": "Frank Herbert", "isbn": "d1", "price": "9.5",
		"categoryIds": []int64{cat.ID},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	other := a.createBook("x", "3")

	var page catalog.BookPage
	rec = a.do(http.MethodGet, "/books/search?authors=Frank%20Herbert", adminEmail, adminPassword, nil, &page)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Dune", page.Items[0].Title)

	var books []catalog.Book
	rec = a.do(http.MethodGet, fmt.Sprintf("/categories/%d/books", cat.ID), adminEmail, adminPassword, nil, &books)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, books, 1)

	rec = a.do(http.MethodGet, "/books?size=1&sort=price,asc", adminEmail, adminPassword, nil, &page)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, other, page.Items[0].ID)
	assert.Equal(t, int64(2), page.TotalItems)

	rec = a.do(http.MethodGet, "/books?page=abc", adminEmail, adminPassword, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodDelete, fmt.Sprintf("/books/%d", other), adminEmail, adminPassword, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(http.MethodGet, fmt.Sprintf("/books/%d", other), adminEmail, adminPassword, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":"book %d: not found"}`, other), rec.Body.String())
}

func Test_MalformedBody(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/cart", adminEmail, adminPassword, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_CORSPreflight(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
