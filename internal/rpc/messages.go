package rpc

import "github.com/ahinestrog/bookshop/internal/order"

// Callers are trusted internal services and name the acting user in every
// request.

type UserRef struct {
	UserID int64 `json:"userId"`
}

type AddItemRequest struct {
	UserID   int64 `json:"userId"`
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity"`
}

type UpdateItemRequest struct {
	UserID   int64 `json:"userId"`
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

type RemoveItemRequest struct {
	UserID int64 `json:"userId"`
	ItemID int64 `json:"itemId"`
}

type PlaceOrderRequest struct {
	UserID          int64  `json:"userId"`
	ShippingAddress string `json:"shippingAddress"`
}

type OrderList struct {
	Orders []order.Order `json:"orders"`
}

type OrderItemsRequest struct {
	UserID  int64 `json:"userId"`
	OrderID int64 `json:"orderId"`
}

type OrderItems struct {
	Items []order.Line `json:"items"`
}

type UpdateStatusRequest struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}
