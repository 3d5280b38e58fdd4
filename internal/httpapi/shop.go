package httpapi

import (
	"net/http"
	"strings"

	"github.com/ahinestrog/bookshop/internal/order"
	"github.com/ahinestrog/bookshop/internal/user"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var in user.RegisterInput
	if err := decode(r, &in); err != nil {
		return err
	}
	u, err := s.users.Register(r.Context(), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, u)
	return nil
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, currentUser(r.Context()))
	return nil
}

type addToCartRequest struct {
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) error {
	c, err := s.cart.GetCart(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, c)
	return nil
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) error {
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	c, err := s.cart.AddToCart(r.Context(), currentUser(r.Context()).ID, req.BookID, req.Quantity)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, c)
	return nil
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) error {
	lineID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req quantityRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	c, err := s.cart.UpdateLineQuantity(r.Context(), currentUser(r.Context()).ID, lineID, req.Quantity)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, c)
	return nil
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) error {
	lineID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.cart.RemoveLine(r.Context(), currentUser(r.Context()).ID, lineID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type placeOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

// placeOrder ships to the address in the body, or to the one on the
// user's profile when the body omits it.
func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) error {
	var req placeOrderRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			return err
		}
	}
	u := currentUser(r.Context())
	addr := req.ShippingAddress
	if strings.TrimSpace(addr) == "" {
		addr = u.ShippingAddress
	}
	o, err := s.orders.PlaceOrder(r.Context(), u.ID, addr)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, o)
	return nil
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) error {
	orders, err := s.orders.ListOrders(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, orders)
	return nil
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	o, err := s.orders.GetOrder(r.Context(), id, currentUser(r.Context()).ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, o)
	return nil
}

func (s *Server) getOrderItems(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	items, err := s.orders.GetOrderItems(r.Context(), id, currentUser(r.Context()).ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, items)
	return nil
}

func (s *Server) getOrderItem(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		return err
	}
	item, err := s.orders.GetOrderItem(r.Context(), id, itemID, currentUser(r.Context()).ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	st, err := order.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	o, err := s.orders.UpdateOrderStatus(r.Context(), id, st)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, o)
	return nil
}
