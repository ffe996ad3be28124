package backend

import (
	"context"
	"fmt"
	"net/http"
)

// CartCount returns the number of items in the shopper's server-side cart.
func (c *Client) CartCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/cart/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// AddToCart adds quantity units of a product to the server-side cart.
func (c *Client) AddToCart(ctx context.Context, productID, quantity int) error {
	body := map[string]int{"product_id": productID, "quantity": quantity}
	return c.doJSON(ctx, http.MethodPost, "/cart/add", body, nil)
}

// UpdateCartItem changes a cart entry's quantity by change (may be negative).
func (c *Client) UpdateCartItem(ctx context.Context, cartID, change int) error {
	body := map[string]int{"change": change}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/cart/update/%d", cartID), body, nil)
}

// RemoveCartItem deletes a cart entry.
func (c *Client) RemoveCartItem(ctx context.Context, cartID int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/cart/remove/%d", cartID), nil, nil)
}

// Checkout places an online order and returns its id.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (int, error) {
	var out struct {
		OrderID int `json:"order_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/checkout", req, &out); err != nil {
		return 0, err
	}
	return out.OrderID, nil
}

// CreateSale records a POS sale.
func (c *Client) CreateSale(ctx context.Context, req SaleRequest) (SaleResponse, error) {
	var out SaleResponse
	err := c.doJSON(ctx, http.MethodPost, "/admin/sales/create", req, &out)
	return out, err
}
