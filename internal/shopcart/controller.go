// Package shopcart proxies the shopper's server-side cart. It holds no
// quantity state; every result tells the UI to reload from the backend.
package shopcart

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/backend"
)

// ErrLoginRequired is returned when the backend rejects an add for a
// signed-out shopper.
var ErrLoginRequired = errors.New("Please login to add items to cart")

// Backend is the part of the backend client the shop cart uses
type Backend interface {
	CartCount(ctx context.Context) (int, error)
	AddToCart(ctx context.Context, productID, quantity int) error
	UpdateCartItem(ctx context.Context, cartID, change int) error
	RemoveCartItem(ctx context.Context, cartID int) error
}

// Result is what the UI does after a successful cart request
type Result struct {
	Message string `json:"message,omitempty"`
	Reload  bool   `json:"reload"`
	Count   *int   `json:"count,omitempty"`
}

// Controller forwards shop cart actions to the backend
type Controller struct {
	backend Backend
	logger  *zap.Logger
}

// NewController creates a shop cart controller
func NewController(b Backend, logger *zap.Logger) *Controller {
	return &Controller{backend: b, logger: logger.Named("shopcart")}
}

// Count returns the cart badge count. Failures are logged and read as 0.
func (c *Controller) Count(ctx context.Context) int {
	n, err := c.backend.CartCount(ctx)
	if err != nil {
		c.logger.Debug("cart count unavailable", zap.Error(err))
		return 0
	}
	return n
}

// Add puts one unit of a product in the cart and returns the refreshed
// badge count instead of asking for a reload.
func (c *Controller) Add(ctx context.Context, productID int) (Result, error) {
	if err := c.backend.AddToCart(ctx, productID, 1); err != nil {
		if backend.IsKind(err, backend.KindUnauthorized) {
			return Result{}, ErrLoginRequired
		}
		return Result{}, err
	}
	n := c.Count(ctx)
	return Result{Message: "Item added to cart!", Count: &n}, nil
}

// ChangeQuantity adjusts a cart entry by change units
func (c *Controller) ChangeQuantity(ctx context.Context, cartID, change int) (Result, error) {
	if err := c.backend.UpdateCartItem(ctx, cartID, change); err != nil {
		return Result{}, err
	}
	return Result{Reload: true}, nil
}

// Remove deletes a cart entry
func (c *Controller) Remove(ctx context.Context, cartID int) (Result, error) {
	if err := c.backend.RemoveCartItem(ctx, cartID); err != nil {
		return Result{}, err
	}
	return Result{Reload: true}, nil
}
