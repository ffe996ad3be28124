package admin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/backend"
)

// ProductBackend is the part of the backend client the catalog uses
type ProductBackend interface {
	ListProducts(ctx context.Context) ([]backend.Product, error)
	AddProduct(ctx context.Context, in backend.ProductInput) (backend.Product, error)
	UpdateProduct(ctx context.Context, id int, in backend.ProductInput) (backend.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	UploadProductImage(ctx context.Context, filename string, image io.Reader) (string, error)
	ProductOrders(ctx context.Context, id int) ([]int, error)
}

// Image is an optional file to upload along with a product
type Image struct {
	Filename string
	Body     io.Reader
}

// SaveResult reports what Save did
type SaveResult struct {
	Product backend.Product `json:"product"`
	Message string          `json:"message"`
}

// Catalog manages inventory through the backend
type Catalog struct {
	backend ProductBackend
	logger  *zap.Logger
}

// NewCatalog creates a catalog
func NewCatalog(b ProductBackend, logger *zap.Logger) *Catalog {
	return &Catalog{backend: b, logger: logger.Named("catalog")}
}

// List returns every product
func (c *Catalog) List(ctx context.Context) ([]backend.Product, error) {
	return c.backend.ListProducts(ctx)
}

// Save adds a product when id is 0 and updates it otherwise. An image, when
// given, is uploaded first and its stored URL replaces in.ImageURL.
func (c *Catalog) Save(ctx context.Context, id int, in backend.ProductInput, img *Image) (SaveResult, error) {
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if img != nil && img.Body != nil {
		u, err := c.backend.UploadProductImage(ctx, img.Filename, img.Body)
		if err != nil {
			return SaveResult{}, fmt.Errorf("Error uploading image: %w", err)
		}
		in.ImageURL = u
	}

	if id == 0 {
		p, err := c.backend.AddProduct(ctx, in)
		if err != nil {
			return SaveResult{}, err
		}
		c.logger.Info("product added", zap.Int("product_id", p.ID), zap.String("name", in.Name))
		return SaveResult{Product: p, Message: "Product added successfully!"}, nil
	}

	p, err := c.backend.UpdateProduct(ctx, id, in)
	if err != nil {
		return SaveResult{}, err
	}
	c.logger.Info("product updated", zap.Int("product_id", id))
	return SaveResult{Product: p, Message: "Product updated successfully!"}, nil
}

// Delete removes a product
func (c *Catalog) Delete(ctx context.Context, id int) (string, error) {
	if err := c.backend.DeleteProduct(ctx, id); err != nil {
		return "", err
	}
	c.logger.Info("product deleted", zap.Int("product_id", id))
	return "Product deleted successfully!", nil
}

// OrdersFor describes which orders contain a product
func (c *Catalog) OrdersFor(ctx context.Context, id int) ([]int, string, error) {
	ids, err := c.backend.ProductOrders(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return ids, describeOrders(ids), nil
}

func describeOrders(ids []int) string {
	if len(ids) == 0 {
		return "This product has not been ordered yet."
	}
	refs := make([]string, len(ids))
	for i, id := range ids {
		refs[i] = fmt.Sprintf("#%d", id)
	}
	return "Order IDs containing this product:\n" + strings.Join(refs, ", ")
}
