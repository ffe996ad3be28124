package shopcart

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/backend"
)

type fakeBackend struct {
	count    int
	countErr error
	addErr   error
	updErr   error
	removed  []int
	updates  map[int]int
}

func (f *fakeBackend) CartCount(context.Context) (int, error) { return f.count, f.countErr }

func (f *fakeBackend) AddToCart(_ context.Context, productID, quantity int) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.count += quantity
	return nil
}

func (f *fakeBackend) UpdateCartItem(_ context.Context, cartID, change int) error {
	if f.updErr != nil {
		return f.updErr
	}
	if f.updates == nil {
		f.updates = map[int]int{}
	}
	f.updates[cartID] += change
	return nil
}

func (f *fakeBackend) RemoveCartItem(_ context.Context, cartID int) error {
	f.removed = append(f.removed, cartID)
	return nil
}

func TestCountFailsSilently(t *testing.T) {
	c := NewController(&fakeBackend{countErr: errors.New("dial tcp: refused")}, zap.NewNop())
	if n := c.Count(context.Background()); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestAddReturnsCount(t *testing.T) {
	fb := &fakeBackend{count: 2}
	c := NewController(fb, zap.NewNop())
	res, err := c.Add(context.Background(), 10)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.Count == nil || *res.Count != 3 || res.Message != "Item added to cart!" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAddUnauthorizedMapsToLoginRequired(t *testing.T) {
	fb := &fakeBackend{addErr: &backend.Error{Kind: backend.KindUnauthorized, Status: 401, Message: "Unauthorized"}}
	c := NewController(fb, zap.NewNop())
	if _, err := c.Add(context.Background(), 10); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("expected login required, got %v", err)
	}
}

func TestChangeQuantitySurfacesServerMessage(t *testing.T) {
	fb := &fakeBackend{updErr: &backend.Error{Kind: backend.KindBusiness, Status: 400, Message: "Not enough stock"}}
	c := NewController(fb, zap.NewNop())
	_, err := c.ChangeQuantity(context.Background(), 3, 1)
	if err == nil || err.Error() != "Not enough stock" {
		t.Fatalf("expected server message, got %v", err)
	}
}

func TestMutationsAskForReload(t *testing.T) {
	fb := &fakeBackend{}
	c := NewController(fb, zap.NewNop())
	res, err := c.ChangeQuantity(context.Background(), 3, -1)
	if err != nil || !res.Reload || fb.updates[3] != -1 {
		t.Fatalf("change: %+v %v", res, err)
	}
	res, err = c.Remove(context.Background(), 3)
	if err != nil || !res.Reload || len(fb.removed) != 1 {
		t.Fatalf("remove: %+v %v", res, err)
	}
}
