// Package pos implements the in-store register cart: an ephemeral list of
// lines with one optional discount, submitted to the backend as a sale.
package pos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/backend"
	"github.com/eterno/pos-terminal/internal/money"
)

var (
	ErrStockLimit     = errors.New("Cannot add more. Stock limit reached.")
	ErrExceedsStock   = errors.New("Cannot exceed available stock.")
	ErrOutOfStock     = errors.New("Product is out of stock.")
	ErrEmptyCart      = errors.New("Cart is empty!")
	ErrSaleInProgress = errors.New("A sale is already being submitted.")
)

// State is the derived lifecycle state of the cart
type State string

const (
	StateEmpty     State = "EMPTY"
	StatePopulated State = "POPULATED"
)

// SaleSubmitter records a completed sale with the backend
type SaleSubmitter interface {
	CreateSale(ctx context.Context, req backend.SaleRequest) (backend.SaleResponse, error)
}

// Options holds the discount rules and stock policy
type Options struct {
	PercentRate            decimal.Decimal
	FixedAmount            decimal.Decimal
	EnforceStockOnFirstAdd bool
}

// DefaultOptions returns 20% for pwd/senior and a flat 100 voucher
func DefaultOptions() Options {
	return Options{
		PercentRate: decimal.RequireFromString("0.20"),
		FixedAmount: money.FromInt(100),
	}
}

// Line is one product in the cart
type Line struct {
	ProductID  int             `json:"product_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	StockLimit int             `json:"stock"`
}

// Amount is unit price times quantity
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the computed money breakdown of the cart
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Snapshot is a point-in-time copy of the cart
type Snapshot struct {
	State    State    `json:"state"`
	Lines    []Line   `json:"lines"`
	Discount Discount `json:"discount"`
	Totals   Totals   `json:"totals"`
}

// SaleResult describes a sale the backend accepted
type SaleResult struct {
	SaleID        int       `json:"sale_id"`
	PaymentMethod string    `json:"payment_method"`
	Lines         []Line    `json:"lines"`
	Discount      Discount  `json:"discount"`
	Totals        Totals    `json:"totals"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Engine owns the register cart. All methods are safe for concurrent use.
type Engine struct {
	submitter SaleSubmitter
	opts      Options
	logger    *zap.Logger

	// notifyMu is taken before mu is released so observers see
	// snapshots in commit order
	notifyMu sync.Mutex

	mu         sync.Mutex
	lines      []Line
	discount   Discount
	submitting bool
	observer   func(Snapshot)
}

// NewEngine creates an empty cart that submits sales through submitter
func NewEngine(submitter SaleSubmitter, opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		submitter: submitter,
		opts:      opts,
		logger:    logger.Named("pos"),
	}
}

// OnChange registers fn to receive a snapshot after every mutation.
// Calls are serialized in mutation order; fn must not call back into the
// engine.
func (e *Engine) OnChange(fn func(Snapshot)) {
	e.mu.Lock()
	e.observer = fn
	e.mu.Unlock()
}

// AddLine adds one unit of a product, inserting a new line when absent.
func (e *Engine) AddLine(productID int, name string, unitPrice decimal.Decimal, stockLimit int) error {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return ErrSaleInProgress
	}
	if i := e.find(productID); i >= 0 {
		// checked against the stock passed on this add, which may have
		// moved since the line was inserted
		if e.lines[i].Quantity+1 > stockLimit {
			e.mu.Unlock()
			return ErrStockLimit
		}
		e.lines[i].Quantity++
		e.lines[i].StockLimit = stockLimit
	} else {
		if e.opts.EnforceStockOnFirstAdd && stockLimit < 1 {
			e.mu.Unlock()
			return ErrOutOfStock
		}
		e.lines = append(e.lines, Line{
			ProductID:  productID,
			Name:       name,
			UnitPrice:  unitPrice,
			Quantity:   1,
			StockLimit: stockLimit,
		})
	}
	e.commit()
	return nil
}

// ChangeQuantity adds delta to a line's quantity. A result of zero or less
// removes the line; a result above stock is rejected.
func (e *Engine) ChangeQuantity(productID, delta int) error {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return ErrSaleInProgress
	}
	i := e.find(productID)
	if i < 0 {
		e.mu.Unlock()
		return nil
	}
	q := e.lines[i].Quantity + delta
	switch {
	case q <= 0:
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
	case q <= e.lines[i].StockLimit:
		e.lines[i].Quantity = q
	default:
		e.mu.Unlock()
		return ErrExceedsStock
	}
	e.commit()
	return nil
}

// RemoveLine deletes a line. Removing an absent product is a no-op.
func (e *Engine) RemoveLine(productID int) error {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return ErrSaleInProgress
	}
	i := e.find(productID)
	if i < 0 {
		e.mu.Unlock()
		return nil
	}
	e.lines = append(e.lines[:i], e.lines[i+1:]...)
	e.commit()
	return nil
}

// Clear empties the cart and resets the discount
func (e *Engine) Clear() error {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return ErrSaleInProgress
	}
	e.lines = nil
	e.commit()
	return nil
}

// ApplyDiscount replaces the active discount. The amount is computed from
// the current subtotal and does not follow later quantity changes.
func (e *Engine) ApplyDiscount(code string) (Discount, error) {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return Discount{}, ErrSaleInProgress
	}
	if len(e.lines) == 0 {
		e.discount = Discount{}
	} else {
		e.discount = resolveDiscount(code, e.subtotal(), e.opts)
	}
	d := e.discount
	e.commit()
	return d, nil
}

// RemoveDiscount resets the discount to none
func (e *Engine) RemoveDiscount() error {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return ErrSaleInProgress
	}
	e.discount = Discount{}
	e.commit()
	return nil
}

// Totals returns subtotal, discount and the total clamped at zero
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totals()
}

// Lines returns a copy of the cart lines in insertion order
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyLines()
}

// Snapshot returns a consistent copy of the whole cart
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Submitting reports whether a sale is in flight
func (e *Engine) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

// SubmitSale sends the cart to the backend. The cart is locked against
// changes until the call returns; on success it is cleared along with the
// discount, on failure it is left as it was.
func (e *Engine) SubmitSale(ctx context.Context, paymentMethod string) (SaleResult, error) {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return SaleResult{}, ErrSaleInProgress
	}
	if len(e.lines) == 0 {
		e.mu.Unlock()
		return SaleResult{}, ErrEmptyCart
	}
	e.submitting = true
	lines := e.copyLines()
	discount := e.discount
	totals := e.totals()
	e.mu.Unlock()

	req := backend.SaleRequest{
		Items:         make([]backend.SaleItem, len(lines)),
		PaymentMethod: paymentMethod,
		DiscountType:  discount.WireType(),
	}
	for i, l := range lines {
		req.Items[i] = backend.SaleItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     money.Float(l.UnitPrice),
			Quantity:  l.Quantity,
			Stock:     l.StockLimit,
		}
	}

	resp, err := e.submitter.CreateSale(ctx, req)

	e.mu.Lock()
	e.submitting = false
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("sale rejected", zap.Int("lines", len(lines)), zap.Error(err))
		return SaleResult{}, err
	}
	e.lines = nil
	e.discount = Discount{}
	e.commit()

	e.logger.Info("sale completed",
		zap.Int("sale_id", resp.SaleID),
		zap.String("total", totals.Total.StringFixed(2)),
		zap.String("discount_type", req.DiscountType))

	if !resp.FinalTotal.IsZero() {
		totals = Totals{Subtotal: resp.Subtotal, Discount: resp.DiscountAmount, Total: resp.FinalTotal}
	}
	return SaleResult{
		SaleID:        resp.SaleID,
		PaymentMethod: paymentMethod,
		Lines:         lines,
		Discount:      discount,
		Totals:        totals,
		CompletedAt:   time.Now(),
	}, nil
}

// commit finishes a mutation. It must be called with mu held and releases
// it before notifying the observer.
func (e *Engine) commit() {
	if len(e.lines) == 0 {
		e.lines = nil
		e.discount = Discount{}
	}
	snap := e.snapshot()
	observer := e.observer
	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()
	if observer != nil {
		observer(snap)
	}
}

func (e *Engine) find(productID int) int {
	for i := range e.lines {
		if e.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range e.lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

func (e *Engine) totals() Totals {
	sub := e.subtotal()
	total := sub.Sub(e.discount.Amount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{Subtotal: sub, Discount: e.discount.Amount, Total: total}
}

func (e *Engine) copyLines() []Line {
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *Engine) snapshot() Snapshot {
	state := StateEmpty
	if len(e.lines) > 0 {
		state = StatePopulated
	}
	return Snapshot{
		State:    state,
		Lines:    e.copyLines(),
		Discount: e.discount,
		Totals:   e.totals(),
	}
}
