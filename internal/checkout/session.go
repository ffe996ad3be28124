// Package checkout runs the online checkout flow: voucher state, payment
// validation, a priced quote the shopper confirms, and order placement.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/backend"
	"github.com/eterno/pos-terminal/internal/config"
	"github.com/eterno/pos-terminal/internal/money"
)

var ErrQuoteNotFound = errors.New("Order summary expired. Please review your order again.")

// Placer places online orders with the backend
type Placer interface {
	Checkout(ctx context.Context, req backend.CheckoutRequest) (int, error)
}

// FeeSource draws a delivery fee
type FeeSource interface {
	Fee() decimal.Decimal
}

// RandomFee draws a whole-currency fee uniformly from [Min, Max]
type RandomFee struct {
	Min, Max int
}

func (r RandomFee) Fee() decimal.Decimal {
	if r.Max <= r.Min {
		return money.FromInt(r.Min)
	}
	return money.FromInt(r.Min + rand.IntN(r.Max-r.Min+1))
}

// Quote is a priced order summary awaiting confirmation
type Quote struct {
	ID          string          `json:"id"`
	Method      Method          `json:"payment_method"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Voucher     decimal.Decimal `json:"voucher_discount"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
	Summary     string          `json:"summary"`
	ExpiresAt   time.Time       `json:"expires_at"`

	order          Order
	voucherApplied bool
}

// Confirmation is the result of a placed order
type Confirmation struct {
	OrderID int    `json:"order_id"`
	Message string `json:"message"`
}

// Session holds one terminal's checkout state
type Session struct {
	placer  Placer
	fees    FeeSource
	voucher decimal.Decimal
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu             sync.Mutex
	voucherApplied bool
	quotes         map[string]*Quote
}

// NewSession creates a checkout session from configuration
func NewSession(placer Placer, cfg config.CheckoutConfig, logger *zap.Logger) *Session {
	return NewSessionWithFees(placer, RandomFee{Min: cfg.DeliveryFeeMin, Max: cfg.DeliveryFeeMax}, cfg, logger)
}

// NewSessionWithFees creates a session with an explicit fee source
func NewSessionWithFees(placer Placer, fees FeeSource, cfg config.CheckoutConfig, logger *zap.Logger) *Session {
	ttl := cfg.QuoteTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Session{
		placer:  placer,
		fees:    fees,
		voucher: cfg.VoucherAmount,
		ttl:     ttl,
		logger:  logger.Named("checkout"),
		now:     time.Now,
		quotes:  make(map[string]*Quote),
	}
}

// ApplyVoucher marks the voucher as applied. Any non-empty code is accepted.
func (s *Session) ApplyVoucher(code string) error {
	if strings.TrimSpace(code) == "" {
		return invalid("voucher_code", "Please enter a voucher code")
	}
	s.mu.Lock()
	s.voucherApplied = true
	s.mu.Unlock()
	return nil
}

// RemoveVoucher clears the voucher
func (s *Session) RemoveVoucher() {
	s.mu.Lock()
	s.voucherApplied = false
	s.mu.Unlock()
}

// VoucherApplied reports whether the voucher is active
func (s *Session) VoucherApplied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voucherApplied
}

// Prepare validates the form, draws the delivery fee once and stores the
// resulting quote for confirmation.
func (s *Session) Prepare(form Form, subtotal decimal.Decimal) (*Quote, error) {
	if subtotal.IsNegative() {
		return nil, invalid("subtotal", "Invalid subtotal")
	}
	order, err := ParseForm(form)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()

	q := &Quote{
		ID:             uuid.NewString(),
		Method:         order.Payment.Method(),
		Subtotal:       subtotal,
		Voucher:        decimal.Zero,
		DeliveryFee:    s.fees.Fee(),
		ExpiresAt:      s.now().Add(s.ttl),
		order:          order,
		voucherApplied: s.voucherApplied,
	}
	if q.voucherApplied {
		q.Voucher = s.voucher
	}
	q.Total = subtotal.Sub(q.Voucher).Add(q.DeliveryFee)
	q.Summary = q.summary()
	s.quotes[q.ID] = q
	return q, nil
}

// Confirm places the order exactly as quoted. A quote is consumed by a
// successful order; a failed order leaves it available for a retry.
func (s *Session) Confirm(ctx context.Context, quoteID string) (Confirmation, error) {
	s.mu.Lock()
	s.pruneLocked()
	q, ok := s.quotes[quoteID]
	if ok {
		delete(s.quotes, quoteID)
	}
	s.mu.Unlock()
	if !ok {
		return Confirmation{}, ErrQuoteNotFound
	}

	req := backend.CheckoutRequest{
		PaymentMethod:   string(q.Method),
		CustomerAddress: q.order.Address,
		VoucherApplied:  q.voucherApplied,
		DeliveryFee:     money.Float(q.DeliveryFee),
		Total:           money.Float(q.Total),
	}
	q.order.Payment.fill(&req)

	orderID, err := s.placer.Checkout(ctx, req)
	if err != nil {
		s.mu.Lock()
		if s.now().Before(q.ExpiresAt) {
			s.quotes[q.ID] = q
		}
		s.mu.Unlock()
		return Confirmation{}, err
	}

	s.mu.Lock()
	s.voucherApplied = false
	s.mu.Unlock()

	s.logger.Info("order placed",
		zap.Int("order_id", orderID),
		zap.String("payment_method", req.PaymentMethod),
		zap.String("total", q.Total.StringFixed(2)))
	return Confirmation{OrderID: orderID, Message: "Order placed successfully!"}, nil
}

func (s *Session) pruneLocked() {
	now := s.now()
	for id, q := range s.quotes {
		if !now.Before(q.ExpiresAt) {
			delete(s.quotes, id)
		}
	}
}

func (q *Quote) summary() string {
	var b strings.Builder
	b.WriteString("ORDER CONFIRMATION\n\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", money.Format(q.Subtotal))
	if q.Voucher.IsPositive() {
		fmt.Fprintf(&b, "Voucher Discount: %s\n", money.FormatNegative(q.Voucher))
	}
	fmt.Fprintf(&b, "Delivery Fee: %s\n", money.Format(q.DeliveryFee))
	fmt.Fprintf(&b, "Total: %s\n\n", money.Format(q.Total))
	fmt.Fprintf(&b, "Payment Method: %s\n", strings.ToUpper(string(q.Method)))
	fmt.Fprintf(&b, "Delivery Address: %s\n", q.order.Address)
	q.order.Payment.describe(&b)
	return b.String()
}
