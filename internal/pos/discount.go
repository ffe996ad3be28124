package pos

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountKind is how a discount amount is derived
type DiscountKind int

const (
	KindNone DiscountKind = iota
	KindPercentage
	KindFixed
)

func (k DiscountKind) String() string {
	switch k {
	case KindPercentage:
		return "percentage"
	case KindFixed:
		return "fixed"
	default:
		return "none"
	}
}

// MarshalText renders the kind by name in JSON
func (k DiscountKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Discount codes accepted at the register.
const (
	CodePWD     = "pwd"
	CodeSenior  = "senior"
	CodeVoucher = "voucher"
)

// Discount is the single discount active on the cart
type Discount struct {
	Code   string          `json:"code"`
	Kind   DiscountKind    `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// Active reports whether the discount reduces the total
func (d Discount) Active() bool { return d.Kind != KindNone }

// WireType is the discount_type the backend expects
func (d Discount) WireType() string {
	if d.Code == "" {
		return "none"
	}
	return d.Code
}

func resolveDiscount(code string, subtotal decimal.Decimal, opts Options) Discount {
	code = strings.ToLower(strings.TrimSpace(code))
	switch code {
	case CodePWD, CodeSenior:
		return Discount{Code: code, Kind: KindPercentage, Amount: subtotal.Mul(opts.PercentRate)}
	case CodeVoucher:
		return Discount{Code: code, Kind: KindFixed, Amount: opts.FixedAmount}
	default:
		return Discount{}
	}
}
