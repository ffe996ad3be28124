package checkout

import (
	"fmt"
	"strings"

	"github.com/eterno/pos-terminal/internal/backend"
)

// Method is the payment method value submitted by the checkout form
type Method string

const (
	MethodCOD    Method = "cod"
	MethodGCash  Method = "gcash"
	MethodCard   Method = "credit_card"
	MethodPayPal Method = "paypal"
)

// Payment is one of COD, GCash, Card or PayPal. Each variant carries
// exactly the fields its method requires.
type Payment interface {
	Method() Method
	fill(req *backend.CheckoutRequest)
	describe(b *strings.Builder)
}

// COD is cash on delivery
type COD struct{}

// GCash is a mobile wallet payment
type GCash struct {
	Number      string
	AccountName string
}

// Card is a credit or debit card payment
type Card struct {
	Type   string
	Number string
	Expiry string
	CVV    string
}

// PayPal is a PayPal account payment
type PayPal struct {
	Email string
	Name  string
}

func (COD) Method() Method    { return MethodCOD }
func (GCash) Method() Method  { return MethodGCash }
func (Card) Method() Method   { return MethodCard }
func (PayPal) Method() Method { return MethodPayPal }

func (COD) fill(*backend.CheckoutRequest) {}

func (p GCash) fill(req *backend.CheckoutRequest) {
	req.GCashNumber = p.Number
	req.GCashAccountName = p.AccountName
}

func (p Card) fill(req *backend.CheckoutRequest) {
	req.CardType = p.Type
	req.CardNumber = p.Number
	req.CardExpiry = p.Expiry
	req.CardCVV = p.CVV
}

func (p PayPal) fill(req *backend.CheckoutRequest) {
	req.PayPalEmail = p.Email
	req.PayPalName = p.Name
}

func (COD) describe(*strings.Builder) {}

func (p GCash) describe(b *strings.Builder) {
	fmt.Fprintf(b, "GCash Number: %s\n", p.Number)
	fmt.Fprintf(b, "Account Name: %s\n", p.AccountName)
}

func (p Card) describe(b *strings.Builder) {
	fmt.Fprintf(b, "Card Type: %s\n", strings.ToUpper(p.Type))
	fmt.Fprintf(b, "Card: %s\n", p.MaskedCard())
}

func (p PayPal) describe(b *strings.Builder) {
	fmt.Fprintf(b, "PayPal: %s\n", p.Email)
}

// MaskedCard returns the card number reduced to its last four digits
func (p Card) MaskedCard() string { return "****" + lastN(p.Number, 4) }

func lastN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// ValidationError is a missing or invalid checkout field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// Form is the raw checkout form as posted by the browser
type Form struct {
	PaymentMethod    string `json:"payment_method"`
	Address          string `json:"address"`
	GCashNumber      string `json:"gcash_number"`
	GCashAccountName string `json:"gcash_account_name"`
	CardType         string `json:"card_type"`
	CardNumber       string `json:"card_number"`
	CardExpiry       string `json:"card_expiry"`
	CardCVV          string `json:"card_cvv"`
	PayPalEmail      string `json:"paypal_email"`
	PayPalName       string `json:"paypal_name"`
}

// Order is a validated checkout form
type Order struct {
	Address string
	Payment Payment
}

// ParseForm trims every field and checks that the selected method's required
// fields are present. The first missing field is reported.
func ParseForm(f Form) (Order, error) {
	method := Method(strings.TrimSpace(f.PaymentMethod))
	if method == "" {
		return Order{}, invalid("payment_method", "Please select a payment method")
	}
	switch method {
	case MethodCOD, MethodGCash, MethodCard, MethodPayPal:
	default:
		return Order{}, invalid("payment_method", "Invalid payment method")
	}

	address := strings.TrimSpace(f.Address)
	if address == "" {
		return Order{}, invalid("address", "Please enter your delivery address")
	}

	order := Order{Address: address}
	switch method {
	case MethodCOD:
		order.Payment = COD{}
	case MethodGCash:
		p := GCash{Number: strings.TrimSpace(f.GCashNumber), AccountName: strings.TrimSpace(f.GCashAccountName)}
		if p.Number == "" {
			return Order{}, invalid("gcash_number", "Please enter your GCash number")
		}
		if p.AccountName == "" {
			return Order{}, invalid("gcash_account_name", "Please enter your GCash account name")
		}
		order.Payment = p
	case MethodCard:
		p := Card{
			Type:   strings.TrimSpace(f.CardType),
			Number: strings.TrimSpace(f.CardNumber),
			Expiry: strings.TrimSpace(f.CardExpiry),
			CVV:    strings.TrimSpace(f.CardCVV),
		}
		if p.Number == "" || p.Expiry == "" || p.CVV == "" {
			return Order{}, invalid("card", "Please fill in all card details")
		}
		if p.Type == "" {
			p.Type = "credit"
		}
		order.Payment = p
	case MethodPayPal:
		p := PayPal{Email: strings.TrimSpace(f.PayPalEmail), Name: strings.TrimSpace(f.PayPalName)}
		if p.Email == "" || p.Name == "" {
			return Order{}, invalid("paypal", "Please fill in all PayPal details")
		}
		order.Payment = p
	}
	return order, nil
}
