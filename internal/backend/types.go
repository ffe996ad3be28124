package backend

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record types distinguishing the two kinds of transaction in the order list.
const (
	RecordCustomerOrder = "customer_order"
	RecordPOSSale       = "pos_sale"
)

// ConnectionStatus represents the backend connection status
type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	LastError string    `json:"last_error,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
}

// TransactionItem is one line of an order or sale as reported by the backend.
type TransactionItem struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// DisplayName prefers product_name, then name.
func (i TransactionItem) DisplayName() string {
	if i.ProductName != "" {
		return i.ProductName
	}
	if i.Name != "" {
		return i.Name
	}
	return "Item"
}

// Transaction is the read-only projection of a customer order or POS sale.
type Transaction struct {
	ID               int               `json:"id"`
	RecordType       string            `json:"record_type"`
	Reference        string            `json:"reference"`
	CreatedAt        string            `json:"created_at"`
	CreatedAtDisplay string            `json:"created_at_display"`
	CustomerName     string            `json:"customer_name"`
	CustomerEmail    string            `json:"customer_email"`
	CustomerAddress  string            `json:"customer_address"`
	PaymentMethod    string            `json:"payment_method"`
	Status           string            `json:"status"`
	ProcessedBy      string            `json:"processed_by"`
	Items            []TransactionItem `json:"items"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	DiscountType     string            `json:"discount_type"`
	DiscountAmount   decimal.Decimal   `json:"discount_amount"`
	ShippingFee      decimal.Decimal   `json:"shipping_fee"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
}

// IsPOSSale reports whether the record came from the register.
func (t Transaction) IsPOSSale() bool { return t.RecordType == RecordPOSSale }

// TransactionTotals are the backend's full counts, not just the fetched page.
type TransactionTotals struct {
	CustomerOrders int  `json:"customer_orders"`
	POSSales       int  `json:"pos_sales"`
	Combined       *int `json:"combined"`
}

// TransactionList is the payload of GET /admin/orders.
type TransactionList struct {
	Transactions []Transaction     `json:"transactions"`
	Totals       TransactionTotals `json:"totals"`
}

// TransactionDetail is the payload of GET /admin/orders/{id}.
type TransactionDetail struct {
	Transaction Transaction `json:"transaction"`
	RecordType  string      `json:"record_type"`
}

// Product is an inventory entry.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
}

// ProductInput is the body of product add/update. Price and stock travel as
// strings, exactly as the admin form submits them.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       string `json:"stock"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
}

// Revenue is the payload of GET /admin/revenue.
type Revenue struct {
	Total         decimal.Decimal `json:"total"`
	FromOrders    decimal.Decimal `json:"from_orders"`
	FromPOS       decimal.Decimal `json:"from_pos"`
	OrdersCount   int             `json:"orders_count"`
	POSCount      int             `json:"pos_count"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// Checkpoint marks the last reset of a periodic report baseline.
type Checkpoint struct {
	Period             string `json:"period"`
	LastResetAt        string `json:"last_reset_at"`
	LastResetAtDisplay string `json:"last_reset_at_display"`
}

// CheckoutRequest is the body of POST /checkout. Unused payment fields are
// sent as empty strings.
type CheckoutRequest struct {
	PaymentMethod    string  `json:"payment_method"`
	CustomerAddress  string  `json:"customer_address"`
	GCashNumber      string  `json:"gcash_number"`
	GCashAccountName string  `json:"gcash_account_name"`
	CardType         string  `json:"card_type"`
	CardNumber       string  `json:"card_number"`
	CardExpiry       string  `json:"card_expiry"`
	CardCVV          string  `json:"card_cvv"`
	PayPalEmail      string  `json:"paypal_email"`
	PayPalName       string  `json:"paypal_name"`
	VoucherApplied   bool    `json:"voucher_applied"`
	DeliveryFee      float64 `json:"delivery_fee"`
	Total            float64 `json:"total"`
}

// SaleItem is one POS cart line as submitted to /admin/sales/create.
type SaleItem struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
}

// SaleRequest is the body of POST /admin/sales/create.
type SaleRequest struct {
	Items         []SaleItem `json:"items"`
	PaymentMethod string     `json:"payment_method"`
	DiscountType  string     `json:"discount_type"`
}

// SaleResponse is the payload of a successful sale.
type SaleResponse struct {
	SaleID         int             `json:"sale_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}
