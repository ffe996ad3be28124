package printer

import (
	"fmt"
	"time"

	"github.com/eterno/pos-terminal/internal/money"
	"github.com/eterno/pos-terminal/internal/pos"
)

const timeLayout = "02 Jan 2006, 3:04:05 pm"

// ReceiptOptions controls the slip header and clock
type ReceiptOptions struct {
	StoreName string
	Location  *time.Location
	Columns   int
}

func (o ReceiptOptions) stamp(t time.Time) string {
	loc := o.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timeLayout)
}

// BuildSaleReceipt renders a completed register sale as ESC/POS
func BuildSaleReceipt(sale pos.SaleResult, opts ReceiptOptions) []byte {
	b := NewBuilder(opts.Columns)

	b.Center().Bold(true).Large(true).Text(opts.StoreName).Large(false).Bold(false)
	b.Text("Official Receipt")
	b.Text(fmt.Sprintf("Sale #%d", sale.SaleID))
	b.Text(opts.stamp(sale.CompletedAt))
	b.Left().Rule()

	for _, l := range sale.Lines {
		b.Text(l.Name)
		b.Pair(fmt.Sprintf("  %d x %s", l.Quantity, money.Format(l.UnitPrice)), money.Format(l.Amount()))
	}
	b.Rule()

	b.Pair("Subtotal", money.Format(sale.Totals.Subtotal))
	if sale.Discount.Active() || sale.Totals.Discount.IsPositive() {
		label := "Discount"
		if sale.Discount.Code != "" {
			label = fmt.Sprintf("Discount (%s)", sale.Discount.Code)
		}
		b.Pair(label, money.FormatNegative(sale.Totals.Discount))
	}
	b.Bold(true).Pair("TOTAL", money.Format(sale.Totals.Total)).Bold(false)
	b.Pair("Payment", sale.PaymentMethod)
	b.Rule()

	b.Center().Text("Thank you for shopping!")
	return b.Cut().Bytes()
}

// BuildTestReceipt creates ESC/POS commands for a test slip
func BuildTestReceipt(printerName string, opts ReceiptOptions, now time.Time) []byte {
	b := NewBuilder(opts.Columns)

	b.Center().Bold(true).Large(true).Text(opts.StoreName).Large(false).Bold(false)
	b.Text("POS Terminal")
	b.Rule().Feed(1)

	b.Left()
	b.Text("Test Print")
	b.Text("Printer: " + printerName)
	b.Text("Time: " + opts.stamp(now))
	b.Feed(1)

	b.Center().Rule()
	b.Text("Printer OK!")
	return b.Cut().Bytes()
}
