package admin

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/eterno/pos-terminal/internal/backend"
)

// ExportContentType is the MIME type of the workbook Export writes
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{
	"ID", "Type", "Reference", "Date", "Customer", "Email", "Address",
	"Payment_Method", "Status", "Items", "Subtotal", "Discount_Type",
	"Discount_Amount", "Shipping_Fee", "Total_Amount",
}

// Export writes the current filtered view as an xlsx workbook
func (v *Viewer) Export(w io.Writer) error {
	view := v.Current()

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transactions")
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, t := range view.Transactions {
		row := sheet.AddRow()
		row.AddCell().SetValue(t.ID)
		row.AddCell().SetValue(t.RecordType)
		row.AddCell().SetValue(t.Reference)
		row.AddCell().SetValue(displayDate(t))
		row.AddCell().SetValue(orNA(t.CustomerName))
		row.AddCell().SetValue(orNA(t.CustomerEmail))
		row.AddCell().SetValue(orNA(t.CustomerAddress))
		row.AddCell().SetValue(paymentLabel(t))
		row.AddCell().SetValue(statusLabel(t))
		row.AddCell().SetValue(itemsLabel(t.Items))
		row.AddCell().SetValue(t.Subtotal.InexactFloat64())
		row.AddCell().SetValue(discountLabel(t.DiscountType))
		row.AddCell().SetValue(t.DiscountAmount.InexactFloat64())
		row.AddCell().SetValue(t.ShippingFee.InexactFloat64())
		row.AddCell().SetValue(t.TotalAmount.InexactFloat64())
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func displayDate(t backend.Transaction) string {
	if t.CreatedAtDisplay != "" {
		return t.CreatedAtDisplay
	}
	return t.CreatedAt
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func paymentLabel(t backend.Transaction) string {
	m := t.PaymentMethod
	if m == "" {
		if t.IsPOSSale() {
			m = "cash"
		} else {
			m = "n/a"
		}
	}
	return strings.ToUpper(m)
}

func statusLabel(t backend.Transaction) string {
	s := t.Status
	if s == "" && t.IsPOSSale() {
		s = "completed"
	}
	return strings.ToLower(s)
}

func discountLabel(d string) string {
	if d == "" || d == "none" {
		return "None"
	}
	return strings.ToUpper(d)
}

func itemsLabel(items []backend.TransactionItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%s", it.DisplayName(), it.Quantity.String()))
	}
	return strings.Join(parts, ", ")
}
