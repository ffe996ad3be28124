package api

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt states of a recorded sale
const (
	ReceiptNone     = "none"
	ReceiptPrinting = "printing"
	ReceiptPrinted  = "printed"
	ReceiptFailed   = "failed"
)

// SaleRecord represents a completed register sale
type SaleRecord struct {
	SaleID        int             `json:"sale_id"`
	PaymentMethod string          `json:"payment_method"`
	Items         int             `json:"items"`
	DiscountType  string          `json:"discount_type"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	Receipt       string          `json:"receipt"`
	PrinterID     string          `json:"printer_id,omitempty"`
	PrintedAt     *time.Time      `json:"printed_at,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// SaleBuffer is a thread-safe ring buffer for sale records
type SaleBuffer struct {
	mu      sync.RWMutex
	entries []SaleRecord
	cap     int
}

// NewSaleBuffer creates a new sale buffer with the given capacity
func NewSaleBuffer(capacity int) *SaleBuffer {
	return &SaleBuffer{
		entries: make([]SaleRecord, 0, capacity),
		cap:     capacity,
	}
}

// Add adds a sale record to the buffer
func (sb *SaleBuffer) Add(rec SaleRecord) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if len(sb.entries) >= sb.cap {
		copy(sb.entries, sb.entries[1:])
		sb.entries[len(sb.entries)-1] = rec
	} else {
		sb.entries = append(sb.entries, rec)
	}
}

// Entries returns all sale records (newest first)
func (sb *SaleBuffer) Entries() []SaleRecord {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	result := make([]SaleRecord, len(sb.entries))
	for i, j := 0, len(sb.entries)-1; j >= 0; i, j = i+1, j-1 {
		result[i] = sb.entries[j]
	}
	return result
}

// Get returns the record for a sale id
func (sb *SaleBuffer) Get(saleID int) (SaleRecord, bool) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	for i := len(sb.entries) - 1; i >= 0; i-- {
		if sb.entries[i].SaleID == saleID {
			return sb.entries[i], true
		}
	}
	return SaleRecord{}, false
}

// UpdateReceipt sets the receipt state of a sale by id
func (sb *SaleBuffer) UpdateReceipt(saleID int, state, errMsg string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	for i := len(sb.entries) - 1; i >= 0; i-- {
		if sb.entries[i].SaleID == saleID {
			sb.entries[i].Receipt = state
			if errMsg != "" {
				sb.entries[i].Error = errMsg
			}
			if state == ReceiptPrinted || state == ReceiptFailed {
				now := time.Now()
				sb.entries[i].PrintedAt = &now
			}
			return
		}
	}
}
