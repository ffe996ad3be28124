// Package printer sends ESC/POS receipts to the store's thermal printers.
package printer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	// receipt zones must resolve on hosts without a zoneinfo database
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/config"
	"github.com/eterno/pos-terminal/internal/pos"
)

// ErrPrinterNotFound is returned for an unknown printer id
var ErrPrinterNotFound = errors.New("printer not found")

// Printer represents a thermal printer
type Printer interface {
	ID() string
	Name() string
	Type() string
	Columns() int
	Status(ctx context.Context) string
	Print(ctx context.Context, data []byte) error
}

// Info describes a configured printer
type Info struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
}

// Manager manages printer connections and print jobs
type Manager struct {
	storeName string
	location  *time.Location
	logger    *zap.Logger

	mu       sync.RWMutex
	printers map[string]Printer
}

// NewManager creates a printer manager. Unknown timezones fall back to UTC.
func NewManager(receipt config.ReceiptConfig, logger *zap.Logger) *Manager {
	logger = logger.Named("printer")
	loc, err := time.LoadLocation(receipt.Timezone)
	if err != nil {
		logger.Warn("unknown receipt timezone, using UTC", zap.String("timezone", receipt.Timezone), zap.Error(err))
		loc = time.UTC
	}
	return &Manager{
		storeName: receipt.StoreName,
		location:  loc,
		logger:    logger,
		printers:  make(map[string]Printer),
	}
}

// LoadPrinters registers every configured printer
func (m *Manager) LoadPrinters(cfgs []config.PrinterConfig) {
	for _, pc := range cfgs {
		switch pc.Type {
		case "network", "":
			m.AddPrinter(NewNetworkPrinter(pc.ID, pc.Name, pc.Address, pc.Port, pc.PaperWidth))
			m.logger.Info("printer added", zap.String("id", pc.ID), zap.String("address", pc.Address))
		default:
			m.logger.Warn("unsupported printer type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}
}

// AddPrinter adds a printer to the manager
func (m *Manager) AddPrinter(p Printer) {
	m.mu.Lock()
	m.printers[p.ID()] = p
	m.mu.Unlock()
}

// GetPrinter gets a printer by ID
func (m *Manager) GetPrinter(id string) (Printer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.printers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPrinterNotFound, id)
	}
	return p, nil
}

// Printers lists configured printers sorted by id. With probe set each
// printer is dialed for its status.
func (m *Manager) Printers(ctx context.Context, probe bool) []Info {
	m.mu.RLock()
	list := make([]Printer, 0, len(m.printers))
	for _, p := range m.printers {
		list = append(list, p)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	out := make([]Info, len(list))
	for i, p := range list {
		out[i] = Info{ID: p.ID(), Name: p.Name(), Type: p.Type()}
		if probe {
			out[i].Status = p.Status(ctx)
		}
	}
	return out
}

// PrintSale prints the receipt for a completed sale
func (m *Manager) PrintSale(ctx context.Context, printerID string, sale pos.SaleResult) error {
	p, err := m.GetPrinter(printerID)
	if err != nil {
		return err
	}
	data := BuildSaleReceipt(sale, m.options(p))
	if err := p.Print(ctx, data); err != nil {
		return err
	}
	m.logger.Info("receipt printed", zap.String("printer", printerID), zap.Int("sale_id", sale.SaleID))
	return nil
}

// TestPrint sends a test print to a printer
func (m *Manager) TestPrint(ctx context.Context, printerID string) error {
	p, err := m.GetPrinter(printerID)
	if err != nil {
		return err
	}
	return p.Print(ctx, BuildTestReceipt(p.Name(), m.options(p), time.Now()))
}

func (m *Manager) options(p Printer) ReceiptOptions {
	return ReceiptOptions{StoreName: m.storeName, Location: m.location, Columns: p.Columns()}
}
