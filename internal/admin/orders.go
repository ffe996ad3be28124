// Package admin backs the admin console: the cached order list with its
// filters and status updates, the product catalog, and revenue reports.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/backend"
)

var ErrNotMutable = errors.New("Only customer orders can be updated.")

// Filter selects a subset of the cached transactions
type Filter string

const (
	FilterAll     Filter = "all"
	FilterPaid    Filter = "paid"
	FilterPending Filter = "pending"
)

// ParseFilter maps a query value to a filter, defaulting to all
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterPaid:
		return FilterPaid
	case FilterPending:
		return FilterPending
	default:
		return FilterAll
	}
}

// Match reports whether a transaction passes the filter
func (f Filter) Match(t backend.Transaction) bool {
	status := strings.ToLower(t.Status)
	switch f {
	case FilterPaid:
		if t.RecordType == backend.RecordPOSSale {
			return true
		}
		return status == "completed" || status == "paid"
	case FilterPending:
		return t.RecordType == backend.RecordCustomerOrder && status == "pending"
	default:
		return true
	}
}

// OrderBackend is the part of the backend client the order viewer uses
type OrderBackend interface {
	ListTransactions(ctx context.Context, limit int) (backend.TransactionList, error)
	GetTransaction(ctx context.Context, id int) (backend.TransactionDetail, error)
	UpdateOrderStatus(ctx context.Context, id int, status string) error
}

// View is a filtered slice of the cache
type View struct {
	Filter       Filter                `json:"filter"`
	Transactions []backend.Transaction `json:"transactions"`
	Summary      string                `json:"summary"`
	Loaded       bool                  `json:"loaded"`
}

// Viewer caches the recent transaction list for repeated filtering
type Viewer struct {
	backend OrderBackend
	limit   int
	logger  *zap.Logger

	mu      sync.RWMutex
	cache   []backend.Transaction
	totals  backend.TransactionTotals
	summary string
	filter  Filter
	loaded  bool
}

// NewViewer creates an order viewer that fetches up to limit transactions
func NewViewer(b OrderBackend, limit int, logger *zap.Logger) *Viewer {
	if limit <= 0 {
		limit = 200
	}
	return &Viewer{backend: b, limit: limit, logger: logger.Named("admin"), filter: FilterAll}
}

// Load fetches the list, replaces the cache and returns the summary line
func (v *Viewer) Load(ctx context.Context) (string, error) {
	list, err := v.backend.ListTransactions(ctx, v.limit)
	if err != nil {
		return "", err
	}
	summary := summarize(list)

	v.mu.Lock()
	v.cache = list.Transactions
	v.totals = list.Totals
	v.summary = summary
	v.loaded = true
	v.mu.Unlock()

	v.logger.Debug("orders loaded", zap.Int("count", len(list.Transactions)))
	return summary, nil
}

func summarize(list backend.TransactionList) string {
	n := len(list.Transactions)
	combined := n
	if list.Totals.Combined != nil {
		combined = *list.Totals.Combined
	}
	s := fmt.Sprintf("Showing %d recent transactions (Customer: %d | POS: %d | Combined: %d).",
		n, list.Totals.CustomerOrders, list.Totals.POSSales, combined)
	if combined > n {
		s += " Use filters to narrow down results."
	}
	return s
}

// Loaded reports whether the cache holds a fetched list
func (v *Viewer) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// Filter applies f to the cache without fetching and remembers it
func (v *Viewer) Filter(f Filter) View {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
	return v.Current()
}

// Current returns the cache under the last used filter
func (v *Viewer) Current() View {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]backend.Transaction, 0, len(v.cache))
	for _, t := range v.cache {
		if v.filter.Match(t) {
			out = append(out, t)
		}
	}
	return View{Filter: v.filter, Transactions: out, Summary: v.summary, Loaded: v.loaded}
}

// Detail fetches one transaction with its items
func (v *Viewer) Detail(ctx context.Context, id int) (backend.TransactionDetail, error) {
	return v.backend.GetTransaction(ctx, id)
}

// UpdateStatus changes a cached customer order's status. On failure the
// cache is refreshed from the backend and the original error is returned.
func (v *Viewer) UpdateStatus(ctx context.Context, id int, status string) error {
	v.mu.RLock()
	idx := v.indexLocked(id)
	v.mu.RUnlock()
	if idx < 0 {
		return ErrNotMutable
	}

	if err := v.backend.UpdateOrderStatus(ctx, id, status); err != nil {
		v.logger.Warn("status update failed, resyncing",
			zap.Int("order_id", id),
			zap.String("status", status),
			zap.Error(err))
		if _, rerr := v.Load(ctx); rerr != nil {
			v.logger.Debug("resync failed", zap.Error(rerr))
		}
		return err
	}

	v.mu.Lock()
	if i := v.indexLocked(id); i >= 0 {
		v.cache[i].Status = status
	}
	v.mu.Unlock()
	return nil
}

func (v *Viewer) indexLocked(id int) int {
	for i, t := range v.cache {
		if t.ID == id && t.RecordType == backend.RecordCustomerOrder {
			return i
		}
	}
	return -1
}
