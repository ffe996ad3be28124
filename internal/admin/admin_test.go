package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/backend"
)

type fakeBackend struct {
	list      backend.TransactionList
	listCalls int
	listErr   error
	updateErr error
	updates   []string

	products []backend.Product
	added    []backend.ProductInput
	updated  map[int]backend.ProductInput
	uploads  []string
	orderIDs []int

	checkpoints map[string]backend.Checkpoint
	resets      []string
}

func (f *fakeBackend) ListTransactions(context.Context, int) (backend.TransactionList, error) {
	f.listCalls++
	if f.listErr != nil {
		return backend.TransactionList{}, f.listErr
	}
	// hand out a copy so cache mutations don't leak back
	out := f.list
	out.Transactions = append([]backend.Transaction(nil), f.list.Transactions...)
	return out, nil
}

func (f *fakeBackend) GetTransaction(_ context.Context, id int) (backend.TransactionDetail, error) {
	for _, t := range f.list.Transactions {
		if t.ID == id {
			return backend.TransactionDetail{Transaction: t, RecordType: t.RecordType}, nil
		}
	}
	return backend.TransactionDetail{}, &backend.Error{Kind: backend.KindBusiness, Status: 404, Message: "Transaction not found"}
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, id int, status string) error {
	f.updates = append(f.updates, status)
	return f.updateErr
}

func (f *fakeBackend) ListProducts(context.Context) ([]backend.Product, error) {
	return f.products, nil
}

func (f *fakeBackend) AddProduct(_ context.Context, in backend.ProductInput) (backend.Product, error) {
	f.added = append(f.added, in)
	return backend.Product{ID: 99, Name: in.Name, ImageURL: in.ImageURL}, nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, id int, in backend.ProductInput) (backend.Product, error) {
	if f.updated == nil {
		f.updated = map[int]backend.ProductInput{}
	}
	f.updated[id] = in
	return backend.Product{ID: id, Name: in.Name}, nil
}

func (f *fakeBackend) DeleteProduct(context.Context, int) error { return nil }

func (f *fakeBackend) UploadProductImage(_ context.Context, filename string, image io.Reader) (string, error) {
	f.uploads = append(f.uploads, filename)
	return "/static/uploads/" + filename, nil
}

func (f *fakeBackend) ProductOrders(context.Context, int) ([]int, error) {
	return f.orderIDs, nil
}

func (f *fakeBackend) Revenue(context.Context) (backend.Revenue, error) {
	return backend.Revenue{Total: decimal.NewFromInt(1000), OrdersCount: 3}, nil
}

func (f *fakeBackend) ReportCheckpoints(context.Context) (map[string]backend.Checkpoint, error) {
	return f.checkpoints, nil
}

func (f *fakeBackend) ResetReport(_ context.Context, period string) (string, error) {
	f.resets = append(f.resets, period)
	return "", nil
}

func (f *fakeBackend) ReportPDF(context.Context, string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("%PDF")), "", nil
}

func intPtr(n int) *int { return &n }

func sampleList() backend.TransactionList {
	return backend.TransactionList{
		Transactions: []backend.Transaction{
			{ID: 1, RecordType: backend.RecordPOSSale, TotalAmount: decimal.NewFromInt(150)},
			{ID: 2, RecordType: backend.RecordCustomerOrder, Status: "pending", CustomerName: "Ana", TotalAmount: decimal.NewFromInt(320)},
			{ID: 3, RecordType: backend.RecordCustomerOrder, Status: "Completed", TotalAmount: decimal.NewFromInt(90)},
		},
		Totals: backend.TransactionTotals{CustomerOrders: 2, POSSales: 1, Combined: intPtr(3)},
	}
}

func TestPaidFilterOnPOSAndPending(t *testing.T) {
	v := NewViewer(&fakeBackend{list: backend.TransactionList{Transactions: []backend.Transaction{
		{ID: 1, RecordType: backend.RecordPOSSale},
		{ID: 2, RecordType: backend.RecordCustomerOrder, Status: "pending"},
	}}}, 200, zap.NewNop())
	if _, err := v.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	view := v.Filter(FilterPaid)
	if len(view.Transactions) != 1 || view.Transactions[0].ID != 1 {
		t.Fatalf("expected only the POS sale, got %+v", view.Transactions)
	}
}

func TestFilters(t *testing.T) {
	fb := &fakeBackend{list: sampleList()}
	v := NewViewer(fb, 200, zap.NewNop())
	_, _ = v.Load(context.Background())

	tests := []struct {
		filter Filter
		ids    []int
	}{
		{FilterAll, []int{1, 2, 3}},
		{FilterPaid, []int{1, 3}},
		{FilterPending, []int{2}},
	}
	for _, tt := range tests {
		got := v.Filter(tt.filter).Transactions
		if len(got) != len(tt.ids) {
			t.Fatalf("%s: got %d transactions, want %d", tt.filter, len(got), len(tt.ids))
		}
		for i, id := range tt.ids {
			if got[i].ID != id {
				t.Fatalf("%s: position %d has id %d, want %d", tt.filter, i, got[i].ID, id)
			}
		}
	}
	if fb.listCalls != 1 {
		t.Fatalf("filtering must not re-fetch, got %d calls", fb.listCalls)
	}
	if v.Current().Filter != FilterPending {
		t.Fatalf("last filter should be remembered")
	}
}

func TestParseFilter(t *testing.T) {
	if ParseFilter("PAID") != FilterPaid || ParseFilter("pending") != FilterPending || ParseFilter("junk") != FilterAll {
		t.Fatal("unexpected filter parsing")
	}
}

func TestSummaryLine(t *testing.T) {
	list := sampleList()
	list.Totals.Combined = intPtr(450)
	v := NewViewer(&fakeBackend{list: list}, 200, zap.NewNop())
	summary, err := v.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := "Showing 3 recent transactions (Customer: 2 | POS: 1 | Combined: 450). Use filters to narrow down results."
	if summary != want {
		t.Fatalf("got %q", summary)
	}

	list.Totals.Combined = nil
	v = NewViewer(&fakeBackend{list: list}, 200, zap.NewNop())
	summary, _ = v.Load(context.Background())
	if summary != "Showing 3 recent transactions (Customer: 2 | POS: 1 | Combined: 3)." {
		t.Fatalf("got %q", summary)
	}
}

func TestUpdateStatusRejectsPOSSale(t *testing.T) {
	fb := &fakeBackend{list: sampleList()}
	v := NewViewer(fb, 200, zap.NewNop())
	_, _ = v.Load(context.Background())
	if err := v.UpdateStatus(context.Background(), 1, "completed"); !errors.Is(err, ErrNotMutable) {
		t.Fatalf("expected not mutable, got %v", err)
	}
	if err := v.UpdateStatus(context.Background(), 404, "completed"); !errors.Is(err, ErrNotMutable) {
		t.Fatalf("expected not mutable for unknown id, got %v", err)
	}
	if len(fb.updates) != 0 {
		t.Fatalf("no network call expected")
	}
}

func TestUpdateStatusOptimistic(t *testing.T) {
	fb := &fakeBackend{list: sampleList()}
	v := NewViewer(fb, 200, zap.NewNop())
	_, _ = v.Load(context.Background())
	if err := v.UpdateStatus(context.Background(), 2, "completed"); err != nil {
		t.Fatalf("update: %v", err)
	}
	paid := v.Filter(FilterPaid).Transactions
	if len(paid) != 3 {
		t.Fatalf("updated order should now be paid, got %+v", paid)
	}
	if fb.listCalls != 1 {
		t.Fatalf("success should not re-fetch")
	}
}

func TestUpdateStatusFailureResyncs(t *testing.T) {
	fb := &fakeBackend{list: sampleList(), updateErr: &backend.Error{Kind: backend.KindBusiness, Status: 400, Message: "Invalid status"}}
	v := NewViewer(fb, 200, zap.NewNop())
	_, _ = v.Load(context.Background())
	err := v.UpdateStatus(context.Background(), 2, "shipped")
	if err == nil || err.Error() != "Invalid status" {
		t.Fatalf("expected original error, got %v", err)
	}
	if fb.listCalls != 2 {
		t.Fatalf("expected resync fetch, got %d calls", fb.listCalls)
	}
	if got := v.Filter(FilterPending).Transactions; len(got) != 1 || got[0].Status != "pending" {
		t.Fatalf("cache should hold the authoritative status: %+v", got)
	}
}

func TestExportWorkbook(t *testing.T) {
	v := NewViewer(&fakeBackend{list: sampleList()}, 200, zap.NewNop())
	_, _ = v.Load(context.Background())
	v.Filter(FilterPaid)

	var buf bytes.Buffer
	if err := v.Export(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	file, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	sheet := file.Sheets[0]
	if sheet.Name != "Transactions" {
		t.Fatalf("sheet name %q", sheet.Name)
	}
	if len(sheet.Rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(sheet.Rows))
	}
	if got := sheet.Rows[0].Cells[0].String(); got != "ID" {
		t.Fatalf("header cell %q", got)
	}
	if got := sheet.Rows[1].Cells[7].String(); got != "CASH" {
		t.Fatalf("POS sale payment should default to CASH, got %q", got)
	}
}

func TestCatalogSaveUploadsImageFirst(t *testing.T) {
	fb := &fakeBackend{}
	c := NewCatalog(fb, zap.NewNop())
	res, err := c.Save(context.Background(), 0, backend.ProductInput{Name: "Tee", Price: "199", Stock: "5", ImageURL: "old.png"},
		&Image{Filename: "tee.png", Body: strings.NewReader("img")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Message != "Product added successfully!" || fb.added[0].ImageURL != "/static/uploads/tee.png" {
		t.Fatalf("unexpected save %+v %+v", res, fb.added)
	}

	res, err = c.Save(context.Background(), 4, backend.ProductInput{Name: "Cap", ImageURL: " cap.png "}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Message != "Product updated successfully!" || fb.updated[4].ImageURL != "cap.png" || len(fb.uploads) != 1 {
		t.Fatalf("unexpected update %+v", fb.updated)
	}
}

func TestOrdersForMessages(t *testing.T) {
	fb := &fakeBackend{}
	c := NewCatalog(fb, zap.NewNop())
	_, msg, _ := c.OrdersFor(context.Background(), 1)
	if msg != "This product has not been ordered yet." {
		t.Fatalf("got %q", msg)
	}
	fb.orderIDs = []int{4, 9}
	_, msg, _ = c.OrdersFor(context.Background(), 1)
	if msg != "Order IDs containing this product:\n#4, #9" {
		t.Fatalf("got %q", msg)
	}
}

func TestCheckpointsFillMissingPeriods(t *testing.T) {
	fb := &fakeBackend{checkpoints: map[string]backend.Checkpoint{
		"monthly": {Period: "monthly", LastResetAt: "2024-05-01T00:00:00", LastResetAtDisplay: "May 1, 2024"},
	}}
	r := NewReports(fb, zap.NewNop())
	rows, err := r.Checkpoints(context.Background())
	if err != nil {
		t.Fatalf("checkpoints: %v", err)
	}
	if len(rows) != 3 || rows[0].Display != NotResetYet || rows[1].Display != "May 1, 2024" || rows[2].Label != "Yearly" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestResetValidatesPeriod(t *testing.T) {
	fb := &fakeBackend{}
	r := NewReports(fb, zap.NewNop())
	var pe *PeriodError
	if _, err := r.Reset(context.Background(), "daily"); !errors.As(err, &pe) {
		t.Fatalf("expected period error, got %v", err)
	}
	msg, err := r.Reset(context.Background(), " Weekly ")
	if err != nil || msg != "Weekly reports reset." || fb.resets[0] != "weekly" {
		t.Fatalf("reset: %q %v %v", msg, err, fb.resets)
	}
}

func TestPDFDefaultsContentType(t *testing.T) {
	r := NewReports(&fakeBackend{}, zap.NewNop())
	body, ct, err := r.PDF(context.Background(), "yearly")
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	defer body.Close()
	if ct != "application/pdf" {
		t.Fatalf("content type %q", ct)
	}
}
