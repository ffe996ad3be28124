package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/config"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{BaseURL: srv.URL, Cookie: "session=s1", Timeout: 2 * time.Second}, zap.NewNop())
}

func TestCartCountAndHeaders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cart/count" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Cookie") != "session=s1" {
			t.Errorf("cookie not forwarded: %q", r.Header.Get("Cookie"))
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("missing request id")
		}
		_, _ = w.Write([]byte(`{"count":3}`))
	}))
	n, err := c.CartCount(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("count=%d err=%v", n, err)
	}
	if st := c.Status(); !st.Connected || st.LastSeen.IsZero() {
		t.Fatalf("expected connected status: %+v", st)
	}
}

func TestUpdateCartItemBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/cart/update/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]int
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["change"] != -1 {
			t.Errorf("unexpected body %+v", body)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	if err := c.UpdateCartItem(context.Background(), 7, -1); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestBusinessErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Insufficient stock"}`))
	}))
	err := c.AddToCart(context.Background(), 1, 1)
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if be.Kind != KindBusiness || be.Status != 400 || be.Error() != "Insufficient stock" {
		t.Fatalf("unexpected error: %+v", be)
	}
}

func TestSuccessFalseIsBusinessError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"Order not found"}`))
	}))
	err := c.UpdateOrderStatus(context.Background(), 9, "completed")
	if !IsKind(err, KindBusiness) || err.Error() != "Order not found" {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestUnauthorizedKind(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Please login"}`))
	}))
	err := c.AddToCart(context.Background(), 1, 1)
	if !IsKind(err, KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	err := c.DeleteProduct(context.Background(), 1)
	if err == nil || err.Error() != "request failed with status 500" {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(config.BackendConfig{BaseURL: url, Timeout: time.Second}, zap.NewNop())
	_, err := c.CartCount(context.Background())
	if !IsKind(err, KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if st := c.Status(); st.Connected || st.LastError == "" {
		t.Fatalf("expected disconnected status: %+v", st)
	}
}

func TestCreateSaleWireFormat(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/sales/create" {
			t.Errorf("path %s", r.URL.Path)
		}
		var raw map[string]any
		_ = json.NewDecoder(r.Body).Decode(&raw)
		items := raw["items"].([]any)
		first := items[0].(map[string]any)
		if first["price"] != 99.5 || first["quantity"] != float64(2) {
			t.Errorf("numbers must travel as JSON numbers: %+v", first)
		}
		if raw["discount_type"] != "pwd" || raw["payment_method"] != "cash" {
			t.Errorf("unexpected body %+v", raw)
		}
		_, _ = w.Write([]byte(`{"success":true,"sale_id":42,"subtotal":199,"discount_amount":"39.8","final_total":159.2}`))
	}))
	resp, err := c.CreateSale(context.Background(), SaleRequest{
		Items:         []SaleItem{{ProductID: 1, Name: "Tee", Price: 99.5, Quantity: 2, Stock: 5}},
		PaymentMethod: "cash",
		DiscountType:  "pwd",
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if resp.SaleID != 42 || !resp.DiscountAmount.Equal(decimal.RequireFromString("39.8")) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestListTransactions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "200" {
			t.Errorf("limit %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"success":true,"transactions":[
			{"id":1,"record_type":"pos_sale","total_amount":"150.00"},
			{"id":2,"record_type":"customer_order","status":"pending","total_amount":320.5,"shipping_fee":null}
		],"totals":{"customer_orders":10,"pos_sales":5,"combined":15}}`))
	}))
	list, err := c.ListTransactions(context.Background(), 200)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Transactions) != 2 || !list.Transactions[0].IsPOSSale() {
		t.Fatalf("unexpected list %+v", list.Transactions)
	}
	if !list.Transactions[1].TotalAmount.Equal(decimal.RequireFromString("320.5")) {
		t.Fatalf("total parse: %s", list.Transactions[1].TotalAmount)
	}
	if list.Totals.Combined == nil || *list.Totals.Combined != 15 {
		t.Fatalf("totals: %+v", list.Totals)
	}
}

func TestUploadProductImage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "shirt.png" || string(data) != "PNGDATA" {
			t.Errorf("unexpected upload %s %q", hdr.Filename, data)
		}
		_, _ = w.Write([]byte(`{"success":true,"image_url":"/static/uploads/shirt.png"}`))
	}))
	u, err := c.UploadProductImage(context.Background(), "/tmp/shirt.png", strings.NewReader("PNGDATA"))
	if err != nil || u != "/static/uploads/shirt.png" {
		t.Fatalf("url=%q err=%v", u, err)
	}
}

func TestReportPDF(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("period") != "weekly" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid period"}`))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	body, ct, err := c.ReportPDF(context.Background(), "weekly")
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if ct != "application/pdf" || string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected pdf %s %q", ct, data)
	}
	if _, _, err := c.ReportPDF(context.Background(), "daily"); err == nil || err.Error() != "Invalid period" {
		t.Fatalf("expected invalid period, got %v", err)
	}
}

func TestMonitorUpdatesStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":0}`))
	}))
	defer srv.Close()

	c := NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second}, zap.NewNop())
	m := NewMonitor(c, 10*time.Millisecond, zap.NewNop())
	m.Start()
	deadline := time.Now().Add(2 * time.Second)
	for hits.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()
	m.Stop()

	if hits.Load() < 2 {
		t.Fatalf("expected repeated pings, got %d", hits.Load())
	}
	if !c.Status().Connected {
		t.Fatal("status not connected after successful ping")
	}
}
