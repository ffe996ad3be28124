package printer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/config"
	"github.com/eterno/pos-terminal/internal/pos"
)

// sink accepts one connection and returns everything written to it
func sink(t *testing.T) (port int, got <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	ch := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		data, _ := io.ReadAll(conn)
		ch <- data
	}()
	return ln.Addr().(*net.TCPAddr).Port, ch
}

func sampleSale() pos.SaleResult {
	return pos.SaleResult{
		SaleID:        17,
		PaymentMethod: "cash",
		Lines: []pos.Line{
			{ProductID: 1, Name: "Tee", UnitPrice: decimal.NewFromInt(100), Quantity: 2, StockLimit: 5},
		},
		Discount: pos.Discount{Code: "pwd", Kind: pos.KindPercentage, Amount: decimal.NewFromInt(40)},
		Totals: pos.Totals{
			Subtotal: decimal.NewFromInt(200),
			Discount: decimal.NewFromInt(40),
			Total:    decimal.NewFromInt(160),
		},
		CompletedAt: time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC),
	}
}

func TestBuildSaleReceipt(t *testing.T) {
	sg, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	data := BuildSaleReceipt(sampleSale(), ReceiptOptions{StoreName: "ETERNO", Location: sg, Columns: 32})
	if !bytes.HasPrefix(data, cmdInit) || !bytes.HasSuffix(data, cmdPartialCut) {
		t.Fatalf("receipt must start with init and end with cut")
	}
	text := string(data)
	for _, want := range []string{"ETERNO", "Sale #17", "01 Mar 2024, 12:00:00 pm", "Tee", "Discount (pwd)", "-₱40.00", "₱160.00"} {
		if !strings.Contains(text, want) {
			t.Errorf("receipt missing %q", want)
		}
	}
}

func TestPairPadsToWidth(t *testing.T) {
	b := &Builder{cols: 20}
	b.Pair("Subtotal", "₱200.00")
	line := strings.TrimSuffix(string(b.Bytes()), "\n")
	if n := len([]rune(line)); n != 20 {
		t.Fatalf("line %q has %d runes, want 20", line, n)
	}
}

func TestColumns(t *testing.T) {
	if Columns(58) != 32 || Columns(80) != 48 || Columns(0) != 48 {
		t.Fatal("unexpected column widths")
	}
}

func TestManagerPrintSaleToNetworkPrinter(t *testing.T) {
	port, got := sink(t)
	m := NewManager(config.ReceiptConfig{StoreName: "ETERNO", Timezone: "UTC"}, zap.NewNop())
	m.LoadPrinters([]config.PrinterConfig{{ID: "counter", Name: "Counter", Type: "network", Address: "127.0.0.1", Port: port, PaperWidth: 80}})

	if err := m.PrintSale(context.Background(), "counter", sampleSale()); err != nil {
		t.Fatalf("print: %v", err)
	}
	select {
	case data := <-got:
		if !bytes.Contains(data, []byte("Sale #17")) {
			t.Fatalf("printer did not receive the receipt: %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("printer received nothing")
	}
}

func TestTestPrint(t *testing.T) {
	port, got := sink(t)
	m := NewManager(config.ReceiptConfig{StoreName: "ETERNO", Timezone: "UTC"}, zap.NewNop())
	m.AddPrinter(NewNetworkPrinter("bar", "Bar", "127.0.0.1", port, 58))
	if err := m.TestPrint(context.Background(), "bar"); err != nil {
		t.Fatalf("test print: %v", err)
	}
	if data := <-got; !bytes.Contains(data, []byte("Printer OK!")) {
		t.Fatalf("unexpected test slip %q", data)
	}
}

func TestDefaultReceiptTimezoneResolves(t *testing.T) {
	m := NewManager(config.Default().Receipt, zap.NewNop())
	if got := m.location.String(); got != "Asia/Singapore" {
		t.Fatalf("receipt timezone fell back to %q", got)
	}
}

func TestUnknownPrinter(t *testing.T) {
	m := NewManager(config.ReceiptConfig{Timezone: "UTC"}, zap.NewNop())
	if err := m.TestPrint(context.Background(), "nope"); !errors.Is(err, ErrPrinterNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPrintersListing(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	m := NewManager(config.ReceiptConfig{Timezone: "UTC"}, zap.NewNop())
	m.AddPrinter(NewNetworkPrinter("b", "B", "127.0.0.1", ln.Addr().(*net.TCPAddr).Port, 80))
	m.AddPrinter(NewNetworkPrinter("a", "A", "127.0.0.1", 1, 80))

	list := m.Printers(context.Background(), true)
	if len(list) != 2 || list[0].ID != "a" || list[1].Status != "online" {
		t.Fatalf("unexpected listing %+v", list)
	}
}
