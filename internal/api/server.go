// Package api is the terminal's local HTTP surface: the register, shop cart,
// checkout and admin endpoints, the customer display stream and the web UI.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/admin"
	"github.com/eterno/pos-terminal/internal/backend"
	"github.com/eterno/pos-terminal/internal/checkout"
	"github.com/eterno/pos-terminal/internal/config"
	"github.com/eterno/pos-terminal/internal/display"
	"github.com/eterno/pos-terminal/internal/pos"
	"github.com/eterno/pos-terminal/internal/printer"
	"github.com/eterno/pos-terminal/internal/shopcart"
)

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	client   *backend.Client
	engine   *pos.Engine
	shop     *shopcart.Controller
	checkout *checkout.Session
	orders   *admin.Viewer
	catalog  *admin.Catalog
	reports  *admin.Reports
	hub      *display.Hub
	printers *printer.Manager
	logs     *LogBuffer
	sales    *SaleBuffer
	logger   *zap.Logger

	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer wires the terminal components around one backend client. Every
// register change is pushed to the display hub.
func NewServer(cfg *config.Config, client *backend.Client, printers *printer.Manager, hub *display.Hub, logs *LogBuffer, logger *zap.Logger) *Server {
	opts := pos.Options{
		PercentRate:            cfg.POS.PercentDiscount,
		FixedAmount:            cfg.POS.FixedDiscount,
		EnforceStockOnFirstAdd: cfg.POS.EnforceStockOnFirstAdd,
	}
	s := &Server{
		config:   cfg,
		client:   client,
		engine:   pos.NewEngine(client, opts, logger),
		shop:     shopcart.NewController(client, logger),
		checkout: checkout.NewSession(client, cfg.Checkout, logger),
		orders:   admin.NewViewer(client, cfg.Backend.OrdersLimit, logger),
		catalog:  admin.NewCatalog(client, logger),
		reports:  admin.NewReports(client, logger),
		hub:      hub,
		printers: printers,
		logs:     logs,
		sales:    NewSaleBuffer(100),
		logger:   logger.Named("api"),
		mux:      http.NewServeMux(),
	}
	s.engine.OnChange(hub.PublishCart)
	hub.PublishCart(s.engine.Snapshot())

	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Status and diagnostics
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/logs", s.handleLogs)
	s.mux.HandleFunc("GET /api/sales", s.handleSales)

	// Register
	s.mux.HandleFunc("GET /api/pos/cart", s.handleCart)
	s.mux.HandleFunc("POST /api/pos/cart/lines", s.handleAddLine)
	s.mux.HandleFunc("PATCH /api/pos/cart/lines/{id}", s.handleChangeQuantity)
	s.mux.HandleFunc("DELETE /api/pos/cart/lines/{id}", s.handleRemoveLine)
	s.mux.HandleFunc("DELETE /api/pos/cart", s.handleClearCart)
	s.mux.HandleFunc("PUT /api/pos/cart/discount", s.handleApplyDiscount)
	s.mux.HandleFunc("DELETE /api/pos/cart/discount", s.handleRemoveDiscount)
	s.mux.HandleFunc("POST /api/pos/sale", s.handleSubmitSale)

	// Shop cart
	s.mux.HandleFunc("GET /api/shop/cart/count", s.handleShopCount)
	s.mux.HandleFunc("POST /api/shop/cart", s.handleShopAdd)
	s.mux.HandleFunc("PUT /api/shop/cart/{id}", s.handleShopUpdate)
	s.mux.HandleFunc("DELETE /api/shop/cart/{id}", s.handleShopRemove)

	// Checkout
	s.mux.HandleFunc("POST /api/checkout/voucher", s.handleApplyVoucher)
	s.mux.HandleFunc("DELETE /api/checkout/voucher", s.handleRemoveVoucher)
	s.mux.HandleFunc("POST /api/checkout/quote", s.handleQuote)
	s.mux.HandleFunc("POST /api/checkout/quote/{id}/confirm", s.handleConfirm)

	// Admin
	s.mux.HandleFunc("GET /api/admin/orders", s.handleOrders)
	s.mux.HandleFunc("GET /api/admin/orders/export", s.handleExportOrders)
	s.mux.HandleFunc("GET /api/admin/orders/{id}", s.handleOrderDetail)
	s.mux.HandleFunc("PUT /api/admin/orders/{id}/status", s.handleOrderStatus)
	s.mux.HandleFunc("GET /api/admin/products", s.handleProducts)
	s.mux.HandleFunc("POST /api/admin/products", s.handleSaveProduct)
	s.mux.HandleFunc("PUT /api/admin/products/{id}", s.handleSaveProduct)
	s.mux.HandleFunc("DELETE /api/admin/products/{id}", s.handleDeleteProduct)
	s.mux.HandleFunc("GET /api/admin/products/{id}/orders", s.handleProductOrders)
	s.mux.HandleFunc("GET /api/admin/revenue", s.handleRevenue)
	s.mux.HandleFunc("GET /api/admin/reports/checkpoints", s.handleCheckpoints)
	s.mux.HandleFunc("POST /api/admin/reports/reset", s.handleResetReport)
	s.mux.HandleFunc("GET /api/admin/reports/pdf", s.handleReportPDF)

	// Printer management
	s.mux.HandleFunc("GET /api/printers", s.handleListPrinters)
	s.mux.HandleFunc("POST /api/printers/{id}/test", s.handleTestPrint)

	// Customer display
	s.mux.Handle("GET /ws/display", s.hub)

	// Web UI
	s.mux.HandleFunc("GET /{$}", s.handleUI)
}

// Handler returns the routes wrapped in request id and logging middleware
func (s *Server) Handler() http.Handler {
	return WithRequestID(WithLogging(s.logger)(s.mux))
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

// handleStatus returns server status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	ok(w, map[string]any{
		"status":          "running",
		"backend":         s.client.Status(),
		"cart_state":      snap.State,
		"cart_lines":      len(snap.Lines),
		"submitting":      s.engine.Submitting(),
		"display_clients": s.hub.Clients(),
		"printers_count":  len(s.config.Printers),
		"receipt_printer": s.config.Receipt.PrinterID,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var levels []string
	if v := r.URL.Query().Get("level"); v != "" {
		levels = strings.Split(v, ",")
	}
	ok(w, map[string]any{"logs": s.logs.Entries(levels)})
}

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]any{"sales": s.sales.Entries()})
}

// Register

func (s *Server) writeCart(w http.ResponseWriter, message string) {
	snap := s.engine.Snapshot()
	fields := map[string]any{
		"cart":    snap,
		"display": display.CartMessage(snap),
	}
	if message != "" {
		fields["message"] = message
	}
	ok(w, fields)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	s.writeCart(w, "")
}

// AddLineRequest is a product scanned or clicked into the register cart
type AddLineRequest struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

func (s *Server) handleAddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.ProductID <= 0 {
		s.writeError(w, badRequest("Invalid product"))
		return
	}
	if req.Price.IsNegative() {
		s.writeError(w, badRequest("Invalid price"))
		return
	}
	if err := s.engine.AddLine(req.ProductID, req.Name, req.Price, req.Stock); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCart(w, "")
}

func (s *Server) handleChangeQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.ChangeQuantity(id, req.Delta); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCart(w, "")
}

func (s *Server) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.RemoveLine(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCart(w, "")
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		s.writeError(w, badRequest("Clear all items from cart? Repeat with confirm=true"))
		return
	}
	if err := s.engine.Clear(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCart(w, "Cart cleared")
}

func (s *Server) handleApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.engine.ApplyDiscount(req.Type)
	if err != nil {
		s.writeError(w, err)
		return
	}
	msg := "No discount applied"
	if d.Active() {
		msg = fmt.Sprintf("%s discount applied", strings.ToUpper(d.Code))
	}
	s.writeCart(w, msg)
}

func (s *Server) handleRemoveDiscount(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RemoveDiscount(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeCart(w, "Discount removed")
}

func (s *Server) handleSubmitSale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = s.config.POS.PaymentMethod
	}
	if method == "" {
		method = "cash"
	}

	// a sale the backend records must not be lost to a client disconnect;
	// the backend client timeout still bounds the call
	sale, err := s.engine.SubmitSale(context.WithoutCancel(r.Context()), method)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.PublishSale(sale)
	rec := s.recordSale(sale)

	ok(w, map[string]any{
		"message": "Sale completed successfully!",
		"sale_id": sale.SaleID,
		"sale":    sale,
		"receipt": rec.Receipt,
	})
}

// recordSale adds the sale to the recent-sales buffer and, when a receipt
// printer is configured, prints the receipt in the background.
func (s *Server) recordSale(sale pos.SaleResult) SaleRecord {
	items := 0
	for _, l := range sale.Lines {
		items += l.Quantity
	}
	rec := SaleRecord{
		SaleID:        sale.SaleID,
		PaymentMethod: sale.PaymentMethod,
		Items:         items,
		DiscountType:  sale.Discount.WireType(),
		Total:         sale.Totals.Total,
		CreatedAt:     sale.CompletedAt,
		Receipt:       ReceiptNone,
	}
	printerID := s.config.Receipt.PrinterID
	if printerID != "" {
		rec.Receipt = ReceiptPrinting
		rec.PrinterID = printerID
	}
	s.sales.Add(rec)

	if printerID != "" {
		go s.printReceipt(printerID, sale)
	}
	return rec
}

func (s *Server) printReceipt(printerID string, sale pos.SaleResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.printers.PrintSale(ctx, printerID, sale); err != nil {
		s.logger.Warn("receipt print failed",
			zap.Int("sale_id", sale.SaleID),
			zap.String("printer", printerID),
			zap.Error(err))
		s.sales.UpdateReceipt(sale.SaleID, ReceiptFailed, err.Error())
		return
	}
	s.sales.UpdateReceipt(sale.SaleID, ReceiptPrinted, "")
}

// Shop cart

func (s *Server) handleShopCount(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]any{"count": s.shop.Count(r.Context())})
}

func (s *Server) handleShopAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int `json:"product_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.ProductID <= 0 {
		s.writeError(w, badRequest("Invalid product"))
		return
	}
	res, err := s.shop.Add(r.Context(), req.ProductID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeResult(w, res)
}

func (s *Server) handleShopUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Change int `json:"change"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.shop.ChangeQuantity(r.Context(), id, req.Change)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeResult(w, res)
}

func (s *Server) handleShopRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.shop.Remove(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeResult(w, res)
}

func writeResult(w http.ResponseWriter, res shopcart.Result) {
	fields := map[string]any{"reload": res.Reload}
	if res.Message != "" {
		fields["message"] = res.Message
	}
	if res.Count != nil {
		fields["count"] = *res.Count
	}
	ok(w, fields)
}

// Checkout

func (s *Server) handleApplyVoucher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.checkout.ApplyVoucher(req.Code); err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"voucher_applied": true, "message": "Voucher applied!"})
}

func (s *Server) handleRemoveVoucher(w http.ResponseWriter, r *http.Request) {
	s.checkout.RemoveVoucher()
	ok(w, map[string]any{"voucher_applied": false})
}

// QuoteRequest is the checkout form plus the cart subtotal shown to the shopper
type QuoteRequest struct {
	checkout.Form
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	q, err := s.checkout.Prepare(req.Form, req.Subtotal)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"quote": q})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	c, err := s.checkout.Confirm(context.WithoutCancel(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"order_id": c.OrderID, "message": c.Message})
}

// Admin

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("refresh") == "true" || !s.orders.Loaded() {
		if _, err := s.orders.Load(r.Context()); err != nil {
			s.writeError(w, err)
			return
		}
	}
	view := s.orders.Current()
	if f := q.Get("filter"); f != "" {
		view = s.orders.Filter(admin.ParseFilter(f))
	}
	ok(w, map[string]any{
		"filter":       view.Filter,
		"transactions": view.Transactions,
		"summary":      view.Summary,
	})
}

func (s *Server) handleExportOrders(w http.ResponseWriter, r *http.Request) {
	if !s.orders.Loaded() {
		if _, err := s.orders.Load(r.Context()); err != nil {
			s.writeError(w, err)
			return
		}
	}
	var buf bytes.Buffer
	if err := s.orders.Export(&buf); err != nil {
		s.writeError(w, err)
		return
	}
	filename := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", admin.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (s *Server) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	detail, err := s.orders.Detail(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"transaction": detail.Transaction, "record_type": detail.RecordType})
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		s.writeError(w, badRequest("Status is required"))
		return
	}
	if err := s.orders.UpdateStatus(r.Context(), id, status); err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"message": "Order status updated successfully!"})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"products": products})
}

// handleSaveProduct adds (POST) or updates (PUT /{id}) a product. It takes
// the admin form as multipart, with an optional "image" file, or as JSON.
func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	id := 0
	if r.PathValue("id") != "" {
		var err error
		if id, err = pathID(r); err != nil {
			s.writeError(w, err)
			return
		}
	}

	var in backend.ProductInput
	var img *admin.Image
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			s.writeError(w, badRequest("Invalid form data"))
			return
		}
		in = backend.ProductInput{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Price:       r.FormValue("price"),
			Stock:       r.FormValue("stock"),
			Category:    r.FormValue("category"),
			ImageURL:    r.FormValue("image_url"),
		}
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			img = &admin.Image{Filename: header.Filename, Body: file}
		case !errors.Is(err, http.ErrMissingFile):
			s.writeError(w, badRequest("Invalid image upload"))
			return
		}
	} else if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}

	if strings.TrimSpace(in.Name) == "" {
		s.writeError(w, badRequest("Product name is required"))
		return
	}

	res, err := s.catalog.Save(r.Context(), id, in, img)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"product": res.Product, "message": res.Message})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	msg, err := s.catalog.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"message": msg})
}

func (s *Server) handleProductOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ids, msg, err := s.catalog.OrdersFor(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"order_ids": ids, "message": msg})
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	rev, err := s.reports.Revenue(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"revenue": rev})
}

func (s *Server) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	cps, err := s.reports.Checkpoints(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"checkpoints": cps})
}

func (s *Server) handleResetReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	msg, err := s.reports.Reset(r.Context(), req.Period)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"message": msg})
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	body, contentType, err := s.reports.PDF(r.Context(), period)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", period+"_report.pdf"))
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Warn("report download interrupted", zap.String("period", period), zap.Error(err))
	}
}

// Printers

// handleListPrinters returns configured printers, with status when probe=true
func (s *Server) handleListPrinters(w http.ResponseWriter, r *http.Request) {
	probe := r.URL.Query().Get("probe") == "true"
	ok(w, map[string]any{"printers": s.printers.Printers(r.Context(), probe)})
}

// handleTestPrint sends a test print to a printer
func (s *Server) handleTestPrint(w http.ResponseWriter, r *http.Request) {
	if err := s.printers.TestPrint(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	ok(w, map[string]any{"message": "Test print sent successfully"})
}

// handleUI serves the web UI
func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(webUI))
}
