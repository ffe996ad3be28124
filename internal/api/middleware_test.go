package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eterno/pos-terminal/internal/backend"
	"github.com/eterno/pos-terminal/internal/display"
)

func TestWithRequestIDKeepsCallerID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = backend.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)
}

func TestWithLoggingRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := WithRequestID(WithLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/pos/sale", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/pos/sale", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 5, fields["bytes"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestDisplayUpgradeThroughMiddleware(t *testing.T) {
	s, _ := newTestServer(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/display"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// a late joiner receives the current cart first
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg display.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "cart", msg.Type)

	resp, err := http.Post(srv.URL+"/api/pos/cart/lines", "application/json",
		strings.NewReader(`{"product_id":3,"name":"Hat","price":75,"stock":2}`))
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, conn.ReadJSON(&msg))
	require.Len(t, msg.Lines, 1)
	assert.Equal(t, "Hat", msg.Lines[0].Name)
	assert.Equal(t, "₱75.00", msg.Total)
}

func TestSaleBuffer(t *testing.T) {
	sb := NewSaleBuffer(2)
	for id := 1; id <= 3; id++ {
		sb.Add(SaleRecord{SaleID: id, Total: decimal.NewFromInt(int64(id * 10)), Receipt: ReceiptPrinting})
	}

	entries := sb.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].SaleID, "newest first")
	assert.Equal(t, 2, entries[1].SaleID)

	_, ok := sb.Get(1)
	assert.False(t, ok, "oldest record should be dropped")

	sb.UpdateReceipt(2, ReceiptFailed, "printer offline")
	rec, ok := sb.Get(2)
	require.True(t, ok)
	assert.Equal(t, ReceiptFailed, rec.Receipt)
	assert.Equal(t, "printer offline", rec.Error)
	assert.NotNil(t, rec.PrintedAt)
}
