// Package display streams the register cart to customer-facing screens over
// websocket.
package display

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/money"
	"github.com/eterno/pos-terminal/internal/pos"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

// LineMessage is one cart line as shown to the customer
type LineMessage struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Amount   string `json:"amount"`
}

// Message is pushed to every display client
type Message struct {
	Type         string        `json:"type"`
	State        string        `json:"state,omitempty"`
	Lines        []LineMessage `json:"lines,omitempty"`
	Subtotal     string        `json:"subtotal,omitempty"`
	Discount     string        `json:"discount,omitempty"`
	DiscountCode string        `json:"discount_code,omitempty"`
	Total        string        `json:"total,omitempty"`
	SaleID       int           `json:"sale_id,omitempty"`
}

// CartMessage renders a snapshot for the display
func CartMessage(s pos.Snapshot) Message {
	m := Message{
		Type:     "cart",
		State:    string(s.State),
		Lines:    make([]LineMessage, len(s.Lines)),
		Subtotal: money.Format(s.Totals.Subtotal),
		Total:    money.Format(s.Totals.Total),
	}
	for i, l := range s.Lines {
		m.Lines[i] = LineMessage{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    money.Format(l.UnitPrice),
			Amount:   money.Format(l.Amount()),
		}
	}
	if s.Discount.Active() {
		m.Discount = money.FormatNegative(s.Totals.Discount)
		m.DiscountCode = s.Discount.Code
	}
	return m
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans cart updates out to connected displays
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

// NewHub creates a display hub
func NewHub(pingInterval time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// displays are served from the same terminal on the LAN
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		logger:       logger.Named("display"),
		clients:      make(map[*client]struct{}),
	}
}

// PublishCart broadcasts a cart snapshot. It matches pos.Engine.OnChange.
func (h *Hub) PublishCart(s pos.Snapshot) {
	h.Publish(CartMessage(s))
}

// PublishSale tells displays a sale completed
func (h *Hub) PublishSale(r pos.SaleResult) {
	h.Publish(Message{Type: "sale", SaleID: r.SaleID, Total: money.Format(r.Totals.Total)})
}

// Publish sends msg to every client and keeps cart messages for new joiners
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal display message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if msg.Type == "cart" {
		h.last = data
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// slow client, drop it
			h.logger.Warn("display client too slow, disconnecting", zap.String("remote", c.conn.RemoteAddr().String()))
			delete(h.clients, c)
			c.close()
		}
	}
}

// Clients returns the number of connected displays
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams updates until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("display upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()

	h.logger.Info("display connected", zap.String("remote", conn.RemoteAddr().String()))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.readLoop(c)
	}()
	go func() {
		defer wg.Done()
		h.writeLoop(c)
	}()
	wg.Wait()

	h.remove(c)
	conn.Close()
	h.logger.Info("display disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

// readLoop drains client frames so close and pong frames are processed.
// Each pong extends the read deadline; a display that stops answering pings
// times out.
func (h *Hub) readLoop(c *client) {
	defer c.close()
	pongWait := 2 * h.pingInterval
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("display read error", zap.Error(err))
			}
			return
		}
	}
}

// writeLoop handles outgoing messages and pings
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			c.conn.Close()
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("display write error", zap.Error(err))
				c.close()
				c.conn.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debug("display ping error", zap.Error(err))
				c.close()
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Close disconnects every display and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
