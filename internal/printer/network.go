package printer

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// NetworkPrinter is a thermal printer listening on a raw TCP port (usually 9100)
type NetworkPrinter struct {
	id         string
	name       string
	address    string
	port       int
	paperWidth int
	mu         sync.Mutex
}

// NewNetworkPrinter creates a new network printer
func NewNetworkPrinter(id, name, address string, port, paperWidth int) *NetworkPrinter {
	if port == 0 {
		port = 9100
	}
	return &NetworkPrinter{
		id:         id,
		name:       name,
		address:    address,
		port:       port,
		paperWidth: paperWidth,
	}
}

// ID returns the printer ID
func (p *NetworkPrinter) ID() string {
	return p.id
}

// Name returns the printer name
func (p *NetworkPrinter) Name() string {
	return p.name
}

// Type returns the printer type
func (p *NetworkPrinter) Type() string {
	return "network"
}

// Columns returns the characters per line for the loaded paper
func (p *NetworkPrinter) Columns() int {
	return Columns(p.paperWidth)
}

func (p *NetworkPrinter) addr() string {
	return net.JoinHostPort(p.address, strconv.Itoa(p.port))
}

// Status dials the printer to check it is reachable
func (p *NetworkPrinter) Status(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.addr())
	if err != nil {
		return "offline"
	}
	conn.Close()
	return "online"
}

// Print sends data to the printer. Jobs to one printer are serialized.
func (p *NetworkPrinter) Print(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", p.addr())
	if err != nil {
		return fmt.Errorf("failed to connect to printer: %w", err)
	}
	defer conn.Close()

	// Set write deadline
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to send data to printer: %w", err)
	}
	return nil
}
