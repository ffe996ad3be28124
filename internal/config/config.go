package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the terminal configuration
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Backend  BackendConfig   `yaml:"backend"`
	POS      POSConfig       `yaml:"pos"`
	Checkout CheckoutConfig  `yaml:"checkout"`
	Display  DisplayConfig   `yaml:"display"`
	Receipt  ReceiptConfig   `yaml:"receipt"`
	Printers []PrinterConfig `yaml:"printers"`

	// ConfigPath is the path the config was loaded from (not serialized)
	ConfigPath string `yaml:"-"`
}

// ServerConfig represents the local HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendConfig represents the shop backend connection
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Cookie  string        `yaml:"cookie"` // session cookie forwarded on every request
	Timeout time.Duration `yaml:"timeout"`

	// OrdersLimit caps how many transactions the admin viewer fetches
	OrdersLimit int `yaml:"orders_limit"`

	// HealthInterval is how often the terminal checks the backend is reachable
	HealthInterval time.Duration `yaml:"health_interval"`
}

// POSConfig holds the register's discount and stock rules
type POSConfig struct {
	PaymentMethod          string          `yaml:"payment_method"`
	PercentDiscount        decimal.Decimal `yaml:"percent_discount"`
	FixedDiscount          decimal.Decimal `yaml:"fixed_discount"`
	EnforceStockOnFirstAdd bool            `yaml:"enforce_stock_on_first_add"`
}

// CheckoutConfig holds the online checkout fee and voucher rules
type CheckoutConfig struct {
	VoucherAmount  decimal.Decimal `yaml:"voucher_amount"`
	DeliveryFeeMin int             `yaml:"delivery_fee_min"`
	DeliveryFeeMax int             `yaml:"delivery_fee_max"`
	QuoteTTL       time.Duration   `yaml:"quote_ttl"`
}

// DisplayConfig configures the customer-facing display stream
type DisplayConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
}

// ReceiptConfig selects the receipt printer and what goes on the slip
type ReceiptConfig struct {
	PrinterID string `yaml:"printer_id"`
	StoreName string `yaml:"store_name"`
	Timezone  string `yaml:"timezone"`
}

// PrinterConfig represents a printer configuration
type PrinterConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Type       string `yaml:"type"` // only "network" is supported
	Address    string `yaml:"address,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	PaperWidth int    `yaml:"paper_width,omitempty"` // 58 or 80 (mm)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:5000",
			Timeout:        15 * time.Second,
			OrdersLimit:    200,
			HealthInterval: 30 * time.Second,
		},
		POS: POSConfig{
			PaymentMethod:   "cash",
			PercentDiscount: decimal.RequireFromString("0.20"),
			FixedDiscount:   decimal.NewFromInt(100),
		},
		Checkout: CheckoutConfig{
			VoucherAmount:  decimal.NewFromInt(100),
			DeliveryFeeMin: 50,
			DeliveryFeeMax: 100,
			QuoteTTL:       10 * time.Minute,
		},
		Display: DisplayConfig{
			PingInterval: 30 * time.Second,
		},
		Receipt: ReceiptConfig{
			StoreName: "ETERNO",
			Timezone:  "Asia/Singapore",
		},
		Printers: []PrinterConfig{},
	}
}

// Load loads configuration from the first config file found, then applies
// environment overrides. A missing file is reported with os.ErrNotExist so
// callers can fall back to defaults.
func Load() (*Config, error) {
	configPaths := []string{
		"config.yaml",
		"configs/config.yaml",
		"/etc/posterminal/config.yaml",
	}
	if p := os.Getenv("POSTERM_CONFIG"); p != "" {
		configPaths = []string{p}
	}

	var data []byte
	var err error
	var loadedPath string

	for _, path := range configPaths {
		data, err = os.ReadFile(path)
		if err == nil {
			loadedPath = path
			break
		}
	}

	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", loadedPath, err)
	}
	cfg.ConfigPath = loadedPath
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with POSTERM_* environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("POSTERM_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("POSTERM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POSTERM_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("POSTERM_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("POSTERM_BACKEND_COOKIE"); v != "" {
		c.Backend.Cookie = v
	}
	if v := os.Getenv("POSTERM_BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POSTERM_BACKEND_TIMEOUT: %w", err)
		}
		c.Backend.Timeout = d
	}
	if v := os.Getenv("POSTERM_RECEIPT_PRINTER"); v != "" {
		c.Receipt.PrinterID = v
	}
	return nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an http(s) URL", c.Backend.BaseURL)
	}
	if c.Checkout.DeliveryFeeMin > c.Checkout.DeliveryFeeMax {
		return fmt.Errorf("checkout.delivery_fee_min (%d) exceeds delivery_fee_max (%d)",
			c.Checkout.DeliveryFeeMin, c.Checkout.DeliveryFeeMax)
	}
	if c.Checkout.DeliveryFeeMin < 0 {
		return errors.New("checkout.delivery_fee_min must not be negative")
	}
	if c.Receipt.PrinterID != "" && c.Printer(c.Receipt.PrinterID) == nil {
		return fmt.Errorf("receipt.printer_id %q is not a configured printer", c.Receipt.PrinterID)
	}
	return nil
}

// Printer looks up a configured printer by id
func (c *Config) Printer(id string) *PrinterConfig {
	for i := range c.Printers {
		if c.Printers[i].ID == id {
			return &c.Printers[i]
		}
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
