// Package config loads storefront settings from an optional YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	UpstreamBaseURL string        `yaml:"upstream_base_url"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`

	// Empty values select the in-process fallbacks.
	DatabaseURL  string   `yaml:"database_url"`
	RedisURL     string   `yaml:"redis_url"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	KafkaGroupID string   `yaml:"kafka_group_id"`

	SessionTTL      time.Duration `yaml:"session_ttl"`
	SessionCookie   string        `yaml:"session_cookie"`
	OrdersPageSize  int           `yaml:"orders_page_size"`
	GridPageSize    int           `yaml:"grid_page_size"` // 0 shows every package
	OutOfStockGames []string      `yaml:"out_of_stock_games"`

	// Discounts are flat rupee amounts keyed by "gameSlug/itemSlug".
	Discounts map[string]float64 `yaml:"discounts"`
	// ListingsFile holds the accounts shown on the IDs on sell page.
	ListingsFile string `yaml:"listings_file"`

	UPI UPIConfig `yaml:"upi"`
}

type UPIConfig struct {
	PayeeAddress string `yaml:"payee_address"`
	PayeeName    string `yaml:"payee_name"`
	QRSize       int    `yaml:"qr_size"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		UpstreamBaseURL: "http://localhost:5000",
		UpstreamTimeout: 0,
		AllowedOrigins:  []string{"*"},
		KafkaTopic:      "checkout.events",
		KafkaGroupID:    "storefront-projection",
		SessionTTL:      7 * 24 * time.Hour,
		SessionCookie:   "sid",
		OrdersPageSize:  5,
		UPI: UPIConfig{
			PayeeName: "BlueBuff",
			QRSize:    256,
		},
	}
}

// Load reads .env (outside production), the YAML file named by
// STOREFRONT_CONFIG and then the environment.
func Load() (Config, error) {
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to load .env file", "err", err)
		}
	}

	cfg := Default()
	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	if port := os.Getenv("PORT"); port != "" {
		c.HTTPAddr = ":" + strings.TrimPrefix(port, ":")
	}
	c.UpstreamBaseURL = getEnv("UPSTREAM_BASE_URL", c.UpstreamBaseURL)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)
	c.KafkaGroupID = getEnv("KAFKA_GROUP_ID", c.KafkaGroupID)
	c.SessionCookie = getEnv("SESSION_COOKIE", c.SessionCookie)
	c.UPI.PayeeAddress = getEnv("UPI_PAYEE_ADDRESS", c.UPI.PayeeAddress)
	c.UPI.PayeeName = getEnv("UPI_PAYEE_NAME", c.UPI.PayeeName)
	c.ListingsFile = getEnv("ACCOUNT_LISTINGS_FILE", c.ListingsFile)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("OUT_OF_STOCK_GAMES"); v != "" {
		c.OutOfStockGames = splitList(v)
	}

	var err error
	if c.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", c.UpstreamTimeout); err != nil {
		return err
	}
	if c.SessionTTL, err = getDuration("SESSION_TTL", c.SessionTTL); err != nil {
		return err
	}
	if c.OrdersPageSize, err = getInt("ORDERS_PAGE_SIZE", c.OrdersPageSize); err != nil {
		return err
	}
	if c.GridPageSize, err = getInt("GRID_PAGE_SIZE", c.GridPageSize); err != nil {
		return err
	}
	if c.UPI.QRSize, err = getInt("UPI_QR_SIZE", c.UPI.QRSize); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.UpstreamBaseURL == "" {
		return errors.New("config: upstream base url is required")
	}
	if c.OrdersPageSize <= 0 {
		return fmt.Errorf("config: orders page size must be positive, got %d", c.OrdersPageSize)
	}
	if c.GridPageSize < 0 {
		return fmt.Errorf("config: grid page size must not be negative, got %d", c.GridPageSize)
	}
	if c.UPI.QRSize <= 0 {
		return fmt.Errorf("config: qr size must be positive, got %d", c.UPI.QRSize)
	}
	if c.SessionCookie == "" {
		return errors.New("config: session cookie name is required")
	}
	for key, amount := range c.Discounts {
		if !strings.Contains(key, "/") {
			return fmt.Errorf("config: discount key %q must be gameSlug/itemSlug", key)
		}
		if amount < 0 {
			return fmt.Errorf("config: discount %s must not be negative, got %v", key, amount)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
