package config

import (
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"os"
	"strconv"
	"time"

	"casperdash/internal/retry"

	"github.com/shopspring/decimal"
)

const (
	DefaultNodeURL            = "http://76.91.193.251:7777/rpc"
	DefaultSpeculativeNodeURL = "http://76.91.193.251:7778/rpc"
	DefaultNetwork            = "casper-test"
	DefaultPaymentCSPR        = "15"
)

var motesPerCSPR = decimal.New(1, 9)

// Payments holds default payment amounts in motes per call kind
type Payments struct {
	EntryPoint *big.Int
	Session    *big.Int
	Register   *big.Int
}

type Config struct {
	// Node JSON-RPC endpoints
	NodeURL            string
	SpeculativeNodeURL string

	// Chain name placed in deploy headers (casper or casper-test)
	NetworkName string

	Payments Payments

	// Deploy status polling
	Poll retry.Config

	// Database connection string (postgres:// URL or SQLite path)
	DatabaseURL string

	// API server port
	APIPort string

	// Log level (debug, info, warn, error)
	LogLevel string

	// NFT collections file (YAML)
	CollectionsFile string

	// Off-chain metadata fetching
	MetadataFetchRPS  float64
	MetadataCacheSize int

	// PEM secret keys used to sign deploys
	CallerKeyFile string
	BuyerKeyFile  string
}

// Load returns the configuration from environment variables. Call
// godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	payments, err := loadPayments()
	if err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(getEnv("METADATA_FETCH_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("METADATA_FETCH_RPS: %w", err)
	}

	return &Config{
		NodeURL:            getEnv("CASPER_NODE_URL", DefaultNodeURL),
		SpeculativeNodeURL: getEnv("CASPER_SPECULATIVE_NODE_URL", DefaultSpeculativeNodeURL),
		NetworkName:        getEnv("CASPER_NETWORK", DefaultNetwork),
		Payments:           payments,
		Poll:               loadPoll(),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		APIPort:            getEnv("API_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CollectionsFile:    os.Getenv("COLLECTIONS_FILE"),
		MetadataFetchRPS:   rps,
		MetadataCacheSize:  getEnvAsInt("METADATA_CACHE_SIZE", 1024),
		CallerKeyFile:      os.Getenv("CALLER_KEY_FILE"),
		BuyerKeyFile:       os.Getenv("BUYER_KEY_FILE"),
	}, nil
}

func loadPayments() (Payments, error) {
	var p Payments
	var err error
	if p.EntryPoint, err = CSPRToMotes(getEnv("PAYMENT_ENTRY_POINT", DefaultPaymentCSPR)); err != nil {
		return p, fmt.Errorf("PAYMENT_ENTRY_POINT: %w", err)
	}
	if p.Session, err = CSPRToMotes(getEnv("PAYMENT_SESSION", DefaultPaymentCSPR)); err != nil {
		return p, fmt.Errorf("PAYMENT_SESSION: %w", err)
	}
	if p.Register, err = CSPRToMotes(getEnv("PAYMENT_REGISTER", DefaultPaymentCSPR)); err != nil {
		return p, fmt.Errorf("PAYMENT_REGISTER: %w", err)
	}
	return p, nil
}

// CSPRToMotes converts a decimal CSPR amount ("2.5") to motes
func CSPRToMotes(cspr string) (*big.Int, error) {
	d, err := decimal.NewFromString(cspr)
	if err != nil {
		return nil, fmt.Errorf("invalid CSPR amount %q: %w", cspr, err)
	}
	motes := d.Mul(motesPerCSPR)
	if !motes.IsInteger() {
		return nil, fmt.Errorf("invalid CSPR amount %q: more than 9 decimals", cspr)
	}
	if motes.Sign() <= 0 {
		return nil, fmt.Errorf("invalid CSPR amount %q: must be positive", cspr)
	}
	return motes.BigInt(), nil
}

// MotesToCSPR formats motes as a decimal CSPR amount
func MotesToCSPR(motes *big.Int) string {
	return decimal.NewFromBigInt(motes, -9).String()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.NodeURL == "" {
		return fmt.Errorf("CASPER_NODE_URL is required")
	}
	for name, raw := range map[string]string{
		"CASPER_NODE_URL":             c.NodeURL,
		"CASPER_SPECULATIVE_NODE_URL": c.SpeculativeNodeURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not a valid URL: %q", name, raw)
		}
	}
	if c.NetworkName == "" {
		return fmt.Errorf("CASPER_NETWORK is required")
	}
	if c.Poll.Attempts <= 0 || c.Poll.Interval <= 0 {
		return fmt.Errorf("poll attempts and interval must be positive")
	}
	if c.MetadataFetchRPS <= 0 {
		return fmt.Errorf("METADATA_FETCH_RPS must be positive")
	}
	if c.APIPort != "" {
		if _, err := strconv.Atoi(c.APIPort); err != nil {
			return fmt.Errorf("API_PORT must be a number: %q", c.APIPort)
		}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadPoll reads POLL_ENABLED, POLL_ATTEMPTS and POLL_INTERVAL_MS
func loadPoll() retry.Config {
	def := retry.DefaultConfig()
	return retry.Config{
		Enabled:  getEnvAsBool("POLL_ENABLED", def.Enabled),
		Attempts: getEnvAsInt("POLL_ATTEMPTS", def.Attempts),
		Interval: time.Duration(getEnvAsInt("POLL_INTERVAL_MS", int(def.Interval/time.Millisecond))) * time.Millisecond,
	}
}

// Helper: get string from env with default
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Helper: get int from env
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

// Helper: get bool from env
func getEnvAsBool(key string, defaultVal bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}
