// Package config loads process configuration from a .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SignerMode selects how transactions are signed.
type SignerMode string

const (
	SignerLocal     SignerMode = "local"
	SignerDelegated SignerMode = "delegated"
)

// Chain holds RPC settings.
type Chain struct {
	RPCURL       string
	WSURL        string
	RPCRateLimit float64 // requests per second, 0 disables
}

// Signer holds wallet settings.
type Signer struct {
	Mode       SignerMode
	PrivateKey string

	CustodyURL       string
	CustodyAppID     string
	CustodyAppSecret string
	CustodyWalletID  string
	WalletAddress    string // public key of the custody wallet
}

// Storage selects and addresses the stores.
type Storage struct {
	UseMemory     bool
	PostgresDSN   string
	ClickHouseDSN string
}

// Trading holds order sizing and execution settings.
type Trading struct {
	TradeOn          bool
	PositionSizeSOL  float64
	SlippageBps      uint16
	TipLamports      uint64
	ComputeUnitPrice uint64
	ComputeUnitLimit uint32
	StrategyFilterOn bool
	FilterStrategies []string
	DedupTimeout     time.Duration
	SubmitRetries    int
	ConfirmTimeout   time.Duration
}

// Signals holds the signal feed settings.
type Signals struct {
	PollInterval   time.Duration
	SignalFile     string
	StrategiesFile string
}

// Metadata holds token metadata endpoints.
type Metadata struct {
	PumpURL        string
	DexScreenerURL string
}

// Blockhash holds blockhash cache settings.
type Blockhash struct {
	RefreshInterval time.Duration
	MaxAge          time.Duration
}

// Config is the full process configuration.
type Config struct {
	Chain     Chain
	Signer    Signer
	Storage   Storage
	Trading   Trading
	Signals   Signals
	Metadata  Metadata
	Blockhash Blockhash

	LogLevel    string
	MetricsAddr string
}

// Defaults returns the configuration used for unset keys.
func Defaults() Config {
	return Config{
		Chain: Chain{
			RPCURL: "https://api.mainnet-beta.solana.com",
			WSURL:  "wss://api.mainnet-beta.solana.com",
		},
		Signer:  Signer{Mode: SignerLocal},
		Storage: Storage{UseMemory: false},
		Trading: Trading{
			PositionSizeSOL:  0.01,
			SlippageBps:      500,
			ComputeUnitPrice: 100_000,
			ComputeUnitLimit: 200_000,
			DedupTimeout:     30 * time.Second,
			SubmitRetries:    2,
			ConfirmTimeout:   30 * time.Second,
		},
		Signals: Signals{
			PollInterval:   time.Second,
			SignalFile:     "signals.jsonl",
			StrategiesFile: "strategies.yaml",
		},
		Metadata: Metadata{
			PumpURL:        "https://frontend-api.pump.fun",
			DexScreenerURL: "https://api.dexscreener.com",
		},
		Blockhash: Blockhash{
			RefreshInterval: 10 * time.Second,
			MaxAge:          60 * time.Second,
		},
		LogLevel:    "info",
		MetricsAddr: ":9090",
	}
}

// LoadDotenv loads path, or ENV_FILE, or ./.env into the environment.
// Variables already set are kept. NO_DOTENV=1 disables loading. A missing
// default file is not an error; a missing explicit file is.
func LoadDotenv(path string) error {
	if os.Getenv("NO_DOTENV") == "1" {
		return nil
	}
	if path == "" {
		path = os.Getenv("ENV_FILE")
	}
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit .env path.
func LoadFile(envFile string) (*Config, error) {
	if err := LoadDotenv(envFile); err != nil {
		return nil, err
	}
	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from lookup over Defaults. It does not validate.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()
	r := reader{lookup: lookup}

	r.str("SOLANA_RPC_URL", &cfg.Chain.RPCURL)
	r.str("SOLANA_WS_URL", &cfg.Chain.WSURL)
	r.float("RPC_RATE_LIMIT", &cfg.Chain.RPCRateLimit)

	var mode string
	if r.str("SIGNER_MODE", &mode) {
		cfg.Signer.Mode = SignerMode(strings.ToLower(mode))
	}
	r.str("SOLANA_PRIVATE_KEY", &cfg.Signer.PrivateKey)
	r.str("CUSTODY_URL", &cfg.Signer.CustodyURL)
	r.str("CUSTODY_APP_ID", &cfg.Signer.CustodyAppID)
	r.str("CUSTODY_APP_SECRET", &cfg.Signer.CustodyAppSecret)
	r.str("CUSTODY_WALLET_ID", &cfg.Signer.CustodyWalletID)
	r.str("CUSTODY_WALLET_ADDRESS", &cfg.Signer.WalletAddress)

	r.boolean("USE_MEMORY", &cfg.Storage.UseMemory)
	r.str("POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	r.str("CLICKHOUSE_DSN", &cfg.Storage.ClickHouseDSN)

	r.boolean("TRADE_ON", &cfg.Trading.TradeOn)
	r.float("POSITION_SIZE_SOL", &cfg.Trading.PositionSizeSOL)
	r.uint16("SLIPPAGE_BPS", &cfg.Trading.SlippageBps)
	r.uint64("TIP_LAMPORTS", &cfg.Trading.TipLamports)
	r.uint64("COMPUTE_UNIT_PRICE", &cfg.Trading.ComputeUnitPrice)
	r.uint32("COMPUTE_UNIT_LIMIT", &cfg.Trading.ComputeUnitLimit)
	r.boolean("STRATEGY_FILTER_ON", &cfg.Trading.StrategyFilterOn)
	r.list("FILTER_STRATEGIES", &cfg.Trading.FilterStrategies)
	r.duration("DEDUP_TIMEOUT", &cfg.Trading.DedupTimeout)
	r.integer("SUBMIT_RETRIES", &cfg.Trading.SubmitRetries)
	r.duration("CONFIRM_TIMEOUT", &cfg.Trading.ConfirmTimeout)

	r.duration("POLL_INTERVAL", &cfg.Signals.PollInterval)
	r.str("SIGNAL_FILE", &cfg.Signals.SignalFile)
	r.str("STRATEGIES_FILE", &cfg.Signals.StrategiesFile)

	r.str("PUMP_API_URL", &cfg.Metadata.PumpURL)
	r.str("DEXSCREENER_API_URL", &cfg.Metadata.DexScreenerURL)

	r.duration("BLOCKHASH_REFRESH", &cfg.Blockhash.RefreshInterval)
	r.duration("BLOCKHASH_MAX_AGE", &cfg.Blockhash.MaxAge)

	r.str("LOG_LEVEL", &cfg.LogLevel)
	r.str("METRICS_ADDR", &cfg.MetricsAddr)

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.Chain.RPCURL == "" {
		errs = append(errs, errors.New("SOLANA_RPC_URL is required"))
	}
	if c.Chain.RPCRateLimit < 0 {
		errs = append(errs, errors.New("RPC_RATE_LIMIT must not be negative"))
	}

	switch c.Signer.Mode {
	case SignerLocal:
		if c.Trading.TradeOn && c.Signer.PrivateKey == "" {
			errs = append(errs, errors.New("SOLANA_PRIVATE_KEY is required for the local signer"))
		}
	case SignerDelegated:
		if c.Signer.CustodyURL == "" || c.Signer.CustodyAppID == "" || c.Signer.CustodyWalletID == "" || c.Signer.WalletAddress == "" {
			errs = append(errs, errors.New("CUSTODY_URL, CUSTODY_APP_ID, CUSTODY_WALLET_ID and CUSTODY_WALLET_ADDRESS are required for the delegated signer"))
		}
	default:
		errs = append(errs, fmt.Errorf("SIGNER_MODE must be local or delegated, got %q", c.Signer.Mode))
	}

	if !c.Storage.UseMemory && (c.Storage.PostgresDSN == "" || c.Storage.ClickHouseDSN == "") {
		errs = append(errs, errors.New("POSTGRES_DSN and CLICKHOUSE_DSN are required unless USE_MEMORY is set"))
	}

	if c.Trading.PositionSizeSOL <= 0 {
		errs = append(errs, errors.New("POSITION_SIZE_SOL must be positive"))
	}
	if c.Trading.SlippageBps > 10_000 {
		errs = append(errs, errors.New("SLIPPAGE_BPS must be at most 10000"))
	}
	if c.Trading.StrategyFilterOn && len(c.Trading.FilterStrategies) == 0 {
		errs = append(errs, errors.New("FILTER_STRATEGIES must list at least one strategy when STRATEGY_FILTER_ON is set"))
	}
	if c.Trading.DedupTimeout <= 0 {
		errs = append(errs, errors.New("DEDUP_TIMEOUT must be positive"))
	}
	if c.Signals.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.Blockhash.RefreshInterval <= 0 || c.Blockhash.MaxAge <= 0 {
		errs = append(errs, errors.New("BLOCKHASH_REFRESH and BLOCKHASH_MAX_AGE must be positive"))
	}
	return errors.Join(errs...)
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

// raw returns the trimmed value and whether it is set and non-empty.
func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *reader) fail(key, v string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, v, err))
}

func (r *reader) str(key string, dst *string) bool {
	v, ok := r.raw(key)
	if ok {
		*dst = v
	}
	return ok
}

func (r *reader) boolean(key string, dst *bool) {
	if v, ok := r.raw(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (r *reader) float(key string, dst *float64) {
	if v, ok := r.raw(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (r *reader) integer(key string, dst *int) {
	if v, ok := r.raw(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (r *reader) unsigned(key string, bits int) (uint64, bool) {
	v, ok := r.raw(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		r.fail(key, v, err)
		return 0, false
	}
	return n, true
}

func (r *reader) uint16(key string, dst *uint16) {
	if n, ok := r.unsigned(key, 16); ok {
		*dst = uint16(n)
	}
}

func (r *reader) uint32(key string, dst *uint32) {
	if n, ok := r.unsigned(key, 32); ok {
		*dst = uint32(n)
	}
}

func (r *reader) uint64(key string, dst *uint64) {
	if n, ok := r.unsigned(key, 64); ok {
		*dst = n
	}
}

func (r *reader) duration(key string, dst *time.Duration) {
	if v, ok := r.raw(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			// Bare integers are seconds.
			secs, ierr := strconv.Atoi(v)
			if ierr != nil {
				r.fail(key, v, err)
				return
			}
			d = time.Duration(secs) * time.Second
		}
		*dst = d
	}
}

func (r *reader) list(key string, dst *[]string) {
	v, ok := r.raw(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
