package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"paper-trader/internal/backtest"
)

// Config is the on-disk configuration shape (YAML). Environment variables
// override file values; see ApplyEnv.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Alpaca   AlpacaConfig   `yaml:"alpaca"`
	Storage  StorageConfig  `yaml:"storage"`
	Backtest BacktestConfig `yaml:"backtest"`
	Log      LogConfig      `yaml:"log"`

	// EnvFile is the dotenv file that was loaded, empty if none.
	EnvFile string `yaml:"-"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	Env         string   `yaml:"env"` // development | production
	StaticDir   string   `yaml:"static_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type AlpacaConfig struct {
	KeyID           string        `yaml:"key_id"`
	SecretKey       string        `yaml:"secret_key"`
	TradingURL      string        `yaml:"trading_url"`
	DataURL         string        `yaml:"data_url"`
	Feed            string        `yaml:"feed"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min"`
	Timeout         time.Duration `yaml:"timeout"`

	// Bar caching is for local development only; it is ignored in production.
	EnableCache bool          `yaml:"enable_cache"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type StorageConfig struct {
	DataDir     string `yaml:"data_dir"`
	BacktestDir string `yaml:"backtest_dir"` // defaults to <data_dir>/backtests
	SymbolsFile string `yaml:"symbols_file"`

	// Serverless disables every write to the bot data directory.
	Serverless bool `yaml:"serverless"`
	// RequireLocal treats a missing data_dir as serverless instead of creating it.
	RequireLocal bool `yaml:"require_local"`
}

type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	ShortWindow    int     `yaml:"short_window"`
	LongWindow     int     `yaml:"long_window"`
}

type LogConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // text | json
	File       string `yaml:"file"`   // empty logs to stderr only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Env:  "development",
		},
		Alpaca: AlpacaConfig{
			TradingURL:      "https://paper-api.alpaca.markets",
			DataURL:         "https://data.alpaca.markets",
			RateLimitPerMin: 200,
			Timeout:         30 * time.Second,
			CacheTTL:        time.Hour,
		},
		Storage: StorageConfig{
			DataDir: "./bot/data",
		},
		Backtest: BacktestConfig{
			InitialCapital: 100000,
			ShortWindow:    10,
			LongWindow:     50,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads .env (if present), the YAML file at path (if non-empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	envFile := ""
	if err := godotenv.Load(); err == nil {
		envFile = ".env"
	}
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.EnvFile = envFile
	c.ApplyEnv(os.LookupEnv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked overlays the YAML file onto Default without validating.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// Relative data paths are interpreted relative to the config file directory.
	base := filepath.Dir(path)
	c.Storage.DataDir = resolve(base, c.Storage.DataDir)
	c.Storage.BacktestDir = resolve(base, c.Storage.BacktestDir)
	c.Storage.SymbolsFile = resolve(base, c.Storage.SymbolsFile)
	return c, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("API_PORT", &c.Server.Port)
	str("API_ENV", &c.Server.Env)
	str("STATIC_DIR", &c.Server.StaticDir)
	str("ALPACA_API_KEY", &c.Alpaca.KeyID)
	str("ALPACA_SECRET_KEY", &c.Alpaca.SecretKey)
	str("ALPACA_BASE_URL", &c.Alpaca.TradingURL)
	str("ALPACA_DATA_URL", &c.Alpaca.DataURL)
	str("ALPACA_FEED", &c.Alpaca.Feed)
	str("BOT_DATA_DIR", &c.Storage.DataDir)
	str("BACKTEST_DIR", &c.Storage.BacktestDir)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("ENABLE_BAR_CACHE"); ok {
		c.Alpaca.EnableCache = v == "true" || v == "1"
	}
	if v, ok := lookup("ALPACA_RATE_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Alpaca.RateLimitPerMin = n
		}
	}
	if v, ok := lookup("VERCEL"); ok && v == "1" {
		c.Storage.Serverless = true
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric, got %q", c.Server.Port)
	}
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if c.Alpaca.RateLimitPerMin < 0 {
		return errors.New("alpaca.rate_limit_per_min must be >= 0")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	d := c.BacktestDefaults()
	if d.InitialCapital <= 0 {
		return errors.New("backtest.initial_capital must be > 0")
	}
	if d.ShortWindow < 2 || d.LongWindow <= d.ShortWindow {
		return fmt.Errorf("backtest windows invalid: short=%d long=%d", d.ShortWindow, d.LongWindow)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// CacheEnabled reports whether the bar cache may be used.
func (c *Config) CacheEnabled() bool {
	return c.Alpaca.EnableCache && !c.IsProduction()
}

// BacktestDir is where result files live.
func (c *Config) BacktestDir() string {
	if c.Storage.BacktestDir != "" {
		return c.Storage.BacktestDir
	}
	return filepath.Join(c.Storage.DataDir, "backtests")
}

// Serverless reports whether bot data writes must be refused.
func (c *Config) Serverless() bool {
	if c.Storage.Serverless {
		return true
	}
	if c.Storage.RequireLocal {
		if _, err := os.Stat(c.Storage.DataDir); err != nil {
			return true
		}
	}
	return false
}

func (c *Config) BacktestDefaults() backtest.Defaults {
	return backtest.Defaults{
		InitialCapital: c.Backtest.InitialCapital,
		ShortWindow:    c.Backtest.ShortWindow,
		LongWindow:     c.Backtest.LongWindow,
	}
}
