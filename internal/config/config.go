// Package config loads the trader configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vitos/bracket_trader/internal/strategy"
	"github.com/vitos/bracket_trader/internal/usecase"
)

type Config struct {
	Exchange struct {
		APIKey       string `yaml:"api_key"`
		APISecret    string `yaml:"api_secret"`
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
		QuoteAsset   string `yaml:"quote_asset"`
	} `yaml:"exchange"`

	Markets []string `yaml:"markets"`

	Trading struct {
		ReservedFloor        float64            `yaml:"reserved_floor"`
		RiskDivisor          float64            `yaml:"risk_divisor"`
		MinInvestmentRatio   float64            `yaml:"min_investment_ratio"`
		OrderSafetyFactor    float64            `yaml:"order_safety_factor"`
		EntrySizeFactor      float64            `yaml:"entry_size_factor"`
		HoldingThreshold     float64            `yaml:"holding_threshold"`
		HoldingThresholds    map[string]float64 `yaml:"holding_thresholds"`
		MaxConsecutiveLosses int                `yaml:"max_consecutive_losses"`
		LossCooldown         time.Duration      `yaml:"loss_cooldown"`
		MessageTimeout       time.Duration      `yaml:"message_timeout"`
		ReconnectDelay       time.Duration      `yaml:"reconnect_delay"`
		FilterCacheTTL       time.Duration      `yaml:"filter_cache_ttl"`
		Warmup               time.Duration      `yaml:"warmup"`
		RecordTrades         bool               `yaml:"record_trades"`
	} `yaml:"trading"`

	Strategy struct {
		Interval      time.Duration                `yaml:"interval"`
		MeanReversion strategy.MeanReversionParams `yaml:"mean_reversion"`
	} `yaml:"strategy"`

	Backtest struct {
		HoldConcurrency     int     `yaml:"hold_concurrency"`
		StrategyConcurrency int     `yaml:"strategy_concurrency"`
		Fee                 float64 `yaml:"fee"`
		RandomSeed          uint64  `yaml:"random_seed"`
	} `yaml:"backtest"`

	Telegram struct {
		Token     string `yaml:"token"`
		ChannelID int64  `yaml:"channel_id"`
	} `yaml:"telegram"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Default returns the configuration used for every field the file leaves
// out.
func Default() *Config {
	var c Config
	c.Exchange.RESTEndpoint = "https://api.bybit.com"
	c.Exchange.WSEndpoint = "wss://stream.bybit.com/v5/public/spot"
	c.Exchange.QuoteAsset = "USDT"

	c.Trading.ReservedFloor = 50
	c.Trading.RiskDivisor = 2
	c.Trading.MinInvestmentRatio = 0.5
	c.Trading.OrderSafetyFactor = 0.99
	c.Trading.EntrySizeFactor = 0.999
	c.Trading.HoldingThreshold = 10
	c.Trading.HoldingThresholds = map[string]float64{"BNB": 60}
	c.Trading.MaxConsecutiveLosses = 2
	c.Trading.LossCooldown = 24 * time.Hour
	c.Trading.MessageTimeout = 5 * time.Second
	c.Trading.ReconnectDelay = 5 * time.Second
	c.Trading.FilterCacheTTL = time.Hour
	c.Trading.Warmup = 14 * 24 * time.Hour

	c.Strategy.Interval = time.Minute
	c.Strategy.MeanReversion = strategy.DefaultMeanReversionParams()

	c.Backtest.HoldConcurrency = 13
	c.Backtest.StrategyConcurrency = 1
	c.Backtest.Fee = 0.001
	c.Backtest.RandomSeed = 1

	c.Storage.Path = "trader.db"
	c.Logging.Level = "info"
	c.Server.Port = 8080
	return &c
}

// Load reads the YAML file at path over the defaults, then applies secrets
// from a .env file and the environment.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() error {
	if v := os.Getenv("BYBIT_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("BYBIT_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHANNEL_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHANNEL_ID: %w", err)
		}
		c.Telegram.ChannelID = id
	}
	return nil
}

func (c *Config) Validate() error {
	if len(c.Markets) == 0 {
		return errors.New("at least one market is required")
	}
	for _, m := range c.Markets {
		if !strings.HasSuffix(m, c.Exchange.QuoteAsset) || m == c.Exchange.QuoteAsset {
			return fmt.Errorf("market %s is not quoted in %s", m, c.Exchange.QuoteAsset)
		}
	}
	if !strings.HasPrefix(c.Exchange.WSEndpoint, "ws://") && !strings.HasPrefix(c.Exchange.WSEndpoint, "wss://") {
		return fmt.Errorf("invalid websocket endpoint: %s", c.Exchange.WSEndpoint)
	}
	if c.Trading.RiskDivisor <= 0 {
		return errors.New("risk_divisor must be positive")
	}
	if c.Trading.OrderSafetyFactor <= 0 || c.Trading.OrderSafetyFactor > 1 {
		return errors.New("order_safety_factor must be in (0, 1]")
	}
	if c.Trading.EntrySizeFactor <= 0 || c.Trading.EntrySizeFactor > 1 {
		return errors.New("entry_size_factor must be in (0, 1]")
	}
	if c.Trading.MessageTimeout <= 0 || c.Trading.ReconnectDelay < 0 {
		return errors.New("message_timeout must be positive and reconnect_delay not negative")
	}
	if c.Strategy.Interval <= 0 {
		return errors.New("strategy interval must be positive")
	}
	if c.Backtest.HoldConcurrency < 1 || c.Backtest.StrategyConcurrency < 1 {
		return errors.New("backtest concurrency must be at least 1")
	}
	return nil
}

// TelegramEnabled reports whether both the bot token and channel are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChannelID != 0
}

func (c *Config) LiveConfig() usecase.LiveConfig {
	thresholds := make(map[string]decimal.Decimal, len(c.Trading.HoldingThresholds))
	for asset, v := range c.Trading.HoldingThresholds {
		thresholds[asset] = decimal.NewFromFloat(v)
	}
	return usecase.LiveConfig{
		Markets:            c.Markets,
		ReservedFloor:      decimal.NewFromFloat(c.Trading.ReservedFloor),
		RiskDivisor:        decimal.NewFromFloat(c.Trading.RiskDivisor),
		MinInvestmentRatio: decimal.NewFromFloat(c.Trading.MinInvestmentRatio),
		OrderSafetyFactor:  decimal.NewFromFloat(c.Trading.OrderSafetyFactor),
		HoldingThreshold:   decimal.NewFromFloat(c.Trading.HoldingThreshold),
		HoldingThresholds:  thresholds,
		MessageTimeout:     c.Trading.MessageTimeout,
		ReconnectDelay:     c.Trading.ReconnectDelay,
	}
}

func (c *Config) LedgerConfig() usecase.LedgerConfig {
	return usecase.LedgerConfig{
		MaxConsecutiveLosses: c.Trading.MaxConsecutiveLosses,
		LossCooldown:         c.Trading.LossCooldown,
	}
}

func (c *Config) SimulatorConfig(concurrency int) usecase.SimulatorConfig {
	return usecase.SimulatorConfig{
		Concurrency: concurrency,
		Fee:         c.Backtest.Fee,
		Ledger:      c.LedgerConfig(),
	}
}

func (c *Config) EntrySizeFactor() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.EntrySizeFactor)
}
