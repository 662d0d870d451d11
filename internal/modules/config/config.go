package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"bitunix_bot/internal/helper"
	"bitunix_bot/pkg/logger"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"

	apiKeyENV         = "BITUNIX_API_KEY"
	secretKeyENV      = "BITUNIX_SECRET_KEY"
	discordWebhookENV = "DISCORD_WEBHOOK_URL"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Exchange ExchangeConfig `mapstructure:"exchange" yaml:"exchange"`
	Market   MarketConfig   `mapstructure:"market" yaml:"market"`
	Strategy StrategyConfig `mapstructure:"strategy" yaml:"strategy"`
	Runner   RunnerConfig   `mapstructure:"runner" yaml:"runner"`
	Ledger   LedgerConfig   `mapstructure:"ledger" yaml:"ledger"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Health   HealthConfig   `mapstructure:"health" yaml:"health"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
	Log      logger.Config  `mapstructure:"log" yaml:"log"`
	DB       string         `mapstructure:"db_dsn" yaml:"db_dsn"`
}

type ExchangeConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	SecretKey  string        `mapstructure:"secret_key" yaml:"secret_key"`
	MarginCoin string        `mapstructure:"margin_coin" yaml:"margin_coin"`
	Symbol     string        `mapstructure:"symbol" yaml:"symbol"`
	Leverage   int           `mapstructure:"leverage" yaml:"leverage"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type MarketConfig struct {
	// пусто: боевые адреса Binance USDⓈ-M
	BaseURL       string `mapstructure:"base_url" yaml:"base_url"`
	WSURL         string `mapstructure:"ws_url" yaml:"ws_url"`
	TradingPair   string `mapstructure:"trading_pair" yaml:"trading_pair"`
	Timeframe     string `mapstructure:"timeframe" yaml:"timeframe"`
	CandleLimit   int    `mapstructure:"candle_limit" yaml:"candle_limit"`
	StreamEnabled bool   `mapstructure:"stream_enabled" yaml:"stream_enabled"`
}

type StrategyConfig struct {
	WalletFraction    float64   `mapstructure:"wallet_fraction" yaml:"wallet_fraction"`
	StopMult          float64   `mapstructure:"stop_mult" yaml:"stop_mult"`
	LimitMult         float64   `mapstructure:"limit_mult" yaml:"limit_mult"`
	RSIBuy            float64   `mapstructure:"rsi_buy" yaml:"rsi_buy"`
	RSILen            int       `mapstructure:"rsi_len" yaml:"rsi_len"`
	ExitRSI           float64   `mapstructure:"exit_rsi" yaml:"exit_rsi"`
	BreakoutLen       int       `mapstructure:"breakout_len" yaml:"breakout_len"`
	ATRLen            int       `mapstructure:"atr_len" yaml:"atr_len"`
	ATRMult           float64   `mapstructure:"atr_mult" yaml:"atr_mult"`
	QuantityPrecision int32     `mapstructure:"quantity_precision" yaml:"quantity_precision"`
	Start             time.Time `mapstructure:"start" yaml:"start"`
	End               time.Time `mapstructure:"end" yaml:"end"`
}

type RunnerConfig struct {
	Interval        time.Duration `mapstructure:"interval" yaml:"interval"`
	BalanceInterval time.Duration `mapstructure:"balance_interval" yaml:"balance_interval"`
	// статус в нотифайер на каждом цикле без действий
	Heartbeat bool `mapstructure:"heartbeat" yaml:"heartbeat"`
}

type LedgerConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // file | postgres
	File    string `mapstructure:"file" yaml:"file"`
}

type NotifyConfig struct {
	DiscordWebhook string `mapstructure:"discord_webhook" yaml:"discord_webhook"`
	TelegramToken  string `mapstructure:"telegram_token" yaml:"telegram_token"`
	TelegramChatID int64  `mapstructure:"telegram_chat_id" yaml:"telegram_chat_id"`
	// команды /status /stats /position из чата telegram_chat_id
	TelegramCommands bool          `mapstructure:"telegram_commands" yaml:"telegram_commands"`
	QueueSize        int           `mapstructure:"queue_size" yaml:"queue_size"`
	RatePerSec       float64       `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`
	Burst            int           `mapstructure:"burst" yaml:"burst"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange.base_url", "https://fapi.bitunix.com")
	v.SetDefault("exchange.margin_coin", "USDT")
	v.SetDefault("exchange.symbol", "ETHUSDT")
	v.SetDefault("exchange.leverage", 8)
	v.SetDefault("exchange.timeout", "10s")

	v.SetDefault("market.trading_pair", "ETH/USDT")
	v.SetDefault("market.timeframe", "4h")
	v.SetDefault("market.candle_limit", 100)
	v.SetDefault("market.stream_enabled", false)

	v.SetDefault("strategy.wallet_fraction", 1.0)
	v.SetDefault("strategy.stop_mult", 1.0)
	v.SetDefault("strategy.limit_mult", 5.0)
	v.SetDefault("strategy.rsi_buy", 48.0)
	v.SetDefault("strategy.rsi_len", 12)
	v.SetDefault("strategy.exit_rsi", 45.0)
	v.SetDefault("strategy.breakout_len", 4)
	v.SetDefault("strategy.atr_len", 12)
	v.SetDefault("strategy.atr_mult", 3.5)
	v.SetDefault("strategy.quantity_precision", 4)
	v.SetDefault("strategy.start", "2025-01-01T00:00:00Z")
	v.SetDefault("strategy.end", "2025-12-31T23:59:00Z")

	v.SetDefault("runner.interval", "60s")
	v.SetDefault("runner.balance_interval", "5m")
	v.SetDefault("runner.heartbeat", false)

	v.SetDefault("ledger.backend", "file")
	v.SetDefault("ledger.file", "stats.json")

	v.SetDefault("notify.telegram_commands", false)
	v.SetDefault("notify.queue_size", 64)
	v.SetDefault("notify.rate_per_sec", 1.0)
	v.SetDefault("notify.burst", 5)
	v.SetDefault("notify.timeout", "10s")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.addr", ":8080")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "bitunix_bot")
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	dir := getenvDefault(configDirENV, "configs")
	configFileName := getenvDefault(configFilePathENV, "values_local.yaml")

	return Load(dir + "/" + configFileName)
}

// Load читает yaml (если есть), накладывает ENV и валидирует.
// STRATEGY_RSI_BUY перекрывает strategy.rsi_buy и т.д.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		// файла может не быть: живём на дефолтах и ENV
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	applySecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applySecrets(cfg *Config) {
	if v := os.Getenv(apiKeyENV); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv(secretKeyENV); v != "" {
		cfg.Exchange.SecretKey = v
	}
	if v := os.Getenv(discordWebhookENV); v != "" {
		cfg.Notify.DiscordWebhook = v
	}
	if v := os.Getenv(tokenTelegramENV); v != "" {
		cfg.Notify.TelegramToken = v
	}
	if v := os.Getenv(chatTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Notify.TelegramChatID = id
		}
	}
	if v := os.Getenv(databaseDSN); v != "" {
		cfg.DB = v
	}
}

// MinCandles сколько свечей нужно для прогрева индикаторов (+5 запас).
func (c *Config) MinCandles() int {
	s := c.Strategy
	n := s.RSILen
	if s.ATRLen > n {
		n = s.ATRLen
	}
	if s.BreakoutLen+1 > n {
		n = s.BreakoutLen + 1
	}
	return n + 5
}

func (c *Config) Validate() error {
	switch {
	case c.Exchange.Symbol == "":
		return fmt.Errorf("config: exchange.symbol is empty")
	case c.Exchange.MarginCoin == "":
		return fmt.Errorf("config: exchange.margin_coin is empty")
	case c.Exchange.Leverage < 1:
		return fmt.Errorf("config: exchange.leverage must be >= 1, got %d", c.Exchange.Leverage)
	case c.Strategy.WalletFraction <= 0 || c.Strategy.WalletFraction > 1:
		return fmt.Errorf("config: strategy.wallet_fraction must be in (0,1], got %v", c.Strategy.WalletFraction)
	case c.Strategy.RSILen <= 0 || c.Strategy.ATRLen <= 0 || c.Strategy.BreakoutLen <= 0:
		return fmt.Errorf("config: indicator lengths must be > 0")
	case c.Strategy.QuantityPrecision < 0:
		return fmt.Errorf("config: strategy.quantity_precision must be >= 0")
	case c.Strategy.End.Before(c.Strategy.Start):
		return fmt.Errorf("config: strategy.end is before strategy.start")
	case c.Runner.Interval <= 0:
		return fmt.Errorf("config: runner.interval must be > 0")
	case c.Market.CandleLimit < c.MinCandles():
		return fmt.Errorf("config: market.candle_limit=%d, need at least %d", c.Market.CandleLimit, c.MinCandles())
	case c.Ledger.Backend != "file" && c.Ledger.Backend != "postgres":
		return fmt.Errorf("config: ledger.backend must be file or postgres, got %q", c.Ledger.Backend)
	case c.Ledger.Backend == "postgres" && c.DB == "":
		return fmt.Errorf("config: ledger.backend=postgres requires %s", databaseDSN)
	}

	tf, ok := helper.NormTF(c.Market.Timeframe)
	if !ok {
		return fmt.Errorf("config: unsupported market.timeframe %q", c.Market.Timeframe)
	}
	c.Market.Timeframe = tf
	return nil
}

// RequireCredentials ключи нужны только для торговли, не для CLI-отчётов.
func (c *Config) RequireCredentials() error {
	if c.Exchange.APIKey == "" || c.Exchange.SecretKey == "" {
		return fmt.Errorf("config: %s and %s must be set", apiKeyENV, secretKeyENV)
	}
	return nil
}

// Dump эффективный конфиг в yaml, секреты замазаны.
func (c Config) Dump() (string, error) {
	c.Exchange.APIKey = mask(c.Exchange.APIKey)
	c.Exchange.SecretKey = mask(c.Exchange.SecretKey)
	c.Notify.DiscordWebhook = mask(c.Notify.DiscordWebhook)
	c.Notify.TelegramToken = mask(c.Notify.TelegramToken)
	c.DB = mask(c.DB)

	out, err := yaml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "marshal config")
	}
	return string(out), nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
