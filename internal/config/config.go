package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
)

// minPollInterval is the floor applied to the polling interval so the daemon
// never hammers the upstream quote APIs.
const minPollInterval = 60 * time.Second

type Config struct {
	HomeAssistantURL   string        `env:"HOMEASSISTANT_URL,default=http://supervisor/core"`
	HomeAssistantToken string        `env:"HOMEASSISTANT_TOKEN"`
	NotifyService      string        `env:"NOTIFY_SERVICE,default=notify/mobile_app_phone"`
	NotifyTimeout      time.Duration `env:"NOTIFY_TIMEOUT,default=15s"`

	Notifier         string `env:"NOTIFIER,default=homeassistant"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	DBHost            string        `env:"DB_HOST"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBName            string        `env:"DB_NAME"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	WatchlistPath string `env:"WATCHLIST_PATH,default=/data/ui_config.json"`
	StatePath     string `env:"STATE_PATH,default=/data/monitor_state.json"`

	PollInterval            time.Duration   `env:"POLL_INTERVAL,default=900s"`
	DefaultThresholdPercent decimal.Decimal `env:"DEFAULT_THRESHOLD_PERCENT,default=2"`

	PriceSources       []string      `env:"PRICE_SOURCES,default=yahoo,stooq"`
	YahooBaseURLs      []string      `env:"YAHOO_BASE_URLS,default=https://query2.finance.yahoo.com,https://query1.finance.yahoo.com"`
	StooqBaseURL       string        `env:"STOOQ_BASE_URL,default=https://stooq.com"`
	QuoteTimeout       time.Duration `env:"QUOTE_TIMEOUT,default=15s"`
	FinnhubAPIKey      string        `env:"FINNHUB_API_KEY"`
	FinnhubWSURL       string        `env:"FINNHUB_WS_URL,default=wss://ws.finnhub.io"`
	FinnhubReadTimeout time.Duration `env:"FINNHUB_WS_READ_TIMEOUT,default=0s"`
	FinnhubRedialDelay time.Duration `env:"FINNHUB_WS_REDIAL_DELAY,default=5s"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the startup rules: a misconfigured daemon must refuse to
// run instead of polling with undefined behavior. The poll interval is clamped
// to the floor rather than rejected.
func (c *Config) Validate() error {
	if c.DefaultThresholdPercent.IsNegative() {
		return fmt.Errorf("default threshold percent must not be negative, got %s", c.DefaultThresholdPercent)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.PollInterval < minPollInterval {
		c.PollInterval = minPollInterval
	}

	if len(c.PriceSources) == 0 {
		return fmt.Errorf("at least one price source is required")
	}
	for _, name := range c.PriceSources {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "yahoo", "stooq", "finnhub":
		default:
			return fmt.Errorf("unknown price source %q", name)
		}
	}

	switch c.Notifier {
	case "homeassistant":
	case "telegram":
		if c.TelegramBotToken == "" || c.TelegramChatID == 0 {
			return fmt.Errorf("telegram notifier requires TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		}
	default:
		return fmt.Errorf("unknown notifier %q", c.Notifier)
	}

	return nil
}
