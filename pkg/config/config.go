package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingCredentials is returned when the store endpoint or its service key is not configured.
var ErrMissingCredentials = errors.New("missing store credentials")

// Store backends.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	StoreURL        string        `mapstructure:"STORE_URL"`
	StoreServiceKey string        `mapstructure:"STORE_SERVICE_KEY"`
	StoreBackend    string        `mapstructure:"STORE_BACKEND"`
	StoreTable      string        `mapstructure:"STORE_TABLE"`
	StoreTimeout    time.Duration `mapstructure:"STORE_TIMEOUT"`
	PersistImageURL bool          `mapstructure:"PERSIST_IMAGE_URL"`

	SearchBaseURL string   `mapstructure:"SEARCH_BASE_URL"`
	ProductLine   string   `mapstructure:"PRODUCT_LINE"`
	SetNames      []string `mapstructure:"SET_NAMES"`
	MaxPages      int      `mapstructure:"MAX_PAGES"`

	Headless        bool          `mapstructure:"HEADLESS"`
	UserAgent       string        `mapstructure:"USER_AGENT"`
	ProxyServer     string        `mapstructure:"PROXY_SERVER"`
	PageLoadTimeout time.Duration `mapstructure:"PAGE_LOAD_TIMEOUT"`
	WaitTimeout     time.Duration `mapstructure:"WAIT_TIMEOUT"`
	SettleDelay     time.Duration `mapstructure:"SETTLE_DELAY"`
	RevealPause     time.Duration `mapstructure:"REVEAL_PAUSE"`
	DebugDir        string        `mapstructure:"DEBUG_DIR"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	LockTTL       time.Duration `mapstructure:"LOCK_TTL"`

	MetricsAddr    string `mapstructure:"METRICS_ADDR"`
	PushgatewayURL string `mapstructure:"PUSHGATEWAY_URL"`
}

var defaults = map[string]any{
	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",

	"STORE_URL":         "",
	"STORE_SERVICE_KEY": "",
	"STORE_BACKEND":     BackendREST,
	"STORE_TABLE":       "all_cards",
	"STORE_TIMEOUT":     30 * time.Second,
	"PERSIST_IMAGE_URL": false,

	"SEARCH_BASE_URL": "https://www.tcgplayer.com",
	"PRODUCT_LINE":    "pokemon",
	"SET_NAMES": []string{
		"crown-zenith",
		"crown-zenith-galarian-gallery",
		"sv10-destined-rivals",
		"sv-prismatic-evolutions",
	},
	"MAX_PAGES": 36,

	"HEADLESS":          true,
	"USER_AGENT":        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"PROXY_SERVER":      "",
	"PAGE_LOAD_TIMEOUT": 60 * time.Second,
	"WAIT_TIMEOUT":      20 * time.Second,
	"SETTLE_DELAY":      2 * time.Second,
	"REVEAL_PAUSE":      100 * time.Millisecond,
	"DEBUG_DIR":         ".",

	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"LOCK_TTL":       2 * time.Hour,

	"METRICS_ADDR":    "",
	"PUSHGATEWAY_URL": "",
}

// envAliases lets older .env files keep their variable names.
var envAliases = map[string][]string{
	"STORE_URL":         {"SUPABASE_URL"},
	"STORE_SERVICE_KEY": {"SUPABASE_KEY", "SUPABASE_SERVICE_ROLE_KEY"},
}

// Load reads configuration from an optional .env file and the environment.
// Environment variables win over the file. If envFile is set explicitly it must exist;
// otherwise "./.env" is read when present.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")

	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}
	v.SetConfigFile(envFile)

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		if err := v.BindEnv(append([]string{key, key}, aliases...)...); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil && explicit {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.StoreURL = strings.TrimSpace(c.StoreURL)
	c.StoreServiceKey = strings.TrimSpace(c.StoreServiceKey)
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))

	names := make([]string, 0, len(c.SetNames))
	for _, n := range c.SetNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	c.SetNames = names
}

// Validate checks the credentials are present and the tunables make sense.
func (c *Config) Validate() error {
	var missing []string
	if c.StoreURL == "" {
		missing = append(missing, "STORE_URL")
	}
	if c.StoreServiceKey == "" {
		missing = append(missing, "STORE_SERVICE_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s must be set", ErrMissingCredentials, strings.Join(missing, " and "))
	}

	switch c.StoreBackend {
	case BackendREST, BackendPostgres:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendREST, BackendPostgres, c.StoreBackend)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("MAX_PAGES must be at least 1")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("WAIT_TIMEOUT must be positive")
	}
	if len(c.SetNames) == 0 {
		return fmt.Errorf("SET_NAMES must list at least one set")
	}
	return nil
}
