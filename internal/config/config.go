package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultProductCount    = 2
	defaultSleepInterval   = 180 * time.Second
	defaultBaseURL         = "https://api-gateway.coupang.com"
	defaultLogFormat       = "console"
	defaultRequestsPerSec  = 5.0
	defaultRequestBurst    = 1
	defaultConnectTimeout  = 5 * time.Second
	defaultReadTimeout     = 15 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Env file keys.
const (
	KeyAccessKey     = "ACCESS_KEY"
	KeySecretKey     = "SECRET_KEY"
	KeySellerID      = "SELLER_ID"
	KeyProductCount  = "PRODUCT_COUNT"
	KeySleepInterval = "SLEEP_INTERVAL"
	KeyLogMute       = "LOG_MUTE"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > env file > Defaults
type Config struct {
	EnvFile string

	AccessKey     string
	SecretKey     string
	SellerID      string
	ProductCount  int
	SleepInterval time.Duration
	LogMute       bool

	BaseURL             string
	ConnectTimeout      time.Duration
	ReadTimeout         time.Duration
	RequestsPerSecond   float64
	RequestBurst        int
	StatusAddr          string
	LogFormat           string
	LogFile             string
	ShutdownGracePeriod time.Duration
}

// HasCredentials reports whether the access key, secret key and seller id are all set.
func (c Config) HasCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.SellerID != ""
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	BaseURL             string        `yaml:"base_url"`
	ConnectTimeout      string        `yaml:"connect_timeout"`
	ReadTimeout         string        `yaml:"read_timeout"`
	StatusAddr          string        `yaml:"status_addr"`
	LogFormat           string        `yaml:"log_format"`
	LogFile             string        `yaml:"log_file"`
	ShutdownGracePeriod string        `yaml:"shutdown_grace_period"`
	RateLimit           yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the outbound request pacing section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	EnvFile        string
	BaseURL        *string
	StatusAddr     *string
	LogFormat      *string
	LogFile        *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load resolves configuration with precedence:
// CLI flags > YAML config > env file > Defaults
// The env file never produces an error; only an unreadable YAML file or an invalid final
// configuration does.
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	envPath := DefaultEnvFilePath()
	if overrides != nil && overrides.EnvFile != "" {
		envPath = overrides.EnvFile
	}
	cfg.EnvFile = envPath
	applyEnvFile(&cfg, LoadEnvFile(envPath))

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		ProductCount:        defaultProductCount,
		SleepInterval:       defaultSleepInterval,
		BaseURL:             defaultBaseURL,
		ConnectTimeout:      defaultConnectTimeout,
		ReadTimeout:         defaultReadTimeout,
		RequestsPerSecond:   defaultRequestsPerSec,
		RequestBurst:        defaultRequestBurst,
		LogFormat:           defaultLogFormat,
		ShutdownGracePeriod: defaultShutdownTimeout,
	}
}

// applyEnvFile copies the recognised env file keys into cfg. Unparseable or out-of-range
// numbers keep their defaults.
func applyEnvFile(cfg *Config, values map[string]string) {
	cfg.AccessKey = values[KeyAccessKey]
	cfg.SecretKey = values[KeySecretKey]
	cfg.SellerID = values[KeySellerID]

	if count := ParseInt(values[KeyProductCount], defaultProductCount); count >= 0 {
		cfg.ProductCount = count
	}

	if seconds := ParseInt(values[KeySleepInterval], int(defaultSleepInterval/time.Second)); seconds > 0 {
		cfg.SleepInterval = time.Duration(seconds) * time.Second
	}

	cfg.LogMute = ParseBool(values[KeyLogMute])
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.BaseURL != "" {
		cfg.BaseURL = yamlCfg.BaseURL
	}

	if d, ok := parseDuration(yamlCfg.ConnectTimeout); ok {
		cfg.ConnectTimeout = d
	}

	if d, ok := parseDuration(yamlCfg.ReadTimeout); ok {
		cfg.ReadTimeout = d
	}

	if d, ok := parseDuration(yamlCfg.ShutdownGracePeriod); ok {
		cfg.ShutdownGracePeriod = d
	}

	if yamlCfg.StatusAddr != "" {
		cfg.StatusAddr = yamlCfg.StatusAddr
	}

	if yamlCfg.LogFormat != "" {
		cfg.LogFormat = yamlCfg.LogFormat
	}

	if yamlCfg.LogFile != "" {
		cfg.LogFile = yamlCfg.LogFile
	}

	if yamlCfg.RateLimit.RPS != nil && *yamlCfg.RateLimit.RPS >= 0 {
		cfg.RequestsPerSecond = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil && *yamlCfg.RateLimit.Burst >= 0 {
		cfg.RequestBurst = *yamlCfg.RateLimit.Burst
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.BaseURL != nil && *overrides.BaseURL != "" {
		cfg.BaseURL = *overrides.BaseURL
	}

	if overrides.StatusAddr != nil && *overrides.StatusAddr != "" {
		cfg.StatusAddr = *overrides.StatusAddr
	}

	if overrides.LogFormat != nil && *overrides.LogFormat != "" {
		cfg.LogFormat = *overrides.LogFormat
	}

	if overrides.LogFile != nil && *overrides.LogFile != "" {
		cfg.LogFile = *overrides.LogFile
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RequestsPerSecond = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RequestBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("base URL must start with http:// or https://, got %q", cfg.BaseURL)
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return fmt.Errorf("log format must be console or json, got %q", cfg.LogFormat)
	}
	if cfg.ConnectTimeout <= 0 || cfg.ReadTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func parseDuration(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
