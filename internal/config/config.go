// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CacheSize    int           `mapstructure:"cache_size"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AuthConfig holds token issuance configuration.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// WalletConfig holds the ledger's money rules.
type WalletConfig struct {
	SignupBonus    int64 `mapstructure:"signup_bonus"`
	ReferralReward int64 `mapstructure:"referral_reward"`
	MinWithdrawal  int64 `mapstructure:"min_withdrawal"`
}

// GatewayConfig holds mobile-money gateway (Daraja STK push) configuration.
type GatewayConfig struct {
	Shortcode      string        `mapstructure:"shortcode"`
	ConsumerKey    string        `mapstructure:"consumer_key"`
	ConsumerSecret string        `mapstructure:"consumer_secret"`
	Passkey        string        `mapstructure:"passkey"`
	TokenURL       string        `mapstructure:"token_url"`
	STKPushURL     string        `mapstructure:"stk_push_url"`
	QueryURL       string        `mapstructure:"query_url"`
	CallbackURL    string        `mapstructure:"callback_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// SweepConfig holds the pending-payment polling configuration.
type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// AdminConfig holds admin account configuration.
type AdminConfig struct {
	Phones []string `mapstructure:"phones"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. DATABASE_HOST, GATEWAY_CONSUMER_KEY, AUTH_JWT_SECRET.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK - env vars can provide all config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.cache_ttl", "30s")
	v.SetDefault("server.cache_size", 256)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ballotbet")
	v.SetDefault("database.name", "ballotbet")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Auth defaults
	v.SetDefault("auth.token_ttl", "168h")

	// Wallet defaults
	v.SetDefault("wallet.signup_bonus", 2500)
	v.SetDefault("wallet.referral_reward", 10000)
	v.SetDefault("wallet.min_withdrawal", 1000)

	// Gateway defaults (sandbox endpoints; credentials come from env)
	v.SetDefault("gateway.token_url", "https://api.safaricom.co.ke/oauth/v1/generate?grant_type=client_credentials")
	v.SetDefault("gateway.stk_push_url", "https://api.safaricom.co.ke/mpesa/stkpush/v1/processrequest")
	v.SetDefault("gateway.query_url", "https://api.safaricom.co.ke/mpesa/stkpushquery/v1/query")
	v.SetDefault("gateway.timeout", "30s")

	// Sweep defaults
	v.SetDefault("sweep.interval", "2m")
}

// IsAdmin checks if a canonical phone number belongs to an admin.
func (c *Config) IsAdmin(phone string) bool {
	for _, p := range c.Admin.Phones {
		if p == phone {
			return true
		}
	}
	return false
}
