package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. ATA_RECLAIM_POSTGRES_DSN.
const EnvPrefix = "ATA_RECLAIM"

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool `mapstructure:"debug"`
	UseMemory bool `mapstructure:"use_memory"` // in-memory stores instead of Postgres/ClickHouse
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"` // CORS; empty allows any origin
}

// SolanaConfig holds RPC endpoints
type SolanaConfig struct {
	RPCEndpoint    string        `mapstructure:"rpc_endpoint"`
	WSEndpoint     string        `mapstructure:"ws_endpoint"` // optional; polling is used when empty
	Commitment     string        `mapstructure:"commitment"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
}

// PostgresConfig holds the mint record store connection
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ClickHouseConfig holds the claim event store connection
type ClickHouseConfig struct {
	DSN string `mapstructure:"dsn"` // optional; claim events are kept in memory when empty
}

// RewardConfig describes the collectible issued to first-time reclaimers
type RewardConfig struct {
	CollectionMint   string `mapstructure:"collection_mint"`
	AuthorityKeypair string `mapstructure:"authority_keypair"` // path to a Solana CLI keypair file
	Name             string `mapstructure:"name"`
	Symbol           string `mapstructure:"symbol"`
	URI              string `mapstructure:"uri"`
}

// VoiceConfig holds media server credentials
type VoiceConfig struct {
	APIKey      string `mapstructure:"api_key"`
	APISecret   string `mapstructure:"api_secret"`
	ServerURL   string `mapstructure:"server_url"`
	DefaultRoom string `mapstructure:"default_room"`
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Config holds configuration for the API server
type Config struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig     `mapstructure:"server"`
	Solana     SolanaConfig     `mapstructure:"solana"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Reward     RewardConfig     `mapstructure:"reward"`
	Voice      VoiceConfig      `mapstructure:"voice"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
}

// Load reads config.yaml (optional), .env files from envPath and ATA_RECLAIM_* variables.
func Load(configFile string, envPath string) (*Config, error) {
	v := configureViper("server", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("use_memory", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("solana.rpc_endpoint", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.confirm_timeout", "90s")
	v.SetDefault("reward.name", "ATA Reclaimer")
	v.SetDefault("reward.symbol", "RECLAIM")
	v.SetDefault("voice.default_room", "reclaimers")
	v.SetDefault("ratelimit.rps", 5)
	v.SetDefault("ratelimit.burst", 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that every required key for serving is present.
func (c *Config) Validate() error {
	var missing []string
	if c.Solana.RPCEndpoint == "" {
		missing = append(missing, "solana.rpc_endpoint")
	}
	if !c.UseMemory && c.Postgres.DSN == "" {
		missing = append(missing, "postgres.dsn")
	}
	if c.Reward.CollectionMint == "" {
		missing = append(missing, "reward.collection_mint")
	}
	if c.Reward.AuthorityKeypair == "" {
		missing = append(missing, "reward.authority_keypair")
	}
	if c.Reward.URI == "" {
		missing = append(missing, "reward.uri")
	}
	if c.Voice.APIKey == "" {
		missing = append(missing, "voice.api_key")
	}
	if c.Voice.APISecret == "" {
		missing = append(missing, "voice.api_secret")
	}
	if c.Voice.ServerURL == "" {
		missing = append(missing, "voice.server_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("ratelimit.rps and ratelimit.burst must be positive")
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"use_memory",
		// Server
		"server.addr",
		"server.read_timeout",
		"server.write_timeout",
		"server.shutdown_timeout",
		"server.allowed_origins",
		// Solana
		"solana.rpc_endpoint",
		"solana.ws_endpoint",
		"solana.commitment",
		"solana.confirm_timeout",
		// Stores
		"postgres.dsn",
		"clickhouse.dsn",
		// Reward
		"reward.collection_mint",
		"reward.authority_keypair",
		"reward.name",
		"reward.symbol",
		"reward.uri",
		// Voice
		"voice.api_key",
		"voice.api_secret",
		"voice.server_url",
		"voice.default_room",
		// Rate limit
		"ratelimit.rps",
		"ratelimit.burst",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads .env, .env.local and .env.<service>.local from envPath, later files winning.
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}
