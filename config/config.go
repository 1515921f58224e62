// Package config enables config file parsing.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/bgsc/vaultui/i18n"
	"github.com/bgsc/vaultui/log"
)

// Config contains the CLI configuration.
type Config struct {
	Server  *ServerConfig  `koanf:"server"`
	Wallet  *WalletConfig  `koanf:"wallet"`
	Vault   *VaultConfig   `koanf:"vault"`
	Log     *LogConfig     `koanf:"log"`
	Metrics *MetricsConfig `koanf:"metrics"`
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if cfg.Server == nil {
		return fmt.Errorf("server: no server config provided")
	}
	if err := cfg.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if cfg.Wallet != nil {
		if err := cfg.Wallet.Validate(); err != nil {
			return fmt.Errorf("wallet: %w", err)
		}
	}
	if cfg.Vault != nil {
		if err := cfg.Vault.Validate(); err != nil {
			return fmt.Errorf("vault: %w", err)
		}
	}
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if cfg.Metrics != nil {
		if err := cfg.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}

// ServerConfig contains the dashboard server configuration.
type ServerConfig struct {
	// Endpoint is the service endpoint from which to serve the dashboard.
	Endpoint string `koanf:"endpoint"`

	// RequestTimeout bounds the handling of a single request. Defaults
	// to 10s.
	RequestTimeout *time.Duration `koanf:"request_timeout"`

	// Language is the initial dashboard language, "en" (default) or "ko".
	Language string `koanf:"language"`
}

// Validate validates the server configuration.
func (cfg *ServerConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("malformed server endpoint '%s'", cfg.Endpoint)
	}
	if cfg.RequestTimeout != nil && *cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if cfg.Language != "" {
		if _, err := i18n.Parse(cfg.Language); err != nil {
			return err
		}
	}
	return nil
}

// InitialLanguage returns the configured language, or the default.
func (cfg *ServerConfig) InitialLanguage() i18n.Language {
	if lang, err := i18n.Parse(cfg.Language); err == nil {
		return lang
	}
	return i18n.Default
}

// ProviderKind selects the wallet provider implementation.
type ProviderKind uint

const (
	// ProviderNone means no wallet provider is available.
	ProviderNone ProviderKind = iota
	// ProviderRPC is an Ethereum JSON-RPC endpoint acting as the wallet.
	ProviderRPC
)

// String returns the string representation of a ProviderKind.
func (pk *ProviderKind) String() string {
	switch *pk {
	case ProviderNone:
		return "none"
	case ProviderRPC:
		return "rpc"
	default:
		panic("config: unsupported wallet provider")
	}
}

// Set sets the ProviderKind to the value specified by the provided string.
func (pk *ProviderKind) Set(s string) error {
	switch strings.ToLower(s) {
	case "", "none":
		*pk = ProviderNone
	case "rpc":
		*pk = ProviderRPC
	default:
		return fmt.Errorf("config: invalid wallet provider: '%s'", s)
	}
	return nil
}

// Type returns the list of supported ProviderKinds.
func (pk *ProviderKind) Type() string {
	return "[none,rpc]"
}

// WalletConfig is the configuration of the wallet provider boundary.
type WalletConfig struct {
	// Provider is one of "none" or "rpc".
	Provider string `koanf:"provider"`

	// RPC is the JSON-RPC endpoint of the wallet, used when Provider is "rpc".
	RPC string `koanf:"rpc"`

	// PollInterval is how often the rpc provider checks for account and
	// chain changes. Defaults to 2s.
	PollInterval time.Duration `koanf:"poll_interval"`
}

// Kind returns the parsed provider kind. The config must be valid.
func (cfg *WalletConfig) Kind() ProviderKind {
	var pk ProviderKind
	_ = pk.Set(cfg.Provider)
	return pk
}

// Validate validates the wallet configuration.
func (cfg *WalletConfig) Validate() error {
	var pk ProviderKind
	if err := pk.Set(cfg.Provider); err != nil {
		return err
	}
	if pk == ProviderRPC && cfg.RPC == "" {
		return fmt.Errorf("rpc provider selected but wallet.rpc is empty")
	}
	if cfg.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative")
	}
	return nil
}

// VaultConfig holds the vault presentation and simulation parameters.
// Zero durations fall back to the defaults below.
type VaultConfig struct {
	// Name is the vault title shown on the dashboard.
	Name string `koanf:"name"`
	// Token is the staked token symbol.
	Token string `koanf:"token"`

	// RefreshInterval is the time between snapshot refreshes.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	// OperationDelay is the simulated duration of deposit, withdraw and claim.
	OperationDelay time.Duration `koanf:"operation_delay"`
	// DepositCloseDelay is how long the deposit success step stays open.
	DepositCloseDelay time.Duration `koanf:"deposit_close_delay"`
	// RewardPeriod is the spacing of simulated reward distributions.
	RewardPeriod time.Duration `koanf:"reward_period"`
}

const (
	DefaultVaultName         = "BGSC Vault"
	DefaultToken             = "BGSC"
	DefaultRefreshInterval   = 30 * time.Second
	DefaultOperationDelay    = 2 * time.Second
	DefaultDepositCloseDelay = 1500 * time.Millisecond
	DefaultRewardPeriod      = 24 * time.Hour
)

// DefaultVaultConfig returns the vault config with every default applied.
func DefaultVaultConfig() *VaultConfig {
	cfg := &VaultConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (cfg *VaultConfig) ApplyDefaults() {
	if cfg.Name == "" {
		cfg.Name = DefaultVaultName
	}
	if cfg.Token == "" {
		cfg.Token = DefaultToken
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.OperationDelay == 0 {
		cfg.OperationDelay = DefaultOperationDelay
	}
	if cfg.DepositCloseDelay == 0 {
		cfg.DepositCloseDelay = DefaultDepositCloseDelay
	}
	if cfg.RewardPeriod == 0 {
		cfg.RewardPeriod = DefaultRewardPeriod
	}
}

// Validate validates the vault configuration.
func (cfg *VaultConfig) Validate() error {
	for name, d := range map[string]time.Duration{
		"refresh_interval":    cfg.RefreshInterval,
		"operation_delay":     cfg.OperationDelay,
		"deposit_close_delay": cfg.DepositCloseDelay,
		"reward_period":       cfg.RewardPeriod,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if cfg.RefreshInterval != 0 && cfg.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval must be at least 1 second")
	}
	return nil
}

// LogConfig contains the logging configuration.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
	File   string `koanf:"file"`
}

// Validate validates the logging configuration.
func (cfg *LogConfig) Validate() error {
	var format log.Format
	if err := format.Set(cfg.Format); err != nil {
		return err
	}
	var level log.Level
	return level.Set(cfg.Level)
}

// MetricsConfig contains the metrics configuration.
type MetricsConfig struct {
	PullEndpoint string `koanf:"pull_endpoint"`
}

// Validate validates the metrics configuration.
func (cfg *MetricsConfig) Validate() error {
	if cfg.PullEndpoint == "" {
		return fmt.Errorf("malformed Prometheus pull endpoint '%s'", cfg.PullEndpoint)
	}
	return nil
}

// InitConfig initializes configuration from file.
func InitConfig(f string) (*Config, error) {
	return initConfig(file.Provider(f))
}

func initConfig(p koanf.Provider) (*Config, error) {
	var config Config
	k := koanf.New(".")

	// Load configuration from the yaml config.
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, err
	}

	// Load environment variables and merge into the loaded config.
	// Only VAULTUI_-prefixed variables are considered.
	if err := k.Load(env.Provider("VAULTUI_", ".", func(s string) string {
		// `__` is used as a hierarchy delimiter.
		s = strings.TrimPrefix(s, "VAULTUI_")
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Unmarshal into config.
	if err := k.Unmarshal("", &config); err != nil {
		return nil, err
	}

	// Validate config.
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Vault == nil {
		config.Vault = &VaultConfig{}
	}
	config.Vault.ApplyDefaults()
	if config.Wallet == nil {
		config.Wallet = &WalletConfig{Provider: "none"}
	}

	return &config, nil
}
