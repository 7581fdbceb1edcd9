// Package config loads runtime configuration from an optional config file
// and RCXSALE_* environment variables, and resolves it into a chain
// configuration with any endpoint or address overrides applied.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// KeySource selects where the local wallet key comes from. At most one of
// the three sources may be set; all empty means read-only operation.
type KeySource struct {
	PrivateKey       string `mapstructure:"private_key"`
	KeystorePath     string `mapstructure:"keystore_path"`
	KeystorePassword string `mapstructure:"keystore_password"`
	Mnemonic         string `mapstructure:"mnemonic"`
	AccountIndex     uint32 `mapstructure:"account_index"`
}

// Set reports whether any key source is configured.
func (k KeySource) Set() bool {
	return k.PrivateKey != "" || k.KeystorePath != "" || k.Mnemonic != ""
}

func (k KeySource) sources() int {
	n := 0
	if k.PrivateKey != "" {
		n++
	}
	if k.KeystorePath != "" {
		n++
	}
	if k.Mnemonic != "" {
		n++
	}
	return n
}

// Config is the resolved runtime configuration.
type Config struct {
	// Network selects the chain preset: bsc-testnet, bsc or local.
	Network string `mapstructure:"network"`

	// Endpoint overrides. Empty values keep the preset's endpoints.
	RPCURL         string `mapstructure:"rpc_url"`
	ReadRPCURL     string `mapstructure:"read_rpc_url"`
	FallbackRPCURL string `mapstructure:"fallback_rpc_url"`

	// Contract address overrides, hex-encoded. Required for networks whose
	// preset has no sale address (mainnet until deployment, local devnets).
	SaleAddress string `mapstructure:"sale_address"`
	USDTAddress string `mapstructure:"usdt_address"`
	USDCAddress string `mapstructure:"usdc_address"`
	FeedAddress string `mapstructure:"feed_address"`

	Key KeySource `mapstructure:"key"`

	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`

	// ListenAddr is the bind address for the serve command.
	ListenAddr string `mapstructure:"listen_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from the given file (optional, empty skips it)
// and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RCXSALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", rcxsale.BSCTestnet.NetworkID)
	v.SetDefault("read_timeout", 10*time.Second)
	v.SetDefault("confirm_timeout", 3*time.Minute)
	v.SetDefault("poll_interval", 3*time.Second)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")

	// Viper only consults the environment for keys it already knows about, so
	// every valueless key is registered with an empty default.
	for _, key := range []string{
		"rpc_url", "read_rpc_url", "fallback_rpc_url",
		"sale_address", "usdt_address", "usdc_address", "feed_address",
		"key.private_key", "key.keystore_path", "key.keystore_password",
		"key.mnemonic", "key.account_index",
	} {
		v.SetDefault(key, "")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration before anything is dialed.
func (c *Config) Validate() error {
	if err := rcxsale.ValidateNetwork(c.Network); err != nil {
		return err
	}
	if n := c.Key.sources(); n > 1 {
		return fmt.Errorf("config: at most one wallet key source may be set, got %d", n)
	}
	if c.Key.KeystorePath != "" && c.Key.KeystorePassword == "" {
		return fmt.Errorf("config: keystore_password is required with keystore_path")
	}
	for _, addr := range []struct{ name, value string }{
		{"sale_address", c.SaleAddress},
		{"usdt_address", c.USDTAddress},
		{"usdc_address", c.USDCAddress},
		{"feed_address", c.FeedAddress},
	} {
		if addr.value == "" {
			continue
		}
		if err := rcxsale.ValidateTokenAddress(addr.value); err != nil {
			return fmt.Errorf("config: %s: %w", addr.name, err)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// Chain resolves the selected network preset with overrides applied. The
// result must carry a sale address or the client has nothing to talk to.
func (c *Config) Chain() (rcxsale.ChainConfig, error) {
	chain, err := rcxsale.ChainByNetwork(c.Network)
	if err != nil {
		return rcxsale.ChainConfig{}, err
	}
	if c.RPCURL != "" {
		chain.RPCURL = c.RPCURL
	}
	if c.ReadRPCURL != "" {
		chain.ReadRPCURL = c.ReadRPCURL
	}
	if c.FallbackRPCURL != "" {
		chain.FallbackRPCURL = c.FallbackRPCURL
	}
	if c.SaleAddress != "" {
		chain.Addresses.Sale = common.HexToAddress(c.SaleAddress)
	}
	if c.USDTAddress != "" {
		chain.Addresses.USDT = common.HexToAddress(c.USDTAddress)
	}
	if c.USDCAddress != "" {
		chain.Addresses.USDC = common.HexToAddress(c.USDCAddress)
	}
	if c.FeedAddress != "" {
		chain.Addresses.NativeUSDFeed = common.HexToAddress(c.FeedAddress)
	}
	if chain.Addresses.Sale == (common.Address{}) {
		return rcxsale.ChainConfig{}, fmt.Errorf("config: network %s has no sale address; set sale_address", chain.Name)
	}
	return chain, nil
}
