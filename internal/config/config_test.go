package config

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Network != rcxsale.BSCTestnet.NetworkID {
		t.Errorf("Network = %q, want %q", cfg.Network, rcxsale.BSCTestnet.NetworkID)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %s, want 10s", cfg.ReadTimeout)
	}
	if cfg.ConfirmTimeout != 3*time.Minute {
		t.Errorf("ConfirmTimeout = %s, want 3m", cfg.ConfirmTimeout)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("PollInterval = %s, want 3s", cfg.PollInterval)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Key.Set() {
		t.Error("no key source should be configured by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RCXSALE_NETWORK", "local")
	t.Setenv("RCXSALE_LISTEN_ADDR", ":9999")
	t.Setenv("RCXSALE_LOG_LEVEL", "debug")
	t.Setenv("RCXSALE_KEY_MNEMONIC", "test test test test test test test test test test test junk")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Network != "local" {
		t.Errorf("Network = %q, want local", cfg.Network)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", cfg.ListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Key.Mnemonic == "" {
		t.Error("mnemonic from the environment was dropped")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"network: bsc-testnet",
		"listen_addr: \":7070\"",
		"read_timeout: 5s",
		"key:",
		"  private_key: \"0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80\"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q, want :7070", cfg.ListenAddr)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %s, want 5s", cfg.ReadTimeout)
	}
	if cfg.Key.PrivateKey == "" {
		t.Error("private key from the file was dropped")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() with a missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Network: "bsc-testnet", LogLevel: "info"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown network", mutate: func(c *Config) { c.Network = "solana" }, wantErr: true},
		{name: "two key sources", mutate: func(c *Config) {
			c.Key.PrivateKey = "0xabc"
			c.Key.Mnemonic = "word word word"
		}, wantErr: true},
		{name: "keystore without password", mutate: func(c *Config) {
			c.Key.KeystorePath = "/tmp/keystore.json"
		}, wantErr: true},
		{name: "keystore with password", mutate: func(c *Config) {
			c.Key.KeystorePath = "/tmp/keystore.json"
			c.Key.KeystorePassword = "hunter2"
		}},
		{name: "bad sale address", mutate: func(c *Config) { c.SaleAddress = "not-hex" }, wantErr: true},
		{name: "good sale address", mutate: func(c *Config) {
			c.SaleAddress = "0x403992b84E0D2079FBC468E7CdF9c0a52Caa82e4"
		}},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "chatty" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChain(t *testing.T) {
	t.Run("testnet preset resolves as-is", func(t *testing.T) {
		cfg := &Config{Network: "bsc-testnet", LogLevel: "info"}
		chain, err := cfg.Chain()
		if err != nil {
			t.Fatalf("Chain() error = %v", err)
		}
		if chain.ChainID.Cmp(big.NewInt(97)) != 0 {
			t.Errorf("ChainID = %s, want 97", chain.ChainID)
		}
		if chain.Addresses.Sale == (common.Address{}) {
			t.Error("testnet preset must carry a sale address")
		}
	})

	t.Run("overrides replace preset values", func(t *testing.T) {
		sale := "0x9999999999999999999999999999999999999999"
		cfg := &Config{
			Network:     "bsc-testnet",
			LogLevel:    "info",
			RPCURL:      "http://localhost:8545",
			SaleAddress: sale,
		}
		chain, err := cfg.Chain()
		if err != nil {
			t.Fatalf("Chain() error = %v", err)
		}
		if chain.RPCURL != "http://localhost:8545" {
			t.Errorf("RPCURL = %q", chain.RPCURL)
		}
		if chain.Addresses.Sale != common.HexToAddress(sale) {
			t.Errorf("Sale = %s, want %s", chain.Addresses.Sale, sale)
		}
	})

	t.Run("mainnet needs an explicit sale address", func(t *testing.T) {
		cfg := &Config{Network: "bsc", LogLevel: "info"}
		if _, err := cfg.Chain(); err == nil {
			t.Fatal("Chain() should fail while the mainnet preset has no sale address")
		}

		cfg.SaleAddress = "0x9999999999999999999999999999999999999999"
		chain, err := cfg.Chain()
		if err != nil {
			t.Fatalf("Chain() with override error = %v", err)
		}
		if chain.StableDecimals != 18 {
			t.Errorf("StableDecimals = %d, want 18", chain.StableDecimals)
		}
	})
}
