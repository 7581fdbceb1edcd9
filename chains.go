// Package rcxsale provides the session, contract-binding and purchase layers
// for the RCX staged public sale. The sale contract owns all pricing, vesting
// and allocation logic; this package establishes a wallet session against the
// target chain, derives typed read/write contract handles from it, and drives
// purchase transactions through their approve/submit/confirm lifecycle.
package rcxsale

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressBook holds the deployed contract addresses for one chain.
type AddressBook struct {
	// Sale is the PublicSale contract address.
	Sale common.Address

	// USDT is the USDT stablecoin contract accepted by the sale.
	USDT common.Address

	// USDC is the USDC stablecoin contract accepted by the sale.
	USDC common.Address

	// NativeUSDFeed is the Chainlink native/USD aggregator the sale prices against.
	NativeUSDFeed common.Address
}

// ChainConfig contains chain-specific configuration for the sale deployment.
type ChainConfig struct {
	// NetworkID is the short network identifier (e.g. "bsc-testnet").
	NetworkID string

	// ChainID is the EIP-155 chain identifier.
	ChainID *big.Int

	// Name is the human-readable chain name, used when registering the
	// chain with a wallet that does not know it.
	Name string

	// RPCURL is the wallet-side RPC endpoint. Write submissions go here.
	RPCURL string

	// ReadRPCURL is a dedicated endpoint for read calls so state reads keep
	// working when the wallet's endpoint is degraded or rate limited.
	// Empty means reads share RPCURL.
	ReadRPCURL string

	// FallbackRPCURL is tried once when a read against ReadRPCURL fails.
	FallbackRPCURL string

	// ExplorerURL is the block explorer base URL.
	ExplorerURL string

	// NativeSymbol is the native coin ticker (e.g. "BNB").
	NativeSymbol string

	// NativeDecimals is the native coin's decimal count (18 on all BSC chains).
	NativeDecimals uint8

	// StableDecimals is the decimal count of the accepted stablecoins.
	// The deployed sale contract consumes 6-decimal USD amounts and the
	// testnet stablecoins it was deployed against use 6 decimals.
	StableDecimals uint8

	// Addresses is the deployed contract address set.
	Addresses AddressBook
}

// Chain configurations for the known sale deployments.
var (
	// BSCTestnet is the live deployment on BSC testnet (chain 97).
	BSCTestnet = ChainConfig{
		NetworkID:      "bsc-testnet",
		ChainID:        big.NewInt(97),
		Name:           "BSC Testnet",
		RPCURL:         "https://data-seed-prebsc-1-s1.binance.org:8545",
		ReadRPCURL:     "https://data-seed-prebsc-1-s1.binance.org:8545",
		FallbackRPCURL: "https://data-seed-prebsc-2-s1.binance.org:8545",
		ExplorerURL:    "https://testnet.bscscan.com",
		NativeSymbol:   "BNB",
		NativeDecimals: 18,
		StableDecimals: 6,
		Addresses: AddressBook{
			Sale:          common.HexToAddress("0x403992b84E0D2079FBC468E7CdF9c0a52Caa82e4"),
			USDT:          common.HexToAddress("0xD0B69C04A833541003f2570575a7474f36A70a81"),
			USDC:          common.HexToAddress("0xa94BB5383e74535734354948E134A422653Dcf86"),
			NativeUSDFeed: common.HexToAddress("0x2514895c72f50D8bd4B4F9b1110F0D6bD2c97526"),
		},
	}

	// BSCMainnet is the mainnet configuration. The sale address is filled in
	// at deployment time via configuration overrides; stablecoin and feed
	// addresses are the canonical BSC contracts.
	BSCMainnet = ChainConfig{
		NetworkID:      "bsc",
		ChainID:        big.NewInt(56),
		Name:           "BNB Smart Chain",
		RPCURL:         "https://bsc-dataseed.binance.org",
		ReadRPCURL:     "https://bsc-dataseed1.binance.org",
		FallbackRPCURL: "https://bsc-dataseed2.binance.org",
		ExplorerURL:    "https://bscscan.com",
		NativeSymbol:   "BNB",
		NativeDecimals: 18,
		StableDecimals: 18,
		Addresses: AddressBook{
			USDT:          common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"),
			USDC:          common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d"),
			NativeUSDFeed: common.HexToAddress("0x0567F2323251f0Aab15c8dFb1967E4e8A7D42aeE"),
		},
	}

	// LocalDevnet targets a local development node (hardhat/anvil defaults).
	// All contract addresses come from configuration overrides.
	LocalDevnet = ChainConfig{
		NetworkID:      "local",
		ChainID:        big.NewInt(31337),
		Name:           "Local Devnet",
		RPCURL:         "http://127.0.0.1:8545",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		StableDecimals: 6,
	}
)

// knownChains indexes the shipped configurations by network identifier.
var knownChains = map[string]ChainConfig{
	BSCTestnet.NetworkID:  BSCTestnet,
	BSCMainnet.NetworkID:  BSCMainnet,
	LocalDevnet.NetworkID: LocalDevnet,
}

// ChainByNetwork returns the shipped configuration for a network identifier.
func ChainByNetwork(networkID string) (ChainConfig, error) {
	cfg, ok := knownChains[networkID]
	if !ok {
		return ChainConfig{}, fmt.Errorf("%w: %q", ErrUnknownChain, networkID)
	}
	return cfg, nil
}

// ChainByID returns the shipped configuration for an EIP-155 chain id.
func ChainByID(chainID *big.Int) (ChainConfig, bool) {
	if chainID == nil {
		return ChainConfig{}, false
	}
	for _, cfg := range knownChains {
		if cfg.ChainID.Cmp(chainID) == 0 {
			return cfg, true
		}
	}
	return ChainConfig{}, false
}

// ValidateNetwork validates a network identifier.
//
// Supported networks: bsc, bsc-testnet, local.
func ValidateNetwork(networkID string) error {
	if networkID == "" {
		return fmt.Errorf("networkID: cannot be empty")
	}
	if _, ok := knownChains[networkID]; !ok {
		return fmt.Errorf("networkID: unsupported network %q", networkID)
	}
	return nil
}

// ValidateTokenAddress validates that an address is a well-formed EVM address.
// The sale and its stablecoins live on EVM chains only, so the address must be
// a 0x-prefixed hex string, 42 characters total.
func ValidateTokenAddress(address string) error {
	if address == "" {
		return fmt.Errorf("token address cannot be empty")
	}
	// common.IsHexAddress also accepts the bare 40-char form; the prefix is
	// required here so config typos fail loudly.
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return fmt.Errorf("token address %q is invalid, expected 0x-prefixed hex address (42 chars)", address)
	}
	return nil
}

// ReadEndpoint returns the chain's read endpoint, falling back to the wallet
// endpoint when no dedicated one is configured.
func (c ChainConfig) ReadEndpoint() string {
	if c.ReadRPCURL != "" {
		return c.ReadRPCURL
	}
	return c.RPCURL
}

// TokenAddress returns the contract address for a stablecoin payment method.
func (c ChainConfig) TokenAddress(method PaymentMethod) (common.Address, error) {
	switch method {
	case MethodUSDT:
		return c.Addresses.USDT, nil
	case MethodUSDC:
		return c.Addresses.USDC, nil
	default:
		return common.Address{}, fmt.Errorf("no token contract for payment method %q", method)
	}
}
