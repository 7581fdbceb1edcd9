package evm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// Well-known hardhat development key; safe to embed.
const (
	devKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	devMnemonic = "test test test test test test test test test test test junk"
)

func newTestWallet(t *testing.T, extra ...WalletOption) *Wallet {
	t.Helper()
	opts := append([]WalletOption{
		WithPrivateKey(devKeyHex),
		WithChain(rcxsale.BSCTestnet),
	}, extra...)
	w, err := NewWallet(opts...)
	if err != nil {
		t.Fatalf("NewWallet() error = %v", err)
	}
	return w
}

func TestNewWallet(t *testing.T) {
	t.Run("derives the address from the key", func(t *testing.T) {
		w := newTestWallet(t)
		if w.Address() != common.HexToAddress(devAddress) {
			t.Errorf("Address() = %s, want %s", w.Address().Hex(), devAddress)
		}
	})

	t.Run("accepts 0x prefixed keys", func(t *testing.T) {
		w, err := NewWallet(WithPrivateKey("0x"+devKeyHex), WithChain(rcxsale.BSCTestnet))
		if err != nil {
			t.Fatalf("NewWallet() error = %v", err)
		}
		if w.Address() != common.HexToAddress(devAddress) {
			t.Errorf("Address() = %s, want %s", w.Address().Hex(), devAddress)
		}
	})

	t.Run("requires a key", func(t *testing.T) {
		_, err := NewWallet(WithChain(rcxsale.BSCTestnet))
		if !errors.Is(err, rcxsale.ErrInvalidKey) {
			t.Errorf("error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("requires a chain", func(t *testing.T) {
		_, err := NewWallet(WithPrivateKey(devKeyHex))
		if !errors.Is(err, rcxsale.ErrUnknownChain) {
			t.Errorf("error = %v, want ErrUnknownChain", err)
		}
	})

	t.Run("rejects a bad key", func(t *testing.T) {
		_, err := NewWallet(WithPrivateKey("zznothex"), WithChain(rcxsale.BSCTestnet))
		if !errors.Is(err, rcxsale.ErrInvalidKey) {
			t.Errorf("error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("active chain must be registered", func(t *testing.T) {
		_, err := NewWallet(
			WithPrivateKey(devKeyHex),
			WithChain(rcxsale.BSCTestnet),
			WithActiveChain(big.NewInt(1)),
		)
		if !errors.Is(err, rcxsale.ErrUnknownChain) {
			t.Errorf("error = %v, want ErrUnknownChain", err)
		}
	})
}

func TestMnemonicDerivation(t *testing.T) {
	t.Run("account zero", func(t *testing.T) {
		w, err := NewWallet(WithMnemonic(devMnemonic, 0), WithChain(rcxsale.BSCTestnet))
		if err != nil {
			t.Fatalf("NewWallet() error = %v", err)
		}
		// m/44'/60'/0'/0/0 of the hardhat mnemonic
		if w.Address() != common.HexToAddress(devAddress) {
			t.Errorf("Address() = %s, want %s", w.Address().Hex(), devAddress)
		}
	})

	t.Run("account one differs", func(t *testing.T) {
		w, err := NewWallet(WithMnemonic(devMnemonic, 1), WithChain(rcxsale.BSCTestnet))
		if err != nil {
			t.Fatalf("NewWallet() error = %v", err)
		}
		if w.Address() == common.HexToAddress(devAddress) {
			t.Error("account index 1 must derive a different address")
		}
	})

	t.Run("invalid mnemonic", func(t *testing.T) {
		_, err := NewWallet(WithMnemonic("not a real mnemonic phrase", 0), WithChain(rcxsale.BSCTestnet))
		if !errors.Is(err, rcxsale.ErrInvalidMnemonic) {
			t.Errorf("error = %v, want ErrInvalidMnemonic", err)
		}
	})
}

func TestRequestAccounts(t *testing.T) {
	w := newTestWallet(t)
	accounts, err := w.RequestAccounts(context.Background())
	if err != nil {
		t.Fatalf("RequestAccounts() error = %v", err)
	}
	if len(accounts) != 1 || accounts[0] != w.Address() {
		t.Errorf("RequestAccounts() = %v, want the single wallet account", accounts)
	}
}

func TestSwitchChain(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown chain is refused", func(t *testing.T) {
		w := newTestWallet(t)
		err := w.SwitchChain(ctx, big.NewInt(1))
		if !errors.Is(err, rcxsale.ErrUnknownChain) {
			t.Errorf("error = %v, want ErrUnknownChain", err)
		}
	})

	t.Run("add then switch notifies subscribers", func(t *testing.T) {
		w := newTestWallet(t)

		var gotChain *big.Int
		sub, err := w.Subscribe(rcxsale.WalletEvents{
			ChainChanged: func(chainID *big.Int) { gotChain = chainID },
		})
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		defer sub.Unsubscribe()

		if err := w.AddChain(ctx, rcxsale.LocalDevnet); err != nil {
			t.Fatalf("AddChain() error = %v", err)
		}
		if err := w.SwitchChain(ctx, rcxsale.LocalDevnet.ChainID); err != nil {
			t.Fatalf("SwitchChain() error = %v", err)
		}
		if gotChain == nil || gotChain.Cmp(rcxsale.LocalDevnet.ChainID) != 0 {
			t.Errorf("ChainChanged fired with %v, want %s", gotChain, rcxsale.LocalDevnet.ChainID)
		}

		active, _ := w.ChainID(ctx)
		if active.Cmp(rcxsale.LocalDevnet.ChainID) != 0 {
			t.Errorf("ChainID() = %s after switch", active)
		}
	})

	t.Run("switching to the active chain is silent", func(t *testing.T) {
		w := newTestWallet(t)
		fired := false
		sub, _ := w.Subscribe(rcxsale.WalletEvents{
			ChainChanged: func(*big.Int) { fired = true },
		})
		defer sub.Unsubscribe()

		if err := w.SwitchChain(ctx, rcxsale.BSCTestnet.ChainID); err != nil {
			t.Fatalf("SwitchChain() error = %v", err)
		}
		if fired {
			t.Error("no event expected when the chain does not change")
		}
	})

	t.Run("unsubscribed listeners stay quiet", func(t *testing.T) {
		w := newTestWallet(t)
		fired := false
		sub, _ := w.Subscribe(rcxsale.WalletEvents{
			ChainChanged: func(*big.Int) { fired = true },
		})
		sub.Unsubscribe()
		sub.Unsubscribe() // idempotent

		_ = w.AddChain(ctx, rcxsale.LocalDevnet)
		_ = w.SwitchChain(ctx, rcxsale.LocalDevnet.ChainID)
		if fired {
			t.Error("unsubscribed listener must not fire")
		}
	})

	t.Run("incomplete chain cannot be added", func(t *testing.T) {
		w := newTestWallet(t)
		err := w.AddChain(ctx, rcxsale.ChainConfig{ChainID: big.NewInt(1234)})
		if !errors.Is(err, rcxsale.ErrNetworkSetupFailed) {
			t.Errorf("error = %v, want ErrNetworkSetupFailed", err)
		}
	})
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	summary := rcxsale.TxSummary{Action: "buyWithNative", Value: big.NewInt(1)}

	t.Run("default allows", func(t *testing.T) {
		w := newTestWallet(t)
		if err := w.Authorize(ctx, summary); err != nil {
			t.Errorf("Authorize() error = %v", err)
		}
	})

	t.Run("declined confirm rejects", func(t *testing.T) {
		w := newTestWallet(t, WithConfirmFunc(func(rcxsale.TxSummary) bool { return false }))
		err := w.Authorize(ctx, summary)
		if !errors.Is(err, rcxsale.ErrUserRejected) {
			t.Errorf("Authorize() error = %v, want ErrUserRejected", err)
		}
	})

	t.Run("confirm sees the summary", func(t *testing.T) {
		var got rcxsale.TxSummary
		w := newTestWallet(t, WithConfirmFunc(func(s rcxsale.TxSummary) bool {
			got = s
			return true
		}))
		if err := w.Authorize(ctx, summary); err != nil {
			t.Fatalf("Authorize() error = %v", err)
		}
		if got.Action != "buyWithNative" {
			t.Errorf("confirm saw action %q", got.Action)
		}
	})
}

func TestTransactor(t *testing.T) {
	w := newTestWallet(t)
	ctx := context.Background()

	t.Run("own account", func(t *testing.T) {
		opts, err := w.Transactor(ctx, w.Address())
		if err != nil {
			t.Fatalf("Transactor() error = %v", err)
		}
		if opts.From != w.Address() {
			t.Errorf("From = %s, want wallet address", opts.From.Hex())
		}
		if opts.Signer == nil {
			t.Error("Signer is nil")
		}
	})

	t.Run("foreign account", func(t *testing.T) {
		_, err := w.Transactor(ctx, common.HexToAddress("0x2222222222222222222222222222222222222222"))
		if !errors.Is(err, rcxsale.ErrInvalidKey) {
			t.Errorf("Transactor() error = %v, want ErrInvalidKey", err)
		}
	})
}
