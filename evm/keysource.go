package evm

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// WithKeystore loads the signing key from an encrypted geth keystore file.
func WithKeystore(path, password string) WalletOption {
	return func(w *Wallet) error {
		key, err := loadKeystoreKey(path, password)
		if err != nil {
			return err
		}
		w.privateKey = key
		return nil
	}
}

// WithMnemonic derives the signing key from a BIP-39 mnemonic phrase at the
// standard Ethereum path m/44'/60'/0'/0/{accountIndex}.
func WithMnemonic(mnemonic string, accountIndex uint32) WalletOption {
	return func(w *Wallet) error {
		key, err := deriveMnemonicKey(mnemonic, accountIndex)
		if err != nil {
			return err
		}
		w.privateKey = key
		return nil
	}
}

func loadKeystoreKey(path, password string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rcxsale.ErrInvalidKeystore, err)
	}

	var keyJSON struct {
		Crypto keystore.CryptoJSON `json:"crypto"`
	}
	if err := json.Unmarshal(data, &keyJSON); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON format", rcxsale.ErrInvalidKeystore)
	}

	keyBytes, err := keystore.DecryptDataV3(keyJSON.Crypto, password)
	if err != nil {
		return nil, fmt.Errorf("%w: decryption failed", rcxsale.ErrInvalidKeystore)
	}

	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key", rcxsale.ErrInvalidKeystore)
	}
	return key, nil
}

func deriveMnemonicKey(mnemonic string, accountIndex uint32) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, rcxsale.ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, "")

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rcxsale.ErrInvalidMnemonic, err)
	}

	// BIP-44: purpose' / coin' / account' / change / index
	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
		accountIndex,
	}
	for _, segment := range path {
		key, err = key.NewChildKey(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", rcxsale.ErrInvalidMnemonic, err)
		}
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rcxsale.ErrInvalidMnemonic, err)
	}
	return privateKey, nil
}
