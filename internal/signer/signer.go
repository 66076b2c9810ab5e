package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoSigner is returned when neither a private key nor a keystore is configured.
var ErrNoSigner = errors.New("no signer configured (use --private-key, --keystore or PRIVATE_KEY env var)")

// Signer is an account able to authorize transactions.
type Signer struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// FromHex parses a hex encoded private key, with or without 0x prefix.
func FromHex(hexKey string) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return fromKey(key), nil
}

// FromKeystore decrypts an encrypted JSON keystore file.
func FromKeystore(path string, password string) (*Signer, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore %s: %w", path, err)
	}
	return fromKey(key.PrivateKey), nil
}

func fromKey(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		Key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// TransactOpts returns EIP-155 transactor options for the given chain.
func (s *Signer) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.Key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Source resolves the signing account from the configured key material.
// A private key takes precedence over a keystore file.
type Source struct {
	PrivateKey   string
	KeystorePath string

	// Password returns the keystore password. It is only called when a
	// keystore is used.
	Password func() (string, error)
}

// Signer returns the configured account.
func (s *Source) Signer(ctx context.Context) (*Signer, error) {
	if s.PrivateKey != "" {
		return FromHex(s.PrivateKey)
	}
	if s.KeystorePath == "" {
		return nil, ErrNoSigner
	}

	var password string
	if s.Password != nil {
		var err error
		password, err = s.Password()
		if err != nil {
			return nil, fmt.Errorf("failed to read keystore password: %w", err)
		}
	}
	return FromKeystore(s.KeystorePath, password)
}
