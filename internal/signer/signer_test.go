package signer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat's first default development account.
const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestFromHex(t *testing.T) {
	t.Run("with prefix", func(t *testing.T) {
		s, err := FromHex(devKey)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(devAddress), s.Address)
	})

	t.Run("without prefix and padded", func(t *testing.T) {
		s, err := FromHex("  " + devKey[2:] + "\n")
		require.NoError(t, err)
		assert.Equal(t, devAddress, s.Address.Hex())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := FromHex("0xnothex")
		assert.ErrorContains(t, err, "invalid private key")
	})
}

func TestFromKeystore(t *testing.T) {
	dir := t.TempDir()
	account, err := keystore.StoreKey(dir, "hunter2", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	s, err := FromKeystore(account.URL.Path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, account.Address, s.Address)

	_, err = FromKeystore(account.URL.Path, "wrong")
	assert.Error(t, err)

	_, err = FromKeystore(dir+"/missing.json", "hunter2")
	assert.ErrorContains(t, err, "failed to read keystore")
}

func TestSource(t *testing.T) {
	ctx := context.Background()

	t.Run("private key wins", func(t *testing.T) {
		src := &Source{
			PrivateKey:   devKey,
			KeystorePath: "/does/not/exist",
			Password: func() (string, error) {
				t.Fatal("password must not be requested")
				return "", nil
			},
		}
		s, err := src.Signer(ctx)
		require.NoError(t, err)
		assert.Equal(t, devAddress, s.Address.Hex())
	})

	t.Run("keystore with password callback", func(t *testing.T) {
		dir := t.TempDir()
		account, err := keystore.StoreKey(dir, "pw", keystore.LightScryptN, keystore.LightScryptP)
		require.NoError(t, err)

		calls := 0
		src := &Source{
			KeystorePath: account.URL.Path,
			Password: func() (string, error) {
				calls++
				return "pw", nil
			},
		}
		s, err := src.Signer(ctx)
		require.NoError(t, err)
		assert.Equal(t, account.Address, s.Address)
		assert.Equal(t, 1, calls)
	})

	t.Run("password error", func(t *testing.T) {
		src := &Source{
			KeystorePath: "key.json",
			Password: func() (string, error) {
				return "", errors.New("interrupted")
			},
		}
		_, err := src.Signer(ctx)
		assert.ErrorContains(t, err, "interrupted")
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := (&Source{}).Signer(ctx)
		assert.ErrorIs(t, err, ErrNoSigner)
	})
}

func TestTransactOpts(t *testing.T) {
	s, err := FromHex(devKey)
	require.NoError(t, err)

	ctx := context.Background()
	opts, err := s.TransactOpts(ctx, big.NewInt(31337))
	require.NoError(t, err)
	assert.Equal(t, s.Address, opts.From)
	assert.Equal(t, ctx, opts.Context)
}
