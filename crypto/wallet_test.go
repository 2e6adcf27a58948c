package crypto

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys", "sender.json")
	addr, err := SaveToKeystore(path, key, "correct horse", LightScrypt)
	require.NoError(t, err)
	require.Equal(t, key.Address(), addr)

	loaded, err := LoadFromKeystore(path, "correct horse")
	require.NoError(t, err)
	require.Equal(t, key.Address(), loaded.Address())

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)
}

func TestWalletDefaultAccountIsFirstKey(t *testing.T) {
	first, err := GeneratePrivateKey()
	require.NoError(t, err)
	second, err := GeneratePrivateKey()
	require.NoError(t, err)

	w, err := NewWallet(big.NewInt(1337), first, second)
	require.NoError(t, err)
	require.Equal(t, first.Address(), w.DefaultAccount())
	require.Len(t, w.Accounts(), 2)
}

func TestWalletTransactOpts(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	w, err := NewWallet(big.NewInt(1337), key)
	require.NoError(t, err)

	opts, err := w.TransactOpts(context.Background(), key.Address())
	require.NoError(t, err)
	require.Equal(t, key.Address(), opts.From)
	require.NotNil(t, opts.Signer)

	other, err := GeneratePrivateKey()
	require.NoError(t, err)
	_, err = w.TransactOpts(context.Background(), other.Address())
	if !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestNewWalletRejectsMissingChainID(t *testing.T) {
	if _, err := NewWallet(nil); err == nil {
		t.Fatal("expected error for nil chain id")
	}
}

func TestPrivateKeyFromHex(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	encoded := "0x" + hex.EncodeToString(key.Bytes())

	parsed, err := PrivateKeyFromHex(encoded)
	require.NoError(t, err)
	require.Equal(t, key.Address(), parsed.Address())

	_, err = PrivateKeyFromHex("0xzz")
	require.Error(t, err)
}
