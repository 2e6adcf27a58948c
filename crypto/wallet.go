package crypto

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownAccount is returned when a transaction is requested for an
// account the wallet holds no key for.
var ErrUnknownAccount = errors.New("crypto: unknown account")

// Wallet holds account keys for one chain and authorises transactions on
// their behalf. The first key added becomes the default sender.
type Wallet struct {
	chainID *big.Int

	mu       sync.RWMutex
	keys     map[common.Address]*PrivateKey
	fallback common.Address
}

// NewWallet constructs a wallet for chainID holding keys.
func NewWallet(chainID *big.Int, keys ...*PrivateKey) (*Wallet, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.New("crypto: chain id must be positive")
	}
	w := &Wallet{
		chainID: new(big.Int).Set(chainID),
		keys:    make(map[common.Address]*PrivateKey, len(keys)),
	}
	for _, key := range keys {
		if err := w.Add(key); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// LoadWallet decrypts the keystore at path and returns a wallet holding it.
func LoadWallet(chainID *big.Int, path, passphrase string) (*Wallet, error) {
	key, err := LoadFromKeystore(path, passphrase)
	if err != nil {
		return nil, fmt.Errorf("load keystore %s: %w", path, err)
	}
	return NewWallet(chainID, key)
}

// Add registers key with the wallet.
func (w *Wallet) Add(key *PrivateKey) error {
	if key == nil || key.PrivateKey == nil {
		return errors.New("crypto: nil private key")
	}
	addr := key.Address()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.keys) == 0 {
		w.fallback = addr
	}
	w.keys[addr] = key
	return nil
}

// Accounts lists the wallet's addresses in ascending order.
func (w *Wallet) Accounts() []common.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]common.Address, 0, len(w.keys))
	for addr := range w.keys {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// DefaultAccount returns the account used when a caller does not name one.
func (w *Wallet) DefaultAccount() common.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fallback
}

// ChainID returns the chain id transactions are signed for.
func (w *Wallet) ChainID() *big.Int { return new(big.Int).Set(w.chainID) }

// TransactOpts returns signing options for from.
func (w *Wallet) TransactOpts(ctx context.Context, from common.Address) (*bind.TransactOpts, error) {
	w.mu.RLock()
	key, ok := w.keys[from]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, from.Hex())
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key.PrivateKey, w.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}
