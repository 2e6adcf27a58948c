package crypto

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// ScryptParams selects the key derivation cost used when encrypting a
// keystore.
type ScryptParams struct {
	N int
	P int
}

var (
	// StandardScrypt matches geth's default keystore cost.
	StandardScrypt = ScryptParams{N: keystore.StandardScryptN, P: keystore.StandardScryptP}
	// LightScrypt trades security for speed and is meant for tests and
	// throwaway development accounts.
	LightScrypt = ScryptParams{N: keystore.LightScryptN, P: keystore.LightScryptP}
)

// SaveToKeystore encrypts key into an Ethereum v3 keystore file at path and
// returns the account address. The parent directory is created with 0700
// permissions and the file is replaced atomically.
func SaveToKeystore(path string, key *PrivateKey, passphrase string, params ScryptParams) (common.Address, error) {
	if key == nil || key.PrivateKey == nil {
		return common.Address{}, errors.New("crypto: nil private key")
	}
	if path == "" {
		return common.Address{}, errors.New("crypto: empty keystore path")
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return common.Address{}, fmt.Errorf("crypto: keystore id: %w", err)
	}
	address := key.Address()
	keyJSON, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    address,
		PrivateKey: key.PrivateKey,
	}, passphrase, params.N, params.P)
	if err != nil {
		return common.Address{}, fmt.Errorf("crypto: encrypt key: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return common.Address{}, err
	}
	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return common.Address{}, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(keyJSON); err != nil {
		tmp.Close()
		return common.Address{}, err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return common.Address{}, err
	}
	if err := tmp.Close(); err != nil {
		return common.Address{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return common.Address{}, err
	}
	return address, nil
}

// LoadFromKeystore decrypts an Ethereum v3 keystore file using the supplied passphrase.
func LoadFromKeystore(path, passphrase string) (*PrivateKey, error) {
	if path == "" {
		return nil, errors.New("crypto: empty keystore path")
	}

	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	decrypted, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, err
	}

	return &PrivateKey{PrivateKey: decrypted.PrivateKey}, nil
}
