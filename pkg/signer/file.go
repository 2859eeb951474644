package signer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/evstack/near-da/pkg/near"
)

// keyFile is the credentials layout written by near-cli.
type keyFile struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key,omitempty"`
	SecretKey  string `json:"secret_key,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
}

// LoadKeyFile reads a credentials file and builds a signer from it. When the file lists a
// public key it must match the secret key.
func LoadKeyFile(path string) (*InMemorySigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyLoad, err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyLoad, path, err)
	}

	if err := near.ValidateAccountID(kf.AccountID); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyLoad, path, err)
	}

	secret := kf.SecretKey
	if secret == "" {
		secret = kf.PrivateKey
	}
	sk, err := near.ParseSecretKey(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyLoad, path, err)
	}

	signer := NewInMemorySigner(kf.AccountID, sk)
	if kf.PublicKey != "" {
		pk, err := near.ParsePublicKey(kf.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrKeyLoad, path, err)
		}
		if pk != signer.PublicKey() {
			return nil, fmt.Errorf("%w: %s: public key does not match secret key", ErrKeyLoad, path)
		}
	}
	return signer, nil
}

// WriteKeyFile stores s as a credentials file readable by LoadKeyFile.
func WriteKeyFile(path string, s *InMemorySigner) error {
	data, err := json.MarshalIndent(keyFile{
		AccountID: s.AccountID(),
		PublicKey: s.PublicKey().String(),
		SecretKey: s.SecretKey().String(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
