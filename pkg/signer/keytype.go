package signer

import (
	"fmt"

	"github.com/evstack/near-da/pkg/near"
)

// KeyType selects where the signing key comes from. The set of variants is closed:
// FileKey, SeedKey and SecretKeyKey.
type KeyType interface {
	isKeyType()
}

// FileKey loads credentials from a NEAR credentials JSON file.
type FileKey struct {
	Path string
}

// SeedKey derives the key from a seed phrase.
type SeedKey struct {
	AccountID string
	Seed      string
}

// SecretKeyKey uses an "ed25519:<base58>" encoded secret key.
type SecretKeyKey struct {
	AccountID string
	SecretKey string
}

func (FileKey) isKeyType()      {}
func (SeedKey) isKeyType()      {}
func (SecretKeyKey) isKeyType() {}

// Provision builds an in-memory signer from key. Only the FileKey variant touches the
// filesystem.
func Provision(key KeyType) (*InMemorySigner, error) {
	switch k := key.(type) {
	case FileKey:
		return LoadKeyFile(k.Path)
	case SeedKey:
		if err := near.ValidateAccountID(k.AccountID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSeedDerivation, err)
		}
		return NewInMemorySigner(k.AccountID, near.SecretKeyFromSeed(k.Seed)), nil
	case SecretKeyKey:
		if err := near.ValidateAccountID(k.AccountID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSecretKeyParse, err)
		}
		sk, err := near.ParseSecretKey(k.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSecretKeyParse, err)
		}
		return NewInMemorySigner(k.AccountID, sk), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKeyType, key)
	}
}
