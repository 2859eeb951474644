// Package signer provisions the key a NEAR transaction is signed with.
package signer

import (
	"errors"

	"github.com/evstack/near-da/pkg/near"
)

// Errors returned while provisioning a signer.
var (
	ErrKeyLoad        = errors.New("failed to load key file")
	ErrSeedDerivation = errors.New("failed to derive key from seed")
	ErrSecretKeyParse = errors.New("failed to parse secret key")
	ErrAnonymous      = errors.New("signer is anonymous")
	ErrUnknownKeyType = errors.New("unknown key type")
)

// Signer is an interface for signing NEAR transactions.
type Signer interface {
	// AccountID returns the account the signer acts for.
	AccountID() string

	// PublicKey returns the access key the signer signs with.
	PublicKey() near.PublicKey

	// Sign takes a message as bytes and returns its signature.
	Sign(message []byte) (near.Signature, error)
}

// InMemorySigner holds an account id and its secret key in memory.
type InMemorySigner struct {
	accountID string
	secretKey near.SecretKey
	publicKey near.PublicKey
}

var _ Signer = (*InMemorySigner)(nil)

// NewInMemorySigner builds a signer for accountID from secretKey.
func NewInMemorySigner(accountID string, secretKey near.SecretKey) *InMemorySigner {
	return &InMemorySigner{
		accountID: accountID,
		secretKey: secretKey,
		publicKey: secretKey.PublicKey(),
	}
}

// AccountID implements Signer.
func (s *InMemorySigner) AccountID() string {
	return s.accountID
}

// PublicKey implements Signer.
func (s *InMemorySigner) PublicKey() near.PublicKey {
	return s.publicKey
}

// Sign implements Signer.
func (s *InMemorySigner) Sign(message []byte) (near.Signature, error) {
	return s.secretKey.Sign(message), nil
}

// SecretKey returns the key backing the signer.
func (s *InMemorySigner) SecretKey() near.SecretKey {
	return s.secretKey
}
