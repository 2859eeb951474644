// Package noop provides the anonymous signer used by read-only clients.
package noop

import (
	"github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/signer"
)

// Signer has no account and refuses to sign.
type Signer struct{}

var _ signer.Signer = Signer{}

// NewNoopSigner returns an anonymous signer.
func NewNoopSigner() Signer {
	return Signer{}
}

// AccountID implements signer.Signer.
func (Signer) AccountID() string { return "" }

// PublicKey implements signer.Signer.
func (Signer) PublicKey() near.PublicKey { return near.PublicKey{} }

// Sign implements signer.Signer.
func (Signer) Sign([]byte) (near.Signature, error) {
	return near.Signature{}, signer.ErrAnonymous
}
