package noop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/signer"
)

func TestNoopSigner(t *testing.T) {
	s := NewNoopSigner()

	assert.Empty(t, s.AccountID())
	assert.Equal(t, near.PublicKey{}, s.PublicKey())

	_, err := s.Sign([]byte("msg"))
	assert.ErrorIs(t, err, signer.ErrAnonymous)
}
