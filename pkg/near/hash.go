package near

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// CryptoHash is a sha256 digest, rendered as base58 on the wire.
type CryptoHash [sha256.Size]byte

// HashBytes returns the sha256 CryptoHash of b.
func HashBytes(b []byte) CryptoHash {
	return sha256.Sum256(b)
}

// ParseCryptoHash decodes a base58 encoded hash.
func ParseCryptoHash(s string) (CryptoHash, error) {
	var h CryptoHash
	raw, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("invalid base58 hash %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("invalid hash length: expected %d, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// String returns the base58 encoding of the hash.
func (h CryptoHash) String() string {
	return base58.Encode(h[:])
}

// MarshalJSON implements json.Marshaler.
func (h CryptoHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *CryptoHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCryptoHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
