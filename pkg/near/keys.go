package near

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// KeyType is the curve tag carried by NEAR keys and signatures.
type KeyType uint8

// KeyTypeED25519 is the only key type this client signs with.
const KeyTypeED25519 KeyType = 0

const ed25519Prefix = "ed25519:"

// ErrInvalidKey is returned when a key string cannot be decoded.
var ErrInvalidKey = errors.New("invalid key")

// PublicKey is a NEAR ed25519 public key.
type PublicKey struct {
	KeyType KeyType
	Data    [ed25519.PublicKeySize]byte
}

// ParsePublicKey decodes "ed25519:<base58>". A missing curve prefix defaults to ed25519.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := decodeKeyString(s)
	if err != nil {
		return pk, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return pk, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidKey, ed25519.PublicKeySize, len(raw))
	}
	pk.KeyType = KeyTypeED25519
	copy(pk.Data[:], raw)
	return pk, nil
}

// String returns the NEAR text form of the key.
func (pk PublicKey) String() string {
	return ed25519Prefix + base58.Encode(pk.Data[:])
}

// MarshalJSON implements json.Marshaler.
func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePublicKey(s)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// Verify reports whether sig is a valid signature of msg by pk.
func (pk PublicKey) Verify(msg []byte, sig Signature) bool {
	return ed25519.Verify(pk.Data[:], msg, sig.Data[:])
}

// SecretKey is an ed25519 private key in NEAR's 64 byte (seed || public key) layout.
type SecretKey struct {
	priv ed25519.PrivateKey
}

// ParseSecretKey decodes "ed25519:<base58 of 64 bytes>".
func ParseSecretKey(s string) (SecretKey, error) {
	raw, err := decodeKeyString(s)
	if err != nil {
		return SecretKey{}, err
	}
	if len(raw) != ed25519.PrivateKeySize {
		return SecretKey{}, fmt.Errorf("%w: secret key must be %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(raw))
	}
	return SecretKey{priv: ed25519.PrivateKey(raw)}, nil
}

// SecretKeyFromSeed derives a key deterministically from a seed string. The seed bytes
// are truncated or right-padded with spaces to 32 bytes, matching near-crypto.
func SecretKeyFromSeed(seed string) SecretKey {
	buf := []byte(strings.Repeat(" ", ed25519.SeedSize))
	copy(buf, seed)
	return SecretKey{priv: ed25519.NewKeyFromSeed(buf)}
}

// GenerateSecretKey returns a fresh random key.
func GenerateSecretKey() (SecretKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SecretKey{}, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return SecretKey{priv: priv}, nil
}

// PublicKey returns the public half of the key.
func (sk SecretKey) PublicKey() PublicKey {
	pk := PublicKey{KeyType: KeyTypeED25519}
	copy(pk.Data[:], sk.priv[ed25519.SeedSize:])
	return pk
}

// Sign signs msg with the key.
func (sk SecretKey) Sign(msg []byte) Signature {
	sig := Signature{KeyType: KeyTypeED25519}
	copy(sig.Data[:], ed25519.Sign(sk.priv, msg))
	return sig
}

// IsZero reports whether the key is unset.
func (sk SecretKey) IsZero() bool {
	return len(sk.priv) == 0
}

// String returns the NEAR text form of the key.
func (sk SecretKey) String() string {
	return ed25519Prefix + base58.Encode(sk.priv)
}

// Signature is a NEAR ed25519 signature.
type Signature struct {
	KeyType KeyType
	Data    [ed25519.SignatureSize]byte
}

// String returns the NEAR text form of the signature.
func (s Signature) String() string {
	return ed25519Prefix + base58.Encode(s.Data[:])
}

func decodeKeyString(s string) ([]byte, error) {
	body := s
	if curve, rest, ok := strings.Cut(s, ":"); ok {
		if curve != strings.TrimSuffix(ed25519Prefix, ":") {
			return nil, fmt.Errorf("%w: unsupported curve %q", ErrInvalidKey, curve)
		}
		body = rest
	}
	if body == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	raw, err := base58.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return raw, nil
}
