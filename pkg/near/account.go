// Package near contains the NEAR protocol primitives needed to talk to the
// blob contract: account ids, keys, hashes and borsh-encoded transactions.
package near

import (
	"errors"
	"fmt"
)

const (
	// MinAccountIDLen is the shortest valid account id.
	MinAccountIDLen = 2
	// MaxAccountIDLen is the longest valid account id.
	MaxAccountIDLen = 64
)

// ErrInvalidAccountID is returned when an account id does not follow the NEAR naming rules.
var ErrInvalidAccountID = errors.New("invalid account id")

// ValidateAccountID checks id against the NEAR account id rules: 2 to 64 characters of
// lowercase alphanumerics, separated by single '-', '_' or '.' characters.
func ValidateAccountID(id string) error {
	if len(id) < MinAccountIDLen || len(id) > MaxAccountIDLen {
		return fmt.Errorf("%w: %q has length %d, want %d-%d", ErrInvalidAccountID, id, len(id), MinAccountIDLen, MaxAccountIDLen)
	}

	prevSeparator := true // a leading separator is invalid
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSeparator = false
		case c == '-' || c == '_' || c == '.':
			if prevSeparator {
				return fmt.Errorf("%w: %q has a misplaced separator at %d", ErrInvalidAccountID, id, i)
			}
			prevSeparator = true
		default:
			return fmt.Errorf("%w: %q contains invalid character %q", ErrInvalidAccountID, id, c)
		}
	}
	if prevSeparator {
		return fmt.Errorf("%w: %q ends with a separator", ErrInvalidAccountID, id)
	}
	return nil
}
