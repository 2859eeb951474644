// Package datypes holds the DA domain types shared by the NEAR blob client,
// the HTTP sidecar and the test emulator.
package datypes

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// DataAvailability is the client-facing surface of the blob contract.
type DataAvailability interface {
	// Submit submits blobs and returns the height at which they were included.
	Submit(ctx context.Context, blobs []Blob) (SubmitResult, error)

	// Get returns the blob stored under namespace at height.
	Get(ctx context.Context, namespace Namespace, height uint64) (Read, error)

	// GetAll returns every blob stored under namespace, ordered by height.
	GetAll(ctx context.Context, namespace Namespace) (ReadAll, error)

	// FastGet returns the blob with the given commitment.
	FastGet(ctx context.Context, commitment Commitment) (IndexRead, error)
}

// CommitmentSize is the size of a blob commitment in bytes.
const CommitmentSize = 32

// Commitment is a content-derived blob identifier. It is a fixed size array, so it travels
// as a JSON array of numbers.
type Commitment [CommitmentSize]byte

// String returns the hex encoding of the commitment.
func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// ParseCommitment parses a hex string (with or without 0x) into a commitment.
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return c, fmt.Errorf("invalid hex string: %w", err)
	}
	if len(raw) != CommitmentSize {
		return c, fmt.Errorf("invalid commitment size: expected %d, got %d", CommitmentSize, len(raw))
	}
	copy(c[:], raw)
	return c, nil
}

// Bytes is blob payload data carried as a JSON array of numbers, the way the contract
// serializes Vec<u8>.
type Bytes []byte

// MarshalJSON implements json.Marshaler.
func (b Bytes) MarshalJSON() ([]byte, error) {
	ints := make([]uint16, len(b))
	for i, v := range b {
		ints[i] = uint16(v)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	var ints []uint16
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v > 0xff {
			return fmt.Errorf("byte value %d out of range at index %d", v, i)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// ShareVersionZero is the only blob share version in use.
const ShareVersionZero uint32 = 0

// Blob is an opaque payload stored by the contract. Its identity is its commitment.
type Blob struct {
	Namespace    Namespace  `json:"namespace"`
	ShareVersion uint32     `json:"share_version"`
	Commitment   Commitment `json:"commitment"`
	Data         Bytes      `json:"data"`
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	// Height is the block height at which the submission was finalized.
	Height uint64
}

// Read wraps a blob retrieved by namespace and height.
type Read struct {
	Blob Blob
}

// IndexRead wraps a blob retrieved by commitment.
type IndexRead struct {
	Blob Blob
}

// HeightBlob pairs a blob with the height it was stored at. On the wire it is the
// two element tuple [height, blob].
type HeightBlob struct {
	Height uint64
	Blob   Blob
}

// MarshalJSON implements json.Marshaler.
func (hb HeightBlob) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{hb.Height, hb.Blob})
}

// UnmarshalJSON implements json.Unmarshaler.
func (hb *HeightBlob) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("expected [height, blob] tuple, got %d elements", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &hb.Height); err != nil {
		return fmt.Errorf("invalid height: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &hb.Blob); err != nil {
		return fmt.Errorf("invalid blob: %w", err)
	}
	return nil
}

// ReadAll is every blob of a namespace, in the order the contract returned them.
type ReadAll struct {
	Blobs []HeightBlob
}
