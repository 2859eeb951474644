// Package blob builds blobs ready for submission and computes their commitments.
package blob

import (
	"fmt"

	"github.com/celestiaorg/go-square/merkle"

	datypes "github.com/evstack/near-da/pkg/da/types"
)

// ChunkSize is the leaf size used when computing a commitment.
const ChunkSize = 256

const (
	// MaxTransactionSize is the largest serialized transaction a NEAR node accepts.
	MaxTransactionSize  = 4 * 1_048_576
	// TransactionOverhead bounds everything in a submit transaction except its JSON args.
	TransactionOverhead = 4 * 1024
	// MaxSubmitArgsSize is the largest JSON argument a submit transaction can carry.
	MaxSubmitArgsSize   = MaxTransactionSize - TransactionOverhead

	// DefaultMaxBlobSize caps the payload accepted by NewBlobV0. Contract args carry data as
	// a JSON number array of up to four bytes per payload byte, so one blob of this size
	// stays under MaxSubmitArgsSize.
	DefaultMaxBlobSize = 1_000_000
)

// ErrBlobTooLarge is returned when data exceeds DefaultMaxBlobSize.
var ErrBlobTooLarge = fmt.Errorf("blob exceeds %d bytes", DefaultMaxBlobSize)

// NewBlobV0 builds a share version 0 blob and fills in its commitment.
func NewBlobV0(namespace datypes.Namespace, data []byte) (datypes.Blob, error) {
	if len(data) > DefaultMaxBlobSize {
		return datypes.Blob{}, ErrBlobTooLarge
	}
	return datypes.Blob{
		Namespace:    namespace,
		ShareVersion: datypes.ShareVersionZero,
		Commitment:   ComputeCommitment(namespace, data),
		Data:         append(datypes.Bytes(nil), data...),
	}, nil
}

// ComputeCommitment returns the merkle root over the namespace header and the data split into
// ChunkSize leaves. Equal data under different namespaces yields different commitments.
func ComputeCommitment(namespace datypes.Namespace, data []byte) datypes.Commitment {
	leaves := make([][]byte, 0, 1+(len(data)+ChunkSize-1)/ChunkSize)
	leaves = append(leaves, namespaceLeaf(namespace))
	for start := 0; start < len(data); start += ChunkSize {
		end := min(start+ChunkSize, len(data))
		leaves = append(leaves, data[start:end])
	}

	var c datypes.Commitment
	copy(c[:], merkle.HashFromByteSlices(leaves))
	return c
}

// Verify reports whether b carries the commitment of its own contents.
func Verify(b datypes.Blob) bool {
	return ComputeCommitment(b.Namespace, b.Data) == b.Commitment
}

func namespaceLeaf(ns datypes.Namespace) []byte {
	leaf := make([]byte, 5)
	leaf[0] = ns.Version
	leaf[1] = byte(ns.ID >> 24)
	leaf[2] = byte(ns.ID >> 16)
	leaf[3] = byte(ns.ID >> 8)
	leaf[4] = byte(ns.ID)
	return leaf
}

