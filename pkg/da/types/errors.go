package datypes

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrBlobNotFound       = errors.New("blob: not found")
	ErrAccessKeyNotFound  = errors.New("access key not found")
	ErrDecode             = errors.New("failed to decode contract response")
	ErrUnexpectedResponse = errors.New("unexpected response shape")
	ErrNoBlobs            = errors.New("no blobs to submit")
	ErrTooLarge           = errors.New("submission exceeds the transaction size limit")
)

// ContractExecutionError is returned when the contract call failed on chain.
type ContractExecutionError struct {
	// Detail is the failure reported by the chain.
	Detail string
}

// Error implements error.
func (e *ContractExecutionError) Error() string {
	return fmt.Sprintf("contract execution failed: %s", e.Detail)
}

// NotReadyError is returned when a transaction finished with a status that is neither
// success nor failure. The client does not poll, so this is final.
type NotReadyError struct {
	// Status is the raw status, kept for diagnostics.
	Status string
}

// Error implements error.
func (e *NotReadyError) Error() string {
	return fmt.Sprintf("transaction not ready yet: %s", e.Status)
}
