package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/evstack/near-da/pkg/near"
)

// Query request types understood by the NEAR "query" method.
const (
	RequestViewAccessKey = "view_access_key"
	RequestCallFunction  = "call_function"
)

// FinalityFinal selects the latest final block.
const FinalityFinal = "final"

// BlockReference selects the chain state a query observes: either the latest final block
// or an explicit height.
type BlockReference struct {
	Finality string  `json:"finality,omitempty"`
	BlockID  *uint64 `json:"block_id,omitempty"`
}

// Latest references the latest final block.
func Latest() BlockReference {
	return BlockReference{Finality: FinalityFinal}
}

// AtHeight references the block at height.
func AtHeight(height uint64) BlockReference {
	return BlockReference{BlockID: &height}
}

// QueryRequest holds the named params of a "query" call.
type QueryRequest struct {
	BlockReference
	RequestType string `json:"request_type"`
	AccountID   string `json:"account_id"`
	PublicKey   string `json:"public_key,omitempty"`
	MethodName  string `json:"method_name,omitempty"`
	ArgsBase64  string `json:"args_base64,omitempty"`
}

// ViewAccessKey builds an access key lookup at the latest final block.
func ViewAccessKey(accountID string, publicKey near.PublicKey) QueryRequest {
	return QueryRequest{
		BlockReference: Latest(),
		RequestType:    RequestViewAccessKey,
		AccountID:      accountID,
		PublicKey:      publicKey.String(),
	}
}

// QueryKind identifies which view a query response carries.
type QueryKind int

const (
	// QueryKindUnknown is any response shape this client does not understand.
	QueryKindUnknown QueryKind = iota
	// QueryKindAccessKey is a view_access_key result.
	QueryKindAccessKey
	// QueryKindCallResult is a call_function result.
	QueryKindCallResult
	// QueryKindError is a legacy result that carries an "error" string instead of a view.
	QueryKindError
)

// QueryResponse is the union of the query views used by this client.
type QueryResponse struct {
	BlockHash   near.CryptoHash `json:"block_hash"`
	BlockHeight uint64          `json:"block_height"`

	Nonce      *uint64         `json:"nonce,omitempty"`
	Permission json.RawMessage `json:"permission,omitempty"`

	Result *ByteArray `json:"result,omitempty"`
	Logs   []string   `json:"logs,omitempty"`

	Error string `json:"error,omitempty"`
}

// Kind reports which view the response carries.
func (r *QueryResponse) Kind() QueryKind {
	switch {
	case r.Error != "":
		return QueryKindError
	case r.Nonce != nil && len(r.Permission) > 0:
		return QueryKindAccessKey
	case r.Result != nil:
		return QueryKindCallResult
	default:
		return QueryKindUnknown
	}
}

// ByteArray is a byte slice carried as a JSON array of numbers.
type ByteArray []byte

// MarshalJSON implements json.Marshaler.
func (b ByteArray) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte value %d out of range at index %d", v, i)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// FinalExecutionOutcome is the result of broadcast_tx_commit.
type FinalExecutionOutcome struct {
	Status      ExecutionStatus `json:"status"`
	Transaction struct {
		Hash     string `json:"hash"`
		SignerID string `json:"signer_id"`
		Nonce    uint64 `json:"nonce"`
	} `json:"transaction"`
	TransactionOutcome json.RawMessage `json:"transaction_outcome,omitempty"`
	ReceiptsOutcome    json.RawMessage `json:"receipts_outcome,omitempty"`
}

// ExecutionStatus is the final status of a transaction. NEAR encodes it either as a bare
// string ("NotStarted", "Started") or as a single-key object.
type ExecutionStatus struct {
	// Raw is the status exactly as received.
	Raw json.RawMessage
	// SuccessValue is the base64 return value, set when the status is SuccessValue.
	SuccessValue *string
	// Failure is the failure detail, set when the status is Failure.
	Failure json.RawMessage
}

// MarshalJSON implements json.Marshaler.
func (s ExecutionStatus) MarshalJSON() ([]byte, error) {
	switch {
	case s.SuccessValue != nil:
		return json.Marshal(map[string]string{"SuccessValue": *s.SuccessValue})
	case s.Failure != nil:
		return json.Marshal(map[string]json.RawMessage{"Failure": s.Failure})
	case len(s.Raw) > 0:
		return s.Raw, nil
	default:
		return []byte(`"NotStarted"`), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	*s = ExecutionStatus{Raw: bytes.Clone(data)}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		// unit variants are plain strings
		return nil
	}
	if v, ok := obj["SuccessValue"]; ok {
		var b64 string
		if err := json.Unmarshal(v, &b64); err != nil {
			return fmt.Errorf("invalid SuccessValue: %w", err)
		}
		s.SuccessValue = &b64
	}
	if v, ok := obj["Failure"]; ok {
		s.Failure = v
	}
	return nil
}

// String returns the raw status for diagnostics.
func (s ExecutionStatus) String() string {
	return string(s.Raw)
}

// Error is a JSON-RPC level error returned by a NEAR node.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Name    string          `json:"name,omitempty"`
	Cause   *ErrorCause     `json:"cause,omitempty"`
}

// ErrorCause is the structured cause attached to handler errors.
type ErrorCause struct {
	Name string          `json:"name"`
	Info json.RawMessage `json:"info,omitempty"`
}

// Error implements error.
func (e *Error) Error() string {
	msg := fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
	if e.Cause != nil && e.Cause.Name != "" {
		msg += ": " + e.Cause.Name
	}
	if len(e.Data) > 0 {
		msg += ": " + string(e.Data)
	}
	return msg
}

// CauseName returns the structured cause name, or "" when absent.
func (e *Error) CauseName() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Name
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}
