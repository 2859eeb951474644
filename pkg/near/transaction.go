package near

import (
	"encoding/binary"
	"fmt"

	"github.com/near/borsh-go"
)

// Gas is an amount of NEAR gas units.
type Gas = uint64

// MaxGas is the per-transaction prepaid gas ceiling (300 Tgas).
const MaxGas Gas = 300_000_000_000_000

// Balance is a u128 amount of yoctoNEAR in little-endian byte order.
type Balance [16]byte

// NewBalance returns a Balance holding v.
func NewBalance(v uint64) Balance {
	var b Balance
	binary.LittleEndian.PutUint64(b[:8], v)
	return b
}

// IsZero reports whether the balance is zero.
func (b Balance) IsZero() bool {
	return b == Balance{}
}

// Action variant indices, in protocol order.
const (
	ActionCreateAccount borsh.Enum = iota
	ActionDeployContract
	ActionFunctionCall
)

// CreateAccount is the (empty) create-account action.
type CreateAccount struct{}

// DeployContract deploys wasm code to the receiver account.
type DeployContract struct {
	Code []byte
}

// FunctionCall invokes a contract method.
type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        Gas
	Deposit    Balance
}

// Action is the borsh enum of transaction actions. Variants after FunctionCall are never
// built by this client and are left out.
type Action struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  CreateAccount
	DeployContract DeployContract
	FunctionCall   FunctionCall
}

// NewFunctionCallAction wraps fc into an Action.
func NewFunctionCallAction(fc FunctionCall) Action {
	return Action{Enum: ActionFunctionCall, FunctionCall: fc}
}

// Transaction is an unsigned NEAR transaction.
type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  CryptoHash
	Actions    []Action
}

// Hash returns the sha256 of the borsh-encoded transaction. This is the message that
// gets signed.
func (tx *Transaction) Hash() (CryptoHash, error) {
	raw, err := borsh.Serialize(*tx)
	if err != nil {
		return CryptoHash{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return HashBytes(raw), nil
}

// SignedTransaction is a transaction together with its signature.
type SignedTransaction struct {
	Transaction Transaction
	Signature   Signature
}

// Serialize returns the borsh encoding of the signed transaction.
func (st *SignedTransaction) Serialize() ([]byte, error) {
	raw, err := borsh.Serialize(*st)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize signed transaction: %w", err)
	}
	return raw, nil
}

// DecodeSignedTransaction parses a borsh-encoded signed transaction.
func DecodeSignedTransaction(raw []byte) (*SignedTransaction, error) {
	var st SignedTransaction
	if err := borsh.Deserialize(&st, raw); err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	return &st, nil
}
