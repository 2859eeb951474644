package near

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	primitives "github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/near/rpc"
	"github.com/evstack/near-da/pkg/signer"
)

// functionCall returns the action every DA transaction carries: max gas, zero deposit.
func functionCall(method string, args []byte) primitives.FunctionCall {
	return primitives.FunctionCall{
		MethodName: method,
		Args:       args,
		Gas:        primitives.MaxGas,
		Deposit:    primitives.NewBalance(0),
	}
}

// buildFunctionCallTransaction signs a transaction with nonce currentNonce+1, bound to
// blockHash, that carries action as its only action.
func buildFunctionCallTransaction(
	s signer.Signer,
	contract string,
	blockHash primitives.CryptoHash,
	currentNonce uint64,
	action primitives.FunctionCall,
) (*primitives.SignedTransaction, error) {
	tx := primitives.Transaction{
		SignerID:   s.AccountID(),
		PublicKey:  s.PublicKey(),
		Nonce:      currentNonce + 1,
		ReceiverID: contract,
		BlockHash:  blockHash,
		Actions:    []primitives.Action{primitives.NewFunctionCallAction(action)},
	}

	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig, err := s.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return &primitives.SignedTransaction{Transaction: tx, Signature: sig}, nil
}

// buildViewCall builds a call_function query with JSON encoded args.
func buildViewCall(contract string, block rpc.BlockReference, method string, args any) (rpc.QueryRequest, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return rpc.QueryRequest{}, fmt.Errorf("failed to encode %s args: %w", method, err)
	}
	return rpc.QueryRequest{
		BlockReference: block,
		RequestType:    rpc.RequestCallFunction,
		AccountID:      contract,
		MethodName:     method,
		ArgsBase64:     base64.StdEncoding.EncodeToString(raw),
	}, nil
}
