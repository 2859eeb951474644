package testnear

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/near/rpc"
)

// Node serves the JSON-RPC API of a Chain.
type Node struct {
	chain  *Chain
	pruned atomic.Bool

	mu       sync.Mutex
	calls    map[string]int
	failures map[string]int // method -> pending failures, "" matches any method
}

var _ http.Handler = (*Node)(nil)

// FailNext makes the next count requests fail with an HTTP 500.
func (n *Node) FailNext(count int) {
	n.FailNextMethod("", count)
}

// FailNextMethod makes the next count requests for method fail with an HTTP 500.
func (n *Node) FailNextMethod(method string, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures[method] = count
}

// SetPruned makes contract view calls fail as if the node no longer had the state.
func (n *Node) SetPruned(pruned bool) {
	n.pruned.Store(pruned)
}

// Calls returns how many requests for method the node received, failed ones included.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpc.Error      `json:"error,omitempty"`
}

// ServeHTTP implements http.Handler.
func (n *Node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, response{JSONRPC: "2.0", Error: &rpc.Error{Code: -32700, Message: "Parse error", Name: "REQUEST_VALIDATION_ERROR"}})
		return
	}

	if n.record(req.Method) {
		http.Error(w, "simulated node failure", http.StatusInternalServerError)
		return
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case rpc.MethodQuery:
		resp.Result, resp.Error = n.query(req.Params)
	case rpc.MethodBroadcastTxCommit:
		resp.Result, resp.Error = n.broadcastTxCommit(req.Params)
	default:
		resp.Error = requestError("METHOD_NOT_FOUND", fmt.Sprintf("method %s is not supported", req.Method))
	}
	if resp.Error != nil {
		n.chain.logger.Debug().Str("method", req.Method).Err(resp.Error).Msg("request rejected")
	}
	writeResponse(w, resp)
}

// record counts the call and reports whether it should fail.
func (n *Node) record(method string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[method]++
	for _, key := range []string{method, ""} {
		if n.failures[key] > 0 {
			n.failures[key]--
			return true
		}
	}
	return false
}

func (n *Node) query(params json.RawMessage) (any, *rpc.Error) {
	var q rpc.QueryRequest
	if err := json.Unmarshal(params, &q); err != nil {
		return nil, requestError("PARSE_ERROR", err.Error())
	}

	hash, height := n.chain.latest()
	if q.BlockID != nil {
		if *q.BlockID > height {
			return nil, handlerError("UNKNOWN_BLOCK", fmt.Sprintf("block %d is not known", *q.BlockID))
		}
		hash, height = blockHash(*q.BlockID), *q.BlockID
	}

	switch q.RequestType {
	case rpc.RequestViewAccessKey:
		pk, err := near.ParsePublicKey(q.PublicKey)
		if err != nil {
			return nil, requestError("PARSE_ERROR", err.Error())
		}
		n.chain.mu.Lock()
		keys, accountExists := n.chain.accessKeys[q.AccountID]
		nonce, keyExists := keys[pk]
		n.chain.mu.Unlock()
		if !accountExists {
			return nil, handlerError("UNKNOWN_ACCOUNT", fmt.Sprintf("account %s does not exist", q.AccountID))
		}
		if !keyExists {
			return nil, handlerError("UNKNOWN_ACCESS_KEY", fmt.Sprintf("access key %s does not exist", pk))
		}
		return map[string]any{
			"block_hash":   hash,
			"block_height": height,
			"nonce":        nonce,
			"permission":   "FullAccess",
		}, nil

	case rpc.RequestCallFunction:
		if n.pruned.Load() {
			return nil, handlerError("GARBAGE_COLLECTED_BLOCK", fmt.Sprintf("state at block %d is pruned", height))
		}
		if q.AccountID != n.chain.Contract() {
			return nil, handlerError("NO_CONTRACT_CODE", fmt.Sprintf("account %s has no contract", q.AccountID))
		}
		args, err := base64.StdEncoding.DecodeString(q.ArgsBase64)
		if err != nil {
			return nil, requestError("PARSE_ERROR", err.Error())
		}
		out, err := n.chain.view(q.MethodName, args, height)
		if err != nil {
			return nil, handlerError("CONTRACT_EXECUTION_ERROR", err.Error())
		}
		result, err := json.Marshal(out)
		if err != nil {
			return nil, handlerError("INTERNAL_ERROR", err.Error())
		}
		return map[string]any{
			"block_hash":   hash,
			"block_height": height,
			"result":       rpc.ByteArray(result),
			"logs":         []string{},
		}, nil

	default:
		return nil, requestError("PARSE_ERROR", fmt.Sprintf("unsupported request type %q", q.RequestType))
	}
}

func (n *Node) broadcastTxCommit(params json.RawMessage) (any, *rpc.Error) {
	var args []string
	if err := json.Unmarshal(params, &args); err != nil || len(args) != 1 {
		return nil, requestError("PARSE_ERROR", "expected [base64 signed transaction]")
	}
	raw, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return nil, requestError("PARSE_ERROR", err.Error())
	}
	tx, err := near.DecodeSignedTransaction(raw)
	if err != nil {
		return nil, requestError("PARSE_ERROR", err.Error())
	}

	height, fail, err := n.chain.applyTransaction(tx)
	if err != nil {
		return nil, handlerError("INVALID_TRANSACTION", err.Error())
	}

	txHash, _ := tx.Transaction.Hash()
	outcome := rpc.FinalExecutionOutcome{
		TransactionOutcome: json.RawMessage(fmt.Sprintf(`{"id":%q,"block_hash":%q}`, txHash, blockHash(height))),
		ReceiptsOutcome:    json.RawMessage(`[]`),
	}
	outcome.Transaction.Hash = txHash.String()
	outcome.Transaction.SignerID = tx.Transaction.SignerID
	outcome.Transaction.Nonce = tx.Transaction.Nonce

	switch {
	case n.chain.pending.Load():
		outcome.Status = rpc.ExecutionStatus{Raw: json.RawMessage(`"Started"`)}
	case fail != nil:
		outcome.Status = rpc.ExecutionStatus{Failure: fail}
	default:
		value := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%d", height)))
		outcome.Status = rpc.ExecutionStatus{SuccessValue: &value}
	}
	return outcome, nil
}

func handlerError(cause, info string) *rpc.Error {
	return &rpc.Error{
		Code:    -32000,
		Message: "Server error",
		Data:    mustJSON(info),
		Name:    "HANDLER_ERROR",
		Cause:   &rpc.ErrorCause{Name: cause, Info: mustJSON(map[string]string{"message": info})},
	}
}

func requestError(cause, info string) *rpc.Error {
	return &rpc.Error{
		Code:    -32700,
		Message: "Parse error",
		Data:    mustJSON(info),
		Name:    "REQUEST_VALIDATION_ERROR",
		Cause:   &rpc.ErrorCause{Name: cause, Info: mustJSON(map[string]string{"message": info})},
	}
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func writeResponse(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
