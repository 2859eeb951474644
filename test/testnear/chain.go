// Package testnear provides an in-memory NEAR node that hosts the blob contract. It speaks
// the JSON-RPC subset used by the DA client and verifies signed transactions.
package testnear

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	datypes "github.com/evstack/near-da/pkg/da/types"
	"github.com/evstack/near-da/pkg/near"
)

const (
	// DefaultMaxBlobSize is the default maximum blob size (4MB).
	DefaultMaxBlobSize = 4 * 1024 * 1024
)

// Chain is the state shared by every Node: blocks, access keys and the contract storage.
type Chain struct {
	mu           sync.Mutex
	contract     string
	height       uint64
	maxBlobSz    int
	blocks       map[near.CryptoHash]uint64
	accessKeys   map[string]map[near.PublicKey]uint64 // account -> key -> nonce
	blobs        map[datypes.Namespace][]datypes.HeightBlob
	byCommitment map[datypes.Commitment]datypes.HeightBlob

	submitFailure atomic.Bool
	pending       atomic.Bool

	logger zerolog.Logger
}

// Option configures a Chain instance.
type Option func(*Chain)

// WithStartHeight sets the initial block height.
func WithStartHeight(height uint64) Option {
	return func(c *Chain) {
		c.height = height
	}
}

// WithMaxBlobSize sets the maximum size of a single blob payload.
func WithMaxBlobSize(size int) Option {
	return func(c *Chain) {
		c.maxBlobSz = size
	}
}

// WithLogger sets the logger used by the chain and its nodes.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// NewChain creates a chain with the blob contract deployed at contract.
func NewChain(contract string, opts ...Option) *Chain {
	c := &Chain{
		contract:     contract,
		height:       1,
		maxBlobSz:    DefaultMaxBlobSize,
		blocks:       make(map[near.CryptoHash]uint64),
		accessKeys:   make(map[string]map[near.PublicKey]uint64),
		blobs:        make(map[datypes.Namespace][]datypes.HeightBlob),
		byCommitment: make(map[datypes.Commitment]datypes.HeightBlob),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "testnear").Logger()
	c.blocks[blockHash(c.height)] = c.height
	return c
}

// Contract returns the account the blob contract is deployed at.
func (c *Chain) Contract() string {
	return c.contract
}

// AddAccessKey registers a full access key for account with the given nonce.
func (c *Chain) AddAccessKey(account string, key near.PublicKey, nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessKeys[account] == nil {
		c.accessKeys[account] = make(map[near.PublicKey]uint64)
	}
	c.accessKeys[account][key] = nonce
}

// Nonce returns the nonce of an access key.
func (c *Chain) Nonce(account string, key near.PublicKey) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nonce, ok := c.accessKeys[account][key]
	return nonce, ok
}

// Height returns the latest block height.
func (c *Chain) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// ProduceBlock advances the chain by one empty block and returns its height.
func (c *Chain) ProduceBlock() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextBlock()
}

// Blobs returns every blob stored under namespace.
func (c *Chain) Blobs(namespace datypes.Namespace) []datypes.HeightBlob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]datypes.HeightBlob(nil), c.blobs[namespace]...)
}

// SetSubmitFailure makes the contract panic on submit.
func (c *Chain) SetSubmitFailure(shouldFail bool) {
	c.submitFailure.Store(shouldFail)
}

// SetPending makes transactions report a Started status instead of a final one.
func (c *Chain) SetPending(pending bool) {
	c.pending.Store(pending)
}

// NewNode returns an RPC endpoint over the chain. Nodes share state but have their own
// failure injection.
func (c *Chain) NewNode() *Node {
	return &Node{chain: c, calls: make(map[string]int), failures: make(map[string]int)}
}

func (c *Chain) nextBlock() uint64 {
	c.height++
	c.blocks[blockHash(c.height)] = c.height
	return c.height
}

func (c *Chain) latest() (near.CryptoHash, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return blockHash(c.height), c.height
}

// view runs a read-only contract method at height.
func (c *Chain) view(method string, args []byte, height uint64) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch method {
	case "get":
		var in struct {
			Namespace datypes.Namespace `json:"namespace"`
			Height    uint64            `json:"height"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid get args: %w", err)
		}
		if in.Height > height {
			return nil, nil
		}
		for _, hb := range c.blobs[in.Namespace] {
			if hb.Height == in.Height {
				return hb.Blob, nil
			}
		}
		return nil, nil
	case "get_all":
		var in struct {
			Namespace datypes.Namespace `json:"namespace"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid get_all args: %w", err)
		}
		out := []datypes.HeightBlob{}
		for _, hb := range c.blobs[in.Namespace] {
			if hb.Height <= height {
				out = append(out, hb)
			}
		}
		return out, nil
	case "fast_get":
		var in struct {
			Commitment datypes.Commitment `json:"commitment"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid fast_get args: %w", err)
		}
		if hb, ok := c.byCommitment[in.Commitment]; ok && hb.Height <= height {
			return hb.Blob, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("method %s not found", method)
	}
}

// applyTransaction validates tx, bumps the access key nonce and executes its action in a
// new block. A returned error rejects the transaction. A non-nil failure means the
// transaction was included but the contract call failed.
func (c *Chain) applyTransaction(tx *near.SignedTransaction) (uint64, json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := tx.Transaction
	keys, ok := c.accessKeys[t.SignerID]
	if !ok {
		return 0, nil, fmt.Errorf("signer %s does not exist", t.SignerID)
	}
	nonce, ok := keys[t.PublicKey]
	if !ok {
		return 0, nil, fmt.Errorf("access key %s of %s does not exist", t.PublicKey, t.SignerID)
	}
	if t.Nonce <= nonce {
		return 0, nil, fmt.Errorf("invalid nonce %d, must be greater than %d", t.Nonce, nonce)
	}
	if _, ok := c.blocks[t.BlockHash]; !ok {
		return 0, nil, fmt.Errorf("unknown block hash %s", t.BlockHash)
	}
	hash, err := t.Hash()
	if err != nil {
		return 0, nil, err
	}
	if !t.PublicKey.Verify(hash[:], tx.Signature) {
		return 0, nil, fmt.Errorf("invalid signature")
	}
	if t.ReceiverID != c.contract {
		return 0, nil, fmt.Errorf("receiver %s has no contract deployed", t.ReceiverID)
	}
	if len(t.Actions) != 1 || t.Actions[0].Enum != near.ActionFunctionCall {
		return 0, nil, fmt.Errorf("expected a single function call action")
	}

	keys[t.PublicKey] = t.Nonce
	height := c.nextBlock()

	call := t.Actions[0].FunctionCall
	if call.MethodName != "submit" {
		return height, failure(fmt.Sprintf("MethodResolveError: MethodNotFound %s", call.MethodName)), nil
	}
	if c.submitFailure.Load() {
		return height, failure("Smart contract panicked: simulated failure"), nil
	}

	var in struct {
		Blobs []datypes.Blob `json:"blobs"`
	}
	if err := json.Unmarshal(call.Args, &in); err != nil {
		return height, failure("Smart contract panicked: invalid submit args"), nil
	}
	for _, b := range in.Blobs {
		if len(b.Data) > c.maxBlobSz {
			return height, failure("Smart contract panicked: blob too large"), nil
		}
	}
	for _, b := range in.Blobs {
		hb := datypes.HeightBlob{Height: height, Blob: b}
		c.blobs[b.Namespace] = append(c.blobs[b.Namespace], hb)
		c.byCommitment[b.Commitment] = hb
	}

	c.logger.Debug().Uint64("height", height).Int("blobs", len(in.Blobs)).Str("signer", t.SignerID).Msg("stored blobs")
	return height, nil, nil
}

func failure(msg string) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"ActionError": map[string]any{
			"index": 0,
			"kind": map[string]any{
				"FunctionCallError": map[string]any{"ExecutionError": msg},
			},
		},
	})
	return raw
}

func blockHash(height uint64) near.CryptoHash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	return near.HashBytes(buf[:])
}
