// Package rpc is a minimal NEAR JSON-RPC client covering the query and
// broadcast_tx_commit methods used by the DA client.
package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evstack/near-da/pkg/near"
)

// DefaultTimeout bounds a single HTTP round trip when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Method names.
const (
	MethodQuery             = "query"
	MethodBroadcastTxCommit = "broadcast_tx_commit"
)

// Config contains configuration for a NEAR RPC client.
type Config struct {
	// Address is the JSON-RPC endpoint (e.g., "https://rpc.testnet.near.org")
	Address string
	// Logger for logging
	Logger zerolog.Logger
	// Timeout for a single HTTP round trip
	Timeout time.Duration
}

// Client talks JSON-RPC 2.0 to a single NEAR node.
type Client struct {
	address    string
	logger     zerolog.Logger
	httpClient *http.Client
}

// NewClient creates a client for cfg.Address.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("rpc address cannot be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		address:    cfg.Address,
		logger:     cfg.Logger.With().Str("component", "near_rpc").Str("address", cfg.Address).Logger(),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Address returns the endpoint this client talks to.
func (c *Client) Address() string {
	return c.address
}

// Query runs a "query" call with named params.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.call(ctx, MethodQuery, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BroadcastTxCommit sends a signed transaction and waits until it is committed.
func (c *Client) BroadcastTxCommit(ctx context.Context, tx *near.SignedTransaction) (*FinalExecutionOutcome, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return nil, err
	}

	var outcome FinalExecutionOutcome
	params := []string{base64.StdEncoding.EncodeToString(raw)}
	if err := c.call(ctx, MethodBroadcastTxCommit, params, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	reqBytes, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal RPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address, bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected HTTP status %d from %s", resp.StatusCode, c.address)
		}
		return fmt.Errorf("failed to unmarshal RPC response: %w", err)
	}

	if rpcResp.Error != nil {
		c.logger.Debug().Str("method", method).Err(rpcResp.Error).Msg("rpc returned error")
		return rpcResp.Error
	}
	if len(rpcResp.Result) == 0 {
		return fmt.Errorf("empty result for %s", method)
	}

	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
	}
	return nil
}
