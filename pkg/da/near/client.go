// Package near implements the DA client for the NEAR blob contract: it signs submit
// transactions and runs view calls against a primary and an archive RPC endpoint.
package near

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/evstack/near-da/pkg/da/blob"
	datypes "github.com/evstack/near-da/pkg/da/types"
	primitives "github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/near/rpc"
	"github.com/evstack/near-da/pkg/signer"
	"github.com/evstack/near-da/pkg/signer/noop"
)

// Contract methods.
const (
	MethodSubmit  = "submit"
	MethodGet     = "get"
	MethodGetAll  = "get_all"
	MethodFastGet = "fast_get"
)

// Network is a resolved pair of RPC endpoints.
type Network struct {
	// Primary serves every request first.
	Primary string
	// Archive is tried once when the primary fails. Defaults to Primary.
	Archive string
}

// Config contains configuration for the NEAR DA client.
type Config struct {
	Network  Network
	Contract string
	// Key selects the signing key. A nil Key builds a read-only client.
	Key signer.KeyType

	Logger  zerolog.Logger
	Metrics *Metrics
	// Timeout bounds a single RPC round trip.
	Timeout time.Duration
}

// Client is the DataAvailability implementation backed by the NEAR blob contract.
// It is safe for concurrent use.
type Client struct {
	contract string
	signer   signer.Signer
	exec     *executor
	block    rpc.BlockReference
	logger   zerolog.Logger
	metrics  *Metrics
}

var _ datypes.DataAvailability = (*Client)(nil)

// NewClient provisions the signer and connects to both endpoints of cfg.Network.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Network.Primary == "" {
		return nil, errors.New("primary rpc address cannot be empty")
	}
	if cfg.Network.Archive == "" {
		cfg.Network.Archive = cfg.Network.Primary
	}

	primary, err := rpc.NewClient(rpc.Config{Address: cfg.Network.Primary, Logger: cfg.Logger, Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create primary rpc client: %w", err)
	}
	archive, err := rpc.NewClient(rpc.Config{Address: cfg.Network.Archive, Logger: cfg.Logger, Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive rpc client: %w", err)
	}

	return newClient(cfg, primary, archive)
}

func newClient(cfg Config, primary, archive Endpoint) (*Client, error) {
	if err := primitives.ValidateAccountID(cfg.Contract); err != nil {
		return nil, fmt.Errorf("invalid contract: %w", err)
	}

	var s signer.Signer = noop.NewNoopSigner()
	if cfg.Key != nil {
		provisioned, err := signer.Provision(cfg.Key)
		if err != nil {
			return nil, err
		}
		s = provisioned
	}

	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics()
	}
	logger := cfg.Logger.With().Str("component", "near_da_client").Str("contract", cfg.Contract).Logger()

	return &Client{
		contract: cfg.Contract,
		signer:   s,
		exec: &executor{
			primary: primary,
			archive: archive,
			logger:  logger,
			metrics: cfg.Metrics,
		},
		block:   rpc.Latest(),
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// ViewAt returns a client whose view calls read the state at height. The receiver is left
// untouched. Submissions are unaffected.
func (c *Client) ViewAt(height uint64) *Client {
	cp := *c
	cp.block = rpc.AtHeight(height)
	return &cp
}

// Signer returns the signer submissions are made with.
func (c *Client) Signer() signer.Signer {
	return c.signer
}

type submitArgs struct {
	Blobs []datypes.Blob `json:"blobs"`
}

type getArgs struct {
	Namespace datypes.Namespace `json:"namespace"`
	Height    uint64            `json:"height"`
}

type getAllArgs struct {
	Namespace datypes.Namespace `json:"namespace"`
}

type fastGetArgs struct {
	Commitment datypes.Commitment `json:"commitment"`
}

// Submit stores blobs on chain and returns the height they were included at.
func (c *Client) Submit(ctx context.Context, blobs []datypes.Blob) (datypes.SubmitResult, error) {
	if len(blobs) == 0 {
		return datypes.SubmitResult{}, datypes.ErrNoBlobs
	}
	if c.signer.AccountID() == "" {
		return datypes.SubmitResult{}, fmt.Errorf("submit: %w", signer.ErrAnonymous)
	}
	defer c.observe(OperationSubmit, time.Now())

	args, err := json.Marshal(submitArgs{Blobs: blobs})
	if err != nil {
		return datypes.SubmitResult{}, fmt.Errorf("failed to encode submit args: %w", err)
	}
	if len(args) > blob.MaxSubmitArgsSize {
		return datypes.SubmitResult{}, fmt.Errorf("%w: %d blobs encode to %d bytes of args, limit %d",
			datypes.ErrTooLarge, len(blobs), len(args), blob.MaxSubmitArgsSize)
	}

	blockHash, nonce, err := c.currentNonce(ctx)
	if err != nil {
		return datypes.SubmitResult{}, err
	}

	tx, err := buildFunctionCallTransaction(c.signer, c.contract, blockHash, nonce, functionCall(MethodSubmit, args))
	if err != nil {
		return datypes.SubmitResult{}, err
	}

	outcome, err := c.exec.broadcastTxCommit(ctx, tx)
	if err != nil {
		return datypes.SubmitResult{}, fmt.Errorf("failed to broadcast submit transaction: %w", err)
	}

	height, err := classifyOutcome[uint64](outcome)
	if err != nil {
		var execErr *datypes.ContractExecutionError
		if errors.As(err, &execErr) {
			c.logger.Error().Str("detail", execErr.Detail).Uint64("nonce", tx.Transaction.Nonce).Msg("submit transaction failed")
		}
		return datypes.SubmitResult{}, err
	}

	c.metrics.SubmittedBlobs.Add(float64(len(blobs)))
	c.logger.Debug().Uint64("height", height).Int("blobs", len(blobs)).Msg("blobs submitted")
	return datypes.SubmitResult{Height: height}, nil
}

// Get returns the blob stored under namespace at height.
func (c *Client) Get(ctx context.Context, namespace datypes.Namespace, height uint64) (datypes.Read, error) {
	defer c.observe(OperationGet, time.Now())

	b, err := view[*datypes.Blob](ctx, c, MethodGet, getArgs{Namespace: namespace, Height: height})
	if err != nil {
		return datypes.Read{}, err
	}
	if b == nil {
		c.metrics.NotFound.Add(1)
		return datypes.Read{}, fmt.Errorf("namespace %s at height %d: %w", namespace, height, datypes.ErrBlobNotFound)
	}
	return datypes.Read{Blob: *b}, nil
}

// GetAll returns every blob of namespace in the order the contract returned them.
func (c *Client) GetAll(ctx context.Context, namespace datypes.Namespace) (datypes.ReadAll, error) {
	defer c.observe(OperationGetAll, time.Now())

	blobs, err := view[[]datypes.HeightBlob](ctx, c, MethodGetAll, getAllArgs{Namespace: namespace})
	if err != nil {
		return datypes.ReadAll{}, err
	}
	c.logger.Debug().Str("namespace", namespace.String()).Int("blobs", len(blobs)).Msg("retrieved blobs")
	return datypes.ReadAll{Blobs: blobs}, nil
}

// FastGet returns the blob with the given commitment.
func (c *Client) FastGet(ctx context.Context, commitment datypes.Commitment) (datypes.IndexRead, error) {
	defer c.observe(OperationFastGet, time.Now())

	b, err := view[*datypes.Blob](ctx, c, MethodFastGet, fastGetArgs{Commitment: commitment})
	if err != nil {
		return datypes.IndexRead{}, err
	}
	if b == nil {
		c.metrics.NotFound.Add(1)
		return datypes.IndexRead{}, fmt.Errorf("commitment %s: %w", commitment, datypes.ErrBlobNotFound)
	}
	return datypes.IndexRead{Blob: *b}, nil
}

// view runs a call_function query through the executor and decodes the result as T.
func view[T any](ctx context.Context, c *Client, method string, args any) (T, error) {
	var zero T
	req, err := buildViewCall(c.contract, c.block, method, args)
	if err != nil {
		return zero, err
	}

	resp, err := c.exec.query(ctx, method, req)
	if err != nil {
		return zero, fmt.Errorf("%s view call failed: %w", method, err)
	}
	return classifyView[T](resp)
}

func (c *Client) observe(op string, start time.Time) {
	c.metrics.observeDuration(op, time.Since(start).Seconds())
}
