package near

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	primitives "github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/near/rpc"
)

// Endpoint is a single NEAR RPC node. *rpc.Client implements it.
type Endpoint interface {
	Address() string
	Query(ctx context.Context, req rpc.QueryRequest) (*rpc.QueryResponse, error)
	BroadcastTxCommit(ctx context.Context, tx *primitives.SignedTransaction) (*rpc.FinalExecutionOutcome, error)
}

var _ Endpoint = (*rpc.Client)(nil)

// executor runs requests against the primary endpoint and falls back to the archive
// endpoint exactly once.
type executor struct {
	primary Endpoint
	archive Endpoint
	logger  zerolog.Logger
	metrics *Metrics
}

// withFallback calls the primary, then the archive if the primary failed. The calls are
// sequential so a transaction is never broadcast to both endpoints at once.
func withFallback[T any](ctx context.Context, e *executor, op string, call func(context.Context, Endpoint) (T, error)) (T, error) {
	res, err := call(ctx, e.primary)
	if err == nil {
		return res, nil
	}

	e.metrics.PrimaryFailures.Add(1)
	e.metrics.ArchiveFallbacks.Add(1)
	e.logger.Debug().
		Err(err).
		Str("operation", op).
		Str("primary", e.primary.Address()).
		Str("archive", e.archive.Address()).
		Msg("primary endpoint failed, falling back to archive")

	res, err = call(ctx, e.archive)
	if err != nil {
		e.metrics.ArchiveFailures.Add(1)
		return res, fmt.Errorf("archive endpoint %s: %w", e.archive.Address(), err)
	}
	return res, nil
}

// query treats a legacy in-result error as a failure of that endpoint.
func (e *executor) query(ctx context.Context, op string, req rpc.QueryRequest) (*rpc.QueryResponse, error) {
	return withFallback(ctx, e, op, func(ctx context.Context, ep Endpoint) (*rpc.QueryResponse, error) {
		resp, err := ep.Query(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.Kind() == rpc.QueryKindError {
			return nil, &rpc.Error{Message: resp.Error}
		}
		return resp, nil
	})
}

func (e *executor) broadcastTxCommit(ctx context.Context, tx *primitives.SignedTransaction) (*rpc.FinalExecutionOutcome, error) {
	return withFallback(ctx, e, OperationSubmit, func(ctx context.Context, ep Endpoint) (*rpc.FinalExecutionOutcome, error) {
		return ep.BroadcastTxCommit(ctx, tx)
	})
}
