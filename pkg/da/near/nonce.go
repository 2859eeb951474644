package near

import (
	"context"
	"errors"
	"fmt"

	datypes "github.com/evstack/near-da/pkg/da/types"
	primitives "github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/near/rpc"
)

// RPC error causes that mean the access key does not exist.
const (
	causeUnknownAccessKey = "UNKNOWN_ACCESS_KEY"
	causeUnknownAccount   = "UNKNOWN_ACCOUNT"
)

// currentNonce returns the latest final block hash and the nonce of the signer's access key.
// It only asks the primary endpoint: access key state must be current.
func (c *Client) currentNonce(ctx context.Context) (primitives.CryptoHash, uint64, error) {
	req := rpc.ViewAccessKey(c.signer.AccountID(), c.signer.PublicKey())

	resp, err := c.exec.primary.Query(ctx, req)
	if err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			switch rpcErr.CauseName() {
			case causeUnknownAccessKey, causeUnknownAccount:
				return primitives.CryptoHash{}, 0, fmt.Errorf("%w: %s for %s: %w",
					datypes.ErrAccessKeyNotFound, req.PublicKey, req.AccountID, err)
			}
		}
		c.metrics.PrimaryFailures.Add(1)
		return primitives.CryptoHash{}, 0, fmt.Errorf("failed to query access key: %w", err)
	}

	switch resp.Kind() {
	case rpc.QueryKindAccessKey:
		return resp.BlockHash, *resp.Nonce, nil
	case rpc.QueryKindError:
		return primitives.CryptoHash{}, 0, fmt.Errorf("%w: %s", datypes.ErrAccessKeyNotFound, resp.Error)
	default:
		return primitives.CryptoHash{}, 0, fmt.Errorf("%w: access key query returned no access key", datypes.ErrUnexpectedResponse)
	}
}
