package near

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	datypes "github.com/evstack/near-da/pkg/da/types"
	"github.com/evstack/near-da/pkg/near/rpc"
)

// classifyOutcome maps the final status of a transaction to its decoded return value.
func classifyOutcome[T any](outcome *rpc.FinalExecutionOutcome) (T, error) {
	var v T
	status := outcome.Status

	switch {
	case status.Failure != nil:
		return v, &datypes.ContractExecutionError{Detail: string(status.Failure)}
	case status.SuccessValue != nil:
		raw, err := base64.StdEncoding.DecodeString(*status.SuccessValue)
		if err != nil {
			return v, fmt.Errorf("%w: success value is not base64: %w", datypes.ErrDecode, err)
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return v, fmt.Errorf("%w: %q: %w", datypes.ErrDecode, raw, err)
		}
		return v, nil
	default:
		return v, &datypes.NotReadyError{Status: status.String()}
	}
}

// classifyView decodes the result of a call_function query. Anything but a call result is
// an unexpected shape.
func classifyView[T any](resp *rpc.QueryResponse) (T, error) {
	var v T

	switch resp.Kind() {
	case rpc.QueryKindCallResult:
	case rpc.QueryKindError:
		return v, fmt.Errorf("%w: %s", datypes.ErrUnexpectedResponse, resp.Error)
	default:
		return v, fmt.Errorf("%w: query returned no call result", datypes.ErrUnexpectedResponse)
	}

	if err := json.Unmarshal(*resp.Result, &v); err != nil {
		return v, fmt.Errorf("%w: %w", datypes.ErrDecode, err)
	}
	return v, nil
}
