package near

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	datypes "github.com/evstack/near-da/pkg/da/types"
	"github.com/evstack/near-da/pkg/near/rpc"
)

func outcomeFrom(t *testing.T, status string) *rpc.FinalExecutionOutcome {
	t.Helper()
	var outcome rpc.FinalExecutionOutcome
	require.NoError(t, json.Unmarshal([]byte(`{"status":`+status+`}`), &outcome))
	return &outcome
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestClassifyOutcome(t *testing.T) {
	t.Run("success value decodes", func(t *testing.T) {
		height, err := classifyOutcome[uint64](outcomeFrom(t, `{"SuccessValue":"`+b64("42")+`"}`))
		require.NoError(t, err)
		assert.Equal(t, uint64(42), height)
	})

	t.Run("failure carries detail", func(t *testing.T) {
		detail := `{"ActionError":{"index":0,"kind":{"FunctionCallError":{"ExecutionError":"Smart contract panicked"}}}}`
		_, err := classifyOutcome[uint64](outcomeFrom(t, `{"Failure":`+detail+`}`))

		var execErr *datypes.ContractExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.JSONEq(t, detail, execErr.Detail)
		assert.Contains(t, err.Error(), "Smart contract panicked")
	})

	decodeFailures := map[string]string{
		"empty success value": `{"SuccessValue":""}`,
		"wrong type":          `{"SuccessValue":"` + b64(`"forty-two"`) + `"}`,
		"not base64":          `{"SuccessValue":"%%%"}`,
	}
	for name, status := range decodeFailures {
		t.Run(name, func(t *testing.T) {
			_, err := classifyOutcome[uint64](outcomeFrom(t, status))
			assert.ErrorIs(t, err, datypes.ErrDecode)
		})
	}

	notReady := map[string]string{
		"not started":    `"NotStarted"`,
		"started":        `"Started"`,
		"unknown object": `{"Pending":null}`,
	}
	for name, status := range notReady {
		t.Run(name, func(t *testing.T) {
			_, err := classifyOutcome[uint64](outcomeFrom(t, status))

			var notReadyErr *datypes.NotReadyError
			require.True(t, errors.As(err, &notReadyErr))
			assert.Equal(t, status, notReadyErr.Status)
		})
	}
}

func TestClassifyView(t *testing.T) {
	result := func(s string) *rpc.QueryResponse {
		b := rpc.ByteArray(s)
		return &rpc.QueryResponse{Result: &b}
	}

	t.Run("blob", func(t *testing.T) {
		blob, err := classifyView[*datypes.Blob](result(`{"namespace":{"version":0,"id":1},"share_version":0,"commitment":[` +
			`1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],"data":[7,8]}`))
		require.NoError(t, err)
		require.NotNil(t, blob)
		assert.Equal(t, datypes.Bytes{7, 8}, blob.Data)
		assert.Equal(t, datypes.Commitment{1}, blob.Commitment)
	})

	t.Run("null blob is not an error", func(t *testing.T) {
		blob, err := classifyView[*datypes.Blob](result(`null`))
		require.NoError(t, err)
		assert.Nil(t, blob)
	})

	t.Run("tuple list", func(t *testing.T) {
		blobs, err := classifyView[[]datypes.HeightBlob](result(`[]`))
		require.NoError(t, err)
		assert.Empty(t, blobs)
	})

	t.Run("decode failure", func(t *testing.T) {
		_, err := classifyView[*datypes.Blob](result(`{"namespace":"ns1"}`))
		assert.ErrorIs(t, err, datypes.ErrDecode)
	})

	nonce := uint64(1)
	shapes := map[string]*rpc.QueryResponse{
		"access key":   {Nonce: &nonce, Permission: json.RawMessage(`"FullAccess"`)},
		"legacy error": {Error: "wasm execution failed"},
		"empty":        {},
	}
	for name, resp := range shapes {
		t.Run(name, func(t *testing.T) {
			_, err := classifyView[*datypes.Blob](resp)
			assert.ErrorIs(t, err, datypes.ErrUnexpectedResponse)
		})
	}
}
