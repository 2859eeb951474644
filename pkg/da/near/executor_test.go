package near

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-kit/kit/metrics/generic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	primitives "github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/near/rpc"
)

// callLog records the order endpoints were called in.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// fakeEndpoint answers with fixed values and logs every call.
type fakeEndpoint struct {
	name    string
	log     *callLog
	query   *rpc.QueryResponse
	outcome *rpc.FinalExecutionOutcome
	err     error
}

func (f *fakeEndpoint) Address() string { return "http://" + f.name }

func (f *fakeEndpoint) Query(context.Context, rpc.QueryRequest) (*rpc.QueryResponse, error) {
	f.log.add(f.name)
	return f.query, f.err
}

func (f *fakeEndpoint) BroadcastTxCommit(context.Context, *primitives.SignedTransaction) (*rpc.FinalExecutionOutcome, error) {
	f.log.add(f.name)
	return f.outcome, f.err
}

type testCounters struct {
	primaryFailures  *generic.Counter
	archiveFallbacks *generic.Counter
	archiveFailures  *generic.Counter
}

func newTestExecutor(primary, archive Endpoint) (*executor, testCounters) {
	counters := testCounters{
		primaryFailures:  generic.NewCounter("primary_failures"),
		archiveFallbacks: generic.NewCounter("archive_fallbacks"),
		archiveFailures:  generic.NewCounter("archive_failures"),
	}
	m := NopMetrics()
	m.PrimaryFailures = counters.primaryFailures
	m.ArchiveFallbacks = counters.archiveFallbacks
	m.ArchiveFailures = counters.archiveFailures

	return &executor{primary: primary, archive: archive, logger: zerolog.Nop(), metrics: m}, counters
}

func TestExecutorQuery(t *testing.T) {
	primaryResp := &rpc.QueryResponse{BlockHeight: 1}
	archiveResp := &rpc.QueryResponse{BlockHeight: 2}
	legacyErrResp := &rpc.QueryResponse{BlockHeight: 1, Error: "wasm execution failed: state not available"}
	primaryErr := errors.New("primary down")
	archiveErr := errors.New("archive down")

	tests := []struct {
		name          string
		primaryResp   *rpc.QueryResponse
		primaryErr    error
		archiveErr    error
		wantResp      *rpc.QueryResponse
		wantErr       error
		wantCalls     []string
		wantFallbacks float64
		wantFailures  float64
	}{
		{
			name:      "primary succeeds",
			wantResp:  primaryResp,
			wantCalls: []string{"primary"},
		},
		{
			name:          "primary fails, archive succeeds",
			primaryErr:    primaryErr,
			wantResp:      archiveResp,
			wantCalls:     []string{"primary", "archive"},
			wantFallbacks: 1,
		},
		{
			name:          "primary reports error in result, archive succeeds",
			primaryResp:   legacyErrResp,
			wantResp:      archiveResp,
			wantCalls:     []string{"primary", "archive"},
			wantFallbacks: 1,
		},
		{
			name:          "both fail",
			primaryErr:    primaryErr,
			archiveErr:    archiveErr,
			wantErr:       archiveErr,
			wantCalls:     []string{"primary", "archive"},
			wantFallbacks: 1,
			wantFailures:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &callLog{}
			pResp := primaryResp
			if tt.primaryResp != nil {
				pResp = tt.primaryResp
			}
			primary := &fakeEndpoint{name: "primary", log: log, query: pResp, err: tt.primaryErr}
			archive := &fakeEndpoint{name: "archive", log: log, query: archiveResp, err: tt.archiveErr}
			exec, counters := newTestExecutor(primary, archive)

			resp, err := exec.query(context.Background(), OperationGet, rpc.QueryRequest{})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NotErrorIs(t, err, primaryErr)
			} else {
				require.NoError(t, err)
				assert.Same(t, tt.wantResp, resp)
			}

			assert.Equal(t, tt.wantCalls, log.get())
			assert.Equal(t, tt.wantFallbacks, counters.archiveFallbacks.Value())
			assert.Equal(t, tt.wantFallbacks, counters.primaryFailures.Value())
			assert.Equal(t, tt.wantFailures, counters.archiveFailures.Value())
		})
	}
}

func TestExecutorBroadcastTxCommit(t *testing.T) {
	log := &callLog{}
	archiveOutcome := &rpc.FinalExecutionOutcome{}
	primary := &fakeEndpoint{name: "primary", log: log, err: errors.New("timeout")}
	archive := &fakeEndpoint{name: "archive", log: log, outcome: archiveOutcome}
	exec, _ := newTestExecutor(primary, archive)

	outcome, err := exec.broadcastTxCommit(context.Background(), &primitives.SignedTransaction{})
	require.NoError(t, err)
	assert.Same(t, archiveOutcome, outcome)
	assert.Equal(t, []string{"primary", "archive"}, log.get())
}

func TestExecutorKeepsRPCError(t *testing.T) {
	log := &callLog{}
	archiveErr := &rpc.Error{Code: -32000, Message: "Server error", Cause: &rpc.ErrorCause{Name: "UNKNOWN_BLOCK"}}
	primary := &fakeEndpoint{name: "primary", log: log, err: errors.New("pruned")}
	archive := &fakeEndpoint{name: "archive", log: log, err: archiveErr}
	exec, _ := newTestExecutor(primary, archive)

	_, err := exec.query(context.Background(), OperationGet, rpc.QueryRequest{})
	var rpcErr *rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "UNKNOWN_BLOCK", rpcErr.CauseName())
}
