package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/evstack/near-da/pkg/da/blob"
	datypes "github.com/evstack/near-da/pkg/da/types"
	"github.com/evstack/near-da/pkg/rpc/server"
	"github.com/evstack/near-da/pkg/signer"
	"github.com/evstack/near-da/test/mocks"
)

var testNamespace = datypes.NewNamespace(0, 7)

func setupTestServer(t *testing.T) (*mocks.MockDataAvailability, *Client) {
	t.Helper()
	da := mocks.NewMockDataAvailability(t)
	testServer := httptest.NewServer(server.NewServer(da, zerolog.Nop()))
	t.Cleanup(testServer.Close)
	return da, NewClient(testServer.URL + "/")
}

func testBlob(t *testing.T, data string) datypes.Blob {
	t.Helper()
	b, err := blob.NewBlobV0(testNamespace, []byte(data))
	require.NoError(t, err)
	return b
}

func TestClientSubmit(t *testing.T) {
	da, client := setupTestServer(t)
	blobs := []datypes.Blob{testBlob(t, "one"), testBlob(t, "two")}

	da.On("Submit", mock.Anything, blobs).Return(datypes.SubmitResult{Height: 12}, nil).Once()

	res, err := client.Submit(context.Background(), blobs)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), res.Height)
}

func TestClientSubmitEmpty(t *testing.T) {
	_, client := setupTestServer(t)

	_, err := client.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, datypes.ErrNoBlobs)
}

func TestClientGet(t *testing.T) {
	da, client := setupTestServer(t)
	b := testBlob(t, "payload")

	da.On("Get", mock.Anything, testNamespace, uint64(5)).Return(datypes.Read{Blob: b}, nil).Once()

	read, err := client.Get(context.Background(), testNamespace, 5)
	require.NoError(t, err)
	assert.Equal(t, b, read.Blob)
	assert.True(t, blob.Verify(read.Blob))
}

func TestClientGetAll(t *testing.T) {
	da, client := setupTestServer(t)
	all := datypes.ReadAll{Blobs: []datypes.HeightBlob{
		{Height: 3, Blob: testBlob(t, "a")},
		{Height: 9, Blob: testBlob(t, "b")},
	}}

	da.On("GetAll", mock.Anything, testNamespace).Return(all, nil).Once()

	got, err := client.GetAll(context.Background(), testNamespace)
	require.NoError(t, err)
	assert.Equal(t, all, got)
}

func TestClientFastGet(t *testing.T) {
	da, client := setupTestServer(t)
	b := testBlob(t, "indexed")

	da.On("FastGet", mock.Anything, b.Commitment).Return(datypes.IndexRead{Blob: b}, nil).Once()

	read, err := client.FastGet(context.Background(), b.Commitment)
	require.NoError(t, err)
	assert.Equal(t, b, read.Blob)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		daErr    error
		code     int
		sentinel error
	}{
		{name: "not found", daErr: datypes.ErrBlobNotFound, code: http.StatusNotFound, sentinel: datypes.ErrBlobNotFound},
		{name: "anonymous", daErr: signer.ErrAnonymous, code: http.StatusForbidden, sentinel: signer.ErrAnonymous},
		{name: "not ready", daErr: &datypes.NotReadyError{}, code: http.StatusServiceUnavailable},
		{name: "upstream", daErr: errors.New("rpc down"), code: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			da, client := setupTestServer(t)
			da.On("Get", mock.Anything, testNamespace, uint64(1)).Return(datypes.Read{}, tt.daErr).Once()

			_, err := client.Get(context.Background(), testNamespace, 1)
			require.Error(t, err)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.code, statusErr.Code)
			assert.Contains(t, statusErr.Message, tt.daErr.Error())
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestClientGetHealth(t *testing.T) {
	_, client := setupTestServer(t)

	status, err := client.GetHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthStatus_PASS, status)
	assert.Equal(t, "PASS", status.String())
}

func TestClientGetHealthUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("MAYBE"))
	}))
	t.Cleanup(srv.Close)

	status, err := NewClient(srv.URL).GetHealth(context.Background())
	require.Error(t, err)
	assert.Equal(t, HealthStatus_UNKNOWN, status)
}
