package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/evstack/near-da/pkg/da/blob"
	datypes "github.com/evstack/near-da/pkg/da/types"
	"github.com/evstack/near-da/pkg/signer"
	"github.com/evstack/near-da/test/mocks"
)

var testNamespace = datypes.NewNamespace(0, 42)

func setupServer(t *testing.T) (*mocks.MockDataAvailability, *httptest.Server) {
	t.Helper()
	da := mocks.NewMockDataAvailability(t)
	srv := httptest.NewServer(NewServer(da, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return da, srv
}

func testBlob(t *testing.T, data string) datypes.Blob {
	t.Helper()
	b, err := blob.NewBlobV0(testNamespace, []byte(data))
	require.NoError(t, err)
	return b
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthLive(t *testing.T) {
	_, srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/health/live")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK\n", string(body))
}

func TestSubmit(t *testing.T) {
	da, srv := setupServer(t)
	want := testBlob(t, "hello")

	da.On("Submit", mock.Anything, []datypes.Blob{want}).Return(datypes.SubmitResult{Height: 77}, nil).Once()

	body, err := json.Marshal(SubmitRequest{Blobs: []BlobRequest{{Namespace: "0:42", Data: []byte("hello")}}})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/blobs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[SubmitResponse](t, resp)
	assert.Equal(t, uint64(77), got.Height)
	assert.Equal(t, []string{want.Commitment.String()}, got.Commitments)
}

func TestSubmitBadRequests(t *testing.T) {
	_, srv := setupServer(t)

	tests := map[string]string{
		"not json":        `{"blobs":`,
		"no blobs":        `{"blobs":[]}`,
		"bad namespace":   `{"blobs":[{"namespace":"x","data":"aGk="}]}`,
		"data not base64": `{"blobs":[{"namespace":"1","data":"***"}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/blobs", "application/json", bytes.NewBufferString(body))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, resp).Error)
		})
	}
}

func TestGet(t *testing.T) {
	da, srv := setupServer(t)
	b := testBlob(t, "payload")
	da.On("Get", mock.Anything, testNamespace, uint64(9)).Return(datypes.Read{Blob: b}, nil).Once()

	resp, err := http.Get(srv.URL + "/blobs/0:42/9")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[BlobView](t, resp)
	assert.Equal(t, NewBlobView(b), got)
	assert.Equal(t, []byte("payload"), got.Data)
	assert.Equal(t, "0:42", got.Namespace)
}

func TestGetAll(t *testing.T) {
	da, srv := setupServer(t)
	first, second := testBlob(t, "a"), testBlob(t, "b")
	da.On("GetAll", mock.Anything, testNamespace).Return(datypes.ReadAll{Blobs: []datypes.HeightBlob{
		{Height: 3, Blob: second},
		{Height: 1, Blob: first},
	}}, nil).Once()

	resp, err := http.Get(srv.URL + "/namespaces/42/blobs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[[]HeightBlobView](t, resp)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].Height)
	assert.Equal(t, NewBlobView(second), got[0].Blob)
	assert.Equal(t, uint64(1), got[1].Height)
}

func TestFastGet(t *testing.T) {
	da, srv := setupServer(t)
	b := testBlob(t, "indexed")
	da.On("FastGet", mock.Anything, b.Commitment).Return(datypes.IndexRead{Blob: b}, nil).Once()

	resp, err := http.Get(srv.URL + "/commitments/" + b.Commitment.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, NewBlobView(b), decodeBody[BlobView](t, resp))
}

func TestErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", fmt.Errorf("get: %w", datypes.ErrBlobNotFound), http.StatusNotFound},
		{"not ready", &datypes.NotReadyError{Status: "Started"}, http.StatusServiceUnavailable},
		{"contract failure", &datypes.ContractExecutionError{Detail: "boom"}, http.StatusBadGateway},
		{"transport", errors.New("connection refused"), http.StatusBadGateway},
		{"decode", datypes.ErrDecode, http.StatusBadGateway},
		{"anonymous", signer.ErrAnonymous, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			da, srv := setupServer(t)
			da.On("Get", mock.Anything, testNamespace, uint64(1)).Return(datypes.Read{}, tt.err).Once()

			resp, err := http.Get(srv.URL + "/blobs/42/1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.err.Error(), decodeBody[ErrorResponse](t, resp).Error)
		})
	}
}

func TestBadPathParameters(t *testing.T) {
	_, srv := setupServer(t)

	for _, path := range []string{
		"/blobs/notanumber/1",
		"/blobs/42/-1",
		"/namespaces/1:2:3/blobs",
		"/commitments/zz",
		"/commitments/abcd",
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusCode(datypes.ErrNoBlobs))
	assert.Equal(t, http.StatusBadRequest, StatusCode(badRequest(errors.New("x"))))
	assert.Equal(t, http.StatusBadGateway, StatusCode(errors.New("x")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusCode(fmt.Errorf("submit: %w", datypes.ErrTooLarge)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusCode(badRequest(blob.ErrBlobTooLarge)))
}

func TestSubmitRateLimit(t *testing.T) {
	da := mocks.NewMockDataAvailability(t)
	srv := httptest.NewServer(NewServer(da, zerolog.Nop(), WithSubmitRateLimit(0.001, 1)))
	t.Cleanup(srv.Close)

	da.On("Submit", mock.Anything, mock.Anything).Return(datypes.SubmitResult{Height: 1}, nil).Once()

	body := `{"blobs":[{"namespace":"0:42","data":"aGk="}]}`
	first, err := http.Post(srv.URL+"/blobs", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Post(srv.URL+"/blobs", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "1", second.Header.Get("Retry-After"))
	errResp := decodeBody[ErrorResponse](t, second)
	assert.Contains(t, errResp.Error, "too many")

	// reads are not limited
	da.On("GetAll", mock.Anything, testNamespace).Return(datypes.ReadAll{}, nil).Once()
	resp, err := http.Get(srv.URL + "/namespaces/0:42/blobs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitRateLimitDisabled(t *testing.T) {
	s := NewServer(mocks.NewMockDataAvailability(t), zerolog.Nop(), WithSubmitRateLimit(0, 5))
	assert.Nil(t, s.submitLimiter)
}
