// Package client talks to the near-da HTTP sidecar. Client implements
// datypes.DataAvailability, so it can stand in for a direct NEAR client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	datypes "github.com/evstack/near-da/pkg/da/types"
	"github.com/evstack/near-da/pkg/rpc/server"
	"github.com/evstack/near-da/pkg/signer"
)

// HealthStatus represents the health status of a sidecar
type HealthStatus int32

const (
	// HealthStatus_UNKNOWN represents an unknown health status
	HealthStatus_UNKNOWN HealthStatus = 0
	// HealthStatus_PASS represents a healthy sidecar
	HealthStatus_PASS HealthStatus = 1
	// HealthStatus_FAIL represents a failed sidecar
	HealthStatus_FAIL HealthStatus = 3
)

func (h HealthStatus) String() string {
	switch h {
	case HealthStatus_PASS:
		return "PASS"
	case HealthStatus_FAIL:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// StatusError is a non-2xx sidecar response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sidecar returned %d: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is match the sentinel the sidecar mapped to Code.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return datypes.ErrBlobNotFound
	case http.StatusForbidden:
		return signer.ErrAnonymous
	default:
		return nil
	}
}

// Client is the client for the blob routes of the sidecar
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ datypes.DataAvailability = (*Client)(nil)

// NewClient creates a new sidecar client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// Submit posts blobs. The sidecar recomputes commitments from namespace and data.
func (c *Client) Submit(ctx context.Context, blobs []datypes.Blob) (datypes.SubmitResult, error) {
	if len(blobs) == 0 {
		return datypes.SubmitResult{}, datypes.ErrNoBlobs
	}
	req := server.SubmitRequest{Blobs: make([]server.BlobRequest, len(blobs))}
	for i, b := range blobs {
		req.Blobs[i] = server.BlobRequest{Namespace: b.Namespace.String(), Data: b.Data}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return datypes.SubmitResult{}, fmt.Errorf("failed to encode submit request: %w", err)
	}

	var resp server.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/blobs", bytes.NewReader(body), &resp); err != nil {
		return datypes.SubmitResult{}, err
	}
	return datypes.SubmitResult{Height: resp.Height}, nil
}

// Get returns the blob stored under namespace at height.
func (c *Client) Get(ctx context.Context, namespace datypes.Namespace, height uint64) (datypes.Read, error) {
	var view server.BlobView
	path := fmt.Sprintf("/blobs/%s/%s", url.PathEscape(namespace.String()), strconv.FormatUint(height, 10))
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return datypes.Read{}, err
	}
	b, err := blobFromView(view)
	if err != nil {
		return datypes.Read{}, err
	}
	return datypes.Read{Blob: b}, nil
}

// GetAll returns every blob stored under namespace.
func (c *Client) GetAll(ctx context.Context, namespace datypes.Namespace) (datypes.ReadAll, error) {
	var views []server.HeightBlobView
	path := fmt.Sprintf("/namespaces/%s/blobs", url.PathEscape(namespace.String()))
	if err := c.do(ctx, http.MethodGet, path, nil, &views); err != nil {
		return datypes.ReadAll{}, err
	}
	all := datypes.ReadAll{Blobs: make([]datypes.HeightBlob, len(views))}
	for i, v := range views {
		b, err := blobFromView(v.Blob)
		if err != nil {
			return datypes.ReadAll{}, fmt.Errorf("blob at height %d: %w", v.Height, err)
		}
		all.Blobs[i] = datypes.HeightBlob{Height: v.Height, Blob: b}
	}
	return all, nil
}

// FastGet returns the blob with the given commitment.
func (c *Client) FastGet(ctx context.Context, commitment datypes.Commitment) (datypes.IndexRead, error) {
	var view server.BlobView
	if err := c.do(ctx, http.MethodGet, "/commitments/"+commitment.String(), nil, &view); err != nil {
		return datypes.IndexRead{}, err
	}
	b, err := blobFromView(view)
	if err != nil {
		return datypes.IndexRead{}, err
	}
	return datypes.IndexRead{Blob: b}, nil
}

// GetHealth calls the /health/live HTTP endpoint and returns the HealthStatus
func (c *Client) GetHealth(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/live", nil)
	if err != nil {
		return HealthStatus_UNKNOWN, fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus_UNKNOWN, fmt.Errorf("failed to get health: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return HealthStatus_UNKNOWN, fmt.Errorf("failed to read health response: %w", err)
	}

	status := strings.TrimSpace(string(body))
	switch status {
	case "OK":
		return HealthStatus_PASS, nil
	case "FAIL":
		return HealthStatus_FAIL, nil
	default:
		return HealthStatus_UNKNOWN, fmt.Errorf("unknown health status: %s", status)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp server.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			errResp.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Code: resp.StatusCode, Message: errResp.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(datypes.ErrDecode, err)
	}
	return nil
}

func blobFromView(v server.BlobView) (datypes.Blob, error) {
	ns, err := datypes.ParseNamespace(v.Namespace)
	if err != nil {
		return datypes.Blob{}, errors.Join(datypes.ErrDecode, err)
	}
	commitment, err := datypes.ParseCommitment(v.Commitment)
	if err != nil {
		return datypes.Blob{}, errors.Join(datypes.ErrDecode, err)
	}
	return datypes.Blob{
		Namespace:    ns,
		ShareVersion: v.ShareVersion,
		Commitment:   commitment,
		Data:         v.Data,
	}, nil
}
