package server

import (
	datypes "github.com/evstack/near-da/pkg/da/types"
)

// BlobRequest is one blob of a submit request. Data travels as base64.
type BlobRequest struct {
	Namespace string `json:"namespace"`
	Data      []byte `json:"data"`
}

// SubmitRequest is the body of POST /blobs.
type SubmitRequest struct {
	Blobs []BlobRequest `json:"blobs"`
}

// SubmitResponse lists the commitments in request order.
type SubmitResponse struct {
	Height      uint64   `json:"height"`
	Commitments []string `json:"commitments"`
}

// BlobView is the HTTP rendering of a blob: hex commitment, base64 data.
type BlobView struct {
	Namespace    string `json:"namespace"`
	ShareVersion uint32 `json:"share_version"`
	Commitment   string `json:"commitment"`
	Data         []byte `json:"data"`
}

// NewBlobView renders b.
func NewBlobView(b datypes.Blob) BlobView {
	return BlobView{
		Namespace:    b.Namespace.String(),
		ShareVersion: b.ShareVersion,
		Commitment:   b.Commitment.String(),
		Data:         []byte(b.Data),
	}
}

// HeightBlobView pairs a rendered blob with its height.
type HeightBlobView struct {
	Height uint64   `json:"height"`
	Blob   BlobView `json:"blob"`
}

// NewHeightBlobViews renders every blob of r, keeping its order.
func NewHeightBlobViews(r datypes.ReadAll) []HeightBlobView {
	views := make([]HeightBlobView, len(r.Blobs))
	for i, hb := range r.Blobs {
		views[i] = HeightBlobView{Height: hb.Height, Blob: NewBlobView(hb.Blob)}
	}
	return views
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
