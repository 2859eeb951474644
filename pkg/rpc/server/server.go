// Package server exposes a DataAvailability over plain HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/evstack/near-da/pkg/da/blob"
	datypes "github.com/evstack/near-da/pkg/da/types"
	"github.com/evstack/near-da/pkg/signer"
)

// MaxRequestBodySize bounds POST bodies. Base64 inflates payloads by a third.
const MaxRequestBodySize = 2 * blob.DefaultMaxBlobSize

// Server routes HTTP requests to a DataAvailability.
type Server struct {
	da     datypes.DataAvailability
	logger zerolog.Logger
	router chi.Router

	submitLimiter *rate.Limiter
}

// NewServer creates the router.
func NewServer(da datypes.DataAvailability, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		da:     da,
		logger: logger.With().Str("component", "http_server").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.With(s.limitSubmits).Post("/blobs", s.handleSubmit)
	r.Get("/blobs/{namespace}/{height}", s.handleGet)
	r.Get("/namespaces/{namespace}/blobs", s.handleGetAll)
	r.Get("/commitments/{commitment}", s.handleFastGet)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodySize)).Decode(&req); err != nil {
		s.writeError(w, badRequest(fmt.Errorf("decode request: %w", err)))
		return
	}

	if len(req.Blobs) == 0 {
		s.writeError(w, datypes.ErrNoBlobs)
		return
	}

	blobs := make([]datypes.Blob, len(req.Blobs))
	for i, br := range req.Blobs {
		ns, err := datypes.ParseNamespace(br.Namespace)
		if err != nil {
			s.writeError(w, badRequest(fmt.Errorf("blob %d: %w", i, err)))
			return
		}
		b, err := blob.NewBlobV0(ns, br.Data)
		if err != nil {
			s.writeError(w, badRequest(fmt.Errorf("blob %d: %w", i, err)))
			return
		}
		blobs[i] = b
	}

	res, err := s.da.Submit(r.Context(), blobs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := SubmitResponse{Height: res.Height, Commitments: make([]string, len(blobs))}
	for i, b := range blobs {
		resp.Commitments[i] = b.Commitment.String()
	}
	s.logger.Info().Uint64("height", res.Height).Int("blobs", len(blobs)).Msg("blobs submitted")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ns, err := datypes.ParseNamespace(chi.URLParam(r, "namespace"))
	if err != nil {
		s.writeError(w, badRequest(err))
		return
	}
	height, err := strconv.ParseUint(chi.URLParam(r, "height"), 10, 64)
	if err != nil {
		s.writeError(w, badRequest(fmt.Errorf("invalid height: %w", err)))
		return
	}

	read, err := s.da.Get(r.Context(), ns, height)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewBlobView(read.Blob))
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	ns, err := datypes.ParseNamespace(chi.URLParam(r, "namespace"))
	if err != nil {
		s.writeError(w, badRequest(err))
		return
	}

	all, err := s.da.GetAll(r.Context(), ns)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewHeightBlobViews(all))
}

func (s *Server) handleFastGet(w http.ResponseWriter, r *http.Request) {
	commitment, err := datypes.ParseCommitment(chi.URLParam(r, "commitment"))
	if err != nil {
		s.writeError(w, badRequest(err))
		return
	}

	read, err := s.da.FastGet(r.Context(), commitment)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewBlobView(read.Blob))
}

type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error { return badRequestError{err: err} }

// StatusCode maps a DataAvailability error to an HTTP status.
func StatusCode(err error) int {
	var (
		badReq   badRequestError
		notReady *datypes.NotReadyError
	)
	switch {
	case errors.Is(err, datypes.ErrTooLarge), errors.Is(err, blob.ErrBlobTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &badReq), errors.Is(err, datypes.ErrNoBlobs):
		return http.StatusBadRequest
	case errors.Is(err, datypes.ErrBlobNotFound):
		return http.StatusNotFound
	case errors.Is(err, signer.ErrAnonymous):
		return http.StatusForbidden
	case errors.As(err, &notReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
