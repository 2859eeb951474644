package compression

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	datypes "github.com/evstack/near-da/pkg/da/types"
)

// DefaultMinRatio is the minimum fraction of space compression must save before a
// compressed payload is stored.
const DefaultMinRatio = 0.1

// Config controls payload compression.
type Config struct {
	Enabled  bool    `mapstructure:"enabled" yaml:"enabled" comment:"Compress blob payloads with zstd before submission"`
	Level    Level   `mapstructure:"level" yaml:"level" comment:"zstd level: 1 fastest, 2 default, 3 better, 4 best"`
	MinRatio float64 `mapstructure:"min_ratio" yaml:"min_ratio" comment:"Minimum fraction of bytes saved for a compressed payload to be kept"`
}

// DefaultConfig returns compression disabled with the default level and ratio.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Level:    LevelDefault,
		MinRatio: DefaultMinRatio,
	}
}

// DA compresses payloads on submission and decompresses them on every read.
// Commitments are always those of the uncompressed payload.
type DA struct {
	inner  datypes.DataAvailability
	cfg    Config
	logger zerolog.Logger
}

var _ datypes.DataAvailability = (*DA)(nil)

// Wrap returns inner unchanged when compression is disabled, and a compressing DA otherwise.
func Wrap(inner datypes.DataAvailability, cfg Config, logger zerolog.Logger) datypes.DataAvailability {
	if !cfg.Enabled {
		return inner
	}
	if !cfg.Level.Valid() {
		cfg.Level = LevelDefault
	}
	if cfg.MinRatio < 0 || cfg.MinRatio >= 1 {
		cfg.MinRatio = DefaultMinRatio
	}
	return &DA{
		inner:  inner,
		cfg:    cfg,
		logger: logger.With().Str("component", "compression").Str("level", cfg.Level.String()).Logger(),
	}
}

// Submit compresses every blob payload and forwards the batch.
func (d *DA) Submit(ctx context.Context, blobs []datypes.Blob) (datypes.SubmitResult, error) {
	out := make([]datypes.Blob, len(blobs))
	for i, b := range blobs {
		compressed, err := d.compress(b)
		if err != nil {
			return datypes.SubmitResult{}, fmt.Errorf("compress blob %d: %w", i, err)
		}
		out[i] = compressed
	}
	return d.inner.Submit(ctx, out)
}

// Get forwards the read and decompresses the payload.
func (d *DA) Get(ctx context.Context, namespace datypes.Namespace, height uint64) (datypes.Read, error) {
	r, err := d.inner.Get(ctx, namespace, height)
	if err != nil {
		return r, err
	}
	r.Blob, err = decompress(r.Blob)
	return r, err
}

// GetAll forwards the read and decompresses every payload.
func (d *DA) GetAll(ctx context.Context, namespace datypes.Namespace) (datypes.ReadAll, error) {
	r, err := d.inner.GetAll(ctx, namespace)
	if err != nil {
		return r, err
	}
	for i := range r.Blobs {
		if r.Blobs[i].Blob, err = decompress(r.Blobs[i].Blob); err != nil {
			return datypes.ReadAll{}, fmt.Errorf("blob at height %d: %w", r.Blobs[i].Height, err)
		}
	}
	return r, nil
}

// FastGet forwards the read and decompresses the payload.
func (d *DA) FastGet(ctx context.Context, commitment datypes.Commitment) (datypes.IndexRead, error) {
	r, err := d.inner.FastGet(ctx, commitment)
	if err != nil {
		return r, err
	}
	r.Blob, err = decompress(r.Blob)
	return r, err
}

func (d *DA) compress(b datypes.Blob) (datypes.Blob, error) {
	if len(b.Data) == 0 {
		return b, nil
	}

	compressed, err := Compress(b.Data, d.cfg.Level)
	if err != nil {
		return b, err
	}

	saved := 1 - float64(len(compressed))/float64(len(b.Data))
	if saved < d.cfg.MinRatio {
		d.logger.Debug().
			Int("size", len(b.Data)).
			Float64("saved", saved).
			Msg("compression not beneficial, storing raw payload")
		return b, nil
	}

	d.logger.Debug().
		Int("size", len(b.Data)).
		Int("compressed_size", len(compressed)).
		Str("commitment", b.Commitment.String()).
		Msg("compressed blob payload")
	b.Data = compressed
	return b, nil
}

func decompress(b datypes.Blob) (datypes.Blob, error) {
	data, err := Decompress(b.Data)
	if err != nil {
		return b, fmt.Errorf("%w: %w", datypes.ErrDecode, err)
	}
	b.Data = data
	return b, nil
}
