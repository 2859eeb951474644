// Package compression adds optional zstd compression to blob payloads.
package compression

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// magic is the 4-byte prefix prepended to all compressed payloads.
// ASCII "ZSTD" = 0x5A 0x53 0x54 0x44.
var magic = []byte{0x5A, 0x53, 0x54, 0x44}

// Level selects the zstd encoder speed.
type Level int

// Compression levels, fastest to best.
const (
	LevelFastest Level = iota + 1
	LevelDefault
	LevelBetter
	LevelBest
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelFastest:
		return "fastest"
	case LevelDefault:
		return "default"
	case LevelBetter:
		return "better"
	case LevelBest:
		return "best"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelFastest && l <= LevelBest
}

func (l Level) encoderLevel() zstd.EncoderLevel {
	switch l {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBetter:
		return zstd.SpeedBetterCompression
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// encoders and decoder are shared. They are safe for concurrent use per the
// klauspost/compress documentation.
var (
	encoders = make(map[Level]*zstd.Encoder, 4)
	decoder  *zstd.Decoder
)

func init() {
	for l := LevelFastest; l <= LevelBest; l++ {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(l.encoderLevel()))
		if err != nil {
			panic(fmt.Sprintf("compression: create zstd encoder (%s): %v", l, err))
		}
		encoders[l] = enc
	}

	var err error
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("compression: create zstd decoder: %v", err))
	}
}

// Compress compresses data at level and prepends the magic prefix. Unknown levels
// use LevelDefault. Empty data is returned unchanged.
func Compress(data []byte, level Level) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if !level.Valid() {
		level = LevelDefault
	}

	result := make([]byte, len(magic), len(magic)+len(data)/2)
	copy(result, magic)
	return encoders[level].EncodeAll(data, result), nil
}

// Decompress reverses Compress. Data without the magic prefix is returned as is.
func Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}

	decompressed, err := decoder.DecodeAll(data[len(magic):], nil)
	if err != nil {
		return nil, fmt.Errorf("compression: zstd decompress failed: %w", err)
	}
	return decompressed, nil
}

// IsCompressed reports whether data starts with the compression magic prefix.
func IsCompressed(data []byte) bool {
	if len(data) < len(magic) {
		return false
	}
	return data[0] == magic[0] &&
		data[1] == magic[1] &&
		data[2] == magic[2] &&
		data[3] == magic[3]
}
