package compression

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompress_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "small payload",
			data: []byte("hello world, this is a test payload for compression"),
		},
		{
			name: "repeated frames",
			data: bytes.Repeat([]byte{0x0a, 0x10, 0x08, 0x01, 0x12, 0x0c}, 1000),
		},
		{
			name: "single byte",
			data: []byte{0xFF},
		},
		{
			name: "near blob limit",
			data: bytes.Repeat([]byte("near blob compression test data "), 120000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Compress(tt.data, LevelDefault)
			require.NoError(t, err)
			assert.True(t, IsCompressed(compressed))

			decompressed, err := Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, tt.data, decompressed)
		})
	}
}

func TestCompress_AllLevels(t *testing.T) {
	data := bytes.Repeat([]byte("adaptive compression level test "), 5000)

	sizes := make(map[Level]int)
	for l := LevelFastest; l <= LevelBest; l++ {
		t.Run(l.String(), func(t *testing.T) {
			compressed, err := Compress(data, l)
			require.NoError(t, err)
			sizes[l] = len(compressed)

			decompressed, err := Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, data, decompressed)
		})
	}

	require.Len(t, sizes, 4)
	assert.LessOrEqual(t, sizes[LevelBest], sizes[LevelFastest])
}

func TestCompress_InvalidLevelFallsBack(t *testing.T) {
	data := []byte("test data for invalid level")
	for _, l := range []Level{0, -1, 99} {
		assert.False(t, l.Valid())

		compressed, err := Compress(data, l)
		require.NoError(t, err)

		decompressed, err := Decompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, data, decompressed)
	}
}

func TestCompress_Empty(t *testing.T) {
	compressed, err := Compress(nil, LevelDefault)
	require.NoError(t, err)
	assert.Nil(t, compressed)

	compressed, err = Compress([]byte{}, LevelDefault)
	require.NoError(t, err)
	assert.Empty(t, compressed)
}

func TestDecompress_Passthrough(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "nil", data: nil},
		{name: "plain text", data: []byte("this is uncompressed data")},
		{name: "shorter than prefix", data: []byte{0x5A, 0x53}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decompress(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.data, out)
		})
	}
}

func TestDecompress_Corrupt(t *testing.T) {
	tests := map[string][]byte{
		"invalid frame": append([]byte{0x5A, 0x53, 0x54, 0x44}, []byte("not valid zstd")...),
		"zero padding":  append([]byte{0x5A, 0x53, 0x54, 0x44}, bytes.Repeat([]byte{0x00}, 100)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decompress(data)
			assert.Error(t, err)
		})
	}
}

func TestIsCompressed(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{name: "nil", data: nil, expected: false},
		{name: "empty", data: []byte{}, expected: false},
		{name: "short", data: []byte{0x5A}, expected: false},
		{name: "magic prefix only", data: []byte{0x5A, 0x53, 0x54, 0x44}, expected: true},
		{name: "magic with data", data: []byte{0x5A, 0x53, 0x54, 0x44, 0x01, 0x02}, expected: true},
		{name: "wrong prefix", data: []byte{0x00, 0x53, 0x54, 0x44}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCompressed(tt.data))
		})
	}
}

func TestCompress_AchievesCompression(t *testing.T) {
	data := bytes.Repeat([]byte("rollup block data with repeated content "), 10000)
	compressed, err := Compress(data, LevelDefault)
	require.NoError(t, err)

	ratio := float64(len(compressed)) / float64(len(data))
	t.Logf("compression ratio: %.4f (original: %d, compressed: %d)", ratio, len(data), len(compressed))
	assert.Less(t, ratio, 0.1)
}

func TestCompress_RandomData(t *testing.T) {
	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	compressed, err := Compress(data, LevelFastest)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}
