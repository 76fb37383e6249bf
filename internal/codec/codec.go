// Package codec measures how far a resource footprint shrinks under
// compression. The manager applies the result to its bookkeeping only;
// admission decisions never see compressed sizes.
package codec

import (
	"math"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Estimator predicts the post-compression footprint of a resource.
type Estimator interface {
	// EstimateCompressed returns the expected size in bytes after
	// compressing size bytes. Implementations may inspect sample for a
	// measured ratio; sample may be nil when no backing bytes exist.
	EstimateCompressed(size int, sample []byte) int
}

// Fixed applies a constant compression ratio. The default simulation
// ratio is 0.6 (40% saving).
type Fixed struct {
	Ratio float64
}

func NewFixed(ratio float64) Fixed {
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.6
	}
	return Fixed{Ratio: ratio}
}

func (f Fixed) EstimateCompressed(size int, _ []byte) int {
	return int(math.Round(float64(size) * f.Ratio))
}

// Measured compresses the sample bytes with a real codec and scales the
// recorded size by the observed ratio. With no sample it falls back to
// the fixed ratio.
type Measured struct {
	codec    Codec
	fallback Fixed
}

func NewMeasured(c Codec) Measured {
	return Measured{codec: c, fallback: NewFixed(0.6)}
}

func (m Measured) EstimateCompressed(size int, sample []byte) int {
	if len(sample) == 0 || m.codec == nil {
		return m.fallback.EstimateCompressed(size, nil)
	}
	compressed := m.codec.CompressedLen(sample)
	ratio := float64(compressed) / float64(len(sample))
	if ratio >= 1 {
		return size
	}
	return int(math.Round(float64(size) * ratio))
}

// Codec reports the compressed length of a byte slice.
type Codec interface {
	Name() string
	CompressedLen(src []byte) int
}

// ZSTD encoder pool, shared across calls.
var zstdEncoderPool sync.Pool

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

type Zstd struct{}

func (Zstd) Name() string { return "zstd" }

func (Zstd) CompressedLen(src []byte) int {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)
	return len(enc.EncodeAll(src, nil))
}

type S2 struct{}

func (S2) Name() string { return "s2" }

func (S2) CompressedLen(src []byte) int {
	return len(s2.Encode(nil, src))
}

type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) CompressedLen(src []byte) int {
	buf := make([]byte, lz4.CompressBlockBound(len(src)))
	var c lz4.Compressor
	n, err := c.CompressBlock(src, buf)
	if err != nil || n == 0 {
		// Incompressible block; lz4 stores it raw.
		return len(src)
	}
	return n
}

// ForName maps a config codec name to an estimator. Unknown names and
// "fixed" get the simulation default.
func ForName(name string) Estimator {
	switch name {
	case "zstd":
		return NewMeasured(Zstd{})
	case "s2":
		return NewMeasured(S2{})
	case "lz4":
		return NewMeasured(LZ4{})
	default:
		return NewFixed(0.6)
	}
}
