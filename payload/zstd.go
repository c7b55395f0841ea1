package payload

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd is the default Compressor implementation.
type Zstd struct {
	level zstd.EncoderLevel
}

// NewZstd returns a zstd compressor. level follows the usual zstd scale;
// values outside it are clamped by the underlying encoder.
func NewZstd(level int) *Zstd {
	return &Zstd{level: zstd.EncoderLevelFromZstd(level)}
}

// Compress implements Compressor.
func (z *Zstd) Compress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(z.level),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(b, nil), nil
}

// Decompress implements Compressor.
func (z *Zstd) Decompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

var _ Compressor = (*Zstd)(nil)
