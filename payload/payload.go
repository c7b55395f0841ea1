/*
Package payload implements the self-describing container framed into the
raster stream.

The container is a 20 byte header followed by the body: a 4 byte magic
marker, the body length and the original payload length as little-endian
64-bit values, then the body itself, which is either the raw payload or its
compressed form. The recovered byte stream on the decode side is almost
always longer than the container because the final frame is zero-padded, so
both lengths are required to trim the stream back to the exact payload.
*/
package payload

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic identifies a framed payload header.
var Magic = []byte("YTF1")

// HeaderSize is the fixed byte length of the container header.
const HeaderSize = 20

// ErrNoHeader is returned when the recovered stream does not start with the
// magic marker and no manifest fallback was supplied. It usually means the
// decode geometry does not match the encode geometry.
var ErrNoHeader = errors.New("payload: no magic header and no manifest fallback")

// ErrTruncated is returned when the header is present but the stream is
// shorter than the body length it declares.
var ErrTruncated = errors.New("payload: magic present but body is truncated")

// Compressor is an injected byte-transform capability with matching
// compress and decompress operations. The container treats it as opaque.
type Compressor interface {
	Compress([]byte) ([]byte, error)
	Decompress([]byte) ([]byte, error)
}

// Lengths is the out-of-band fallback for the two header lengths, taken
// from a manifest when the in-band header cannot be parsed. Header values
// win whenever both exist.
type Lengths struct {
	Compressed uint64
	Original   uint64
}

// Frame builds the container around raw. With a nil compressor the body is
// raw itself; otherwise the body is c.Compress(raw).
func Frame(raw []byte, c Compressor) ([]byte, error) {
	body := raw
	if c != nil {
		var err error
		if body, err = c.Compress(raw); err != nil {
			return nil, fmt.Errorf("payload: compress: %w", err)
		}
	}

	b := make([]byte, 0, HeaderSize+len(body))
	b = append(b, Magic...)
	b = binary.LittleEndian.AppendUint64(b, uint64(len(body)))
	b = binary.LittleEndian.AppendUint64(b, uint64(len(raw)))
	return append(b, body...), nil
}

// Unframe recovers the original payload from the concatenated chunk stream
// produced by the frame decoder. The stream carries trailing frame padding;
// the body is sliced to exactly the compressed length and, when a
// compressor is supplied, the decompressed result is truncated to the
// original length. fallback may be nil when the header is known to be
// in-band.
func Unframe(recovered []byte, c Compressor, fallback *Lengths) ([]byte, error) {
	var compressedLen, originalLen uint64
	var body []byte

	switch {
	case bytes.HasPrefix(recovered, Magic):
		if len(recovered) < HeaderSize {
			return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header", ErrTruncated, len(recovered), HeaderSize)
		}
		compressedLen = binary.LittleEndian.Uint64(recovered[4:])
		originalLen = binary.LittleEndian.Uint64(recovered[12:])
		if uint64(len(recovered)-HeaderSize) < compressedLen {
			return nil, fmt.Errorf("%w: header declares %d body bytes, %d available", ErrTruncated, compressedLen, len(recovered)-HeaderSize)
		}
		body = recovered[HeaderSize : HeaderSize+compressedLen]
	case fallback != nil:
		compressedLen = fallback.Compressed
		originalLen = fallback.Original
		if uint64(len(recovered)) < compressedLen {
			return nil, fmt.Errorf("%w: manifest declares %d body bytes, %d recovered", ErrTruncated, compressedLen, len(recovered))
		}
		body = recovered[:compressedLen]
	default:
		return nil, ErrNoHeader
	}

	if c == nil {
		return body, nil
	}

	orig, err := c.Decompress(body)
	if err != nil {
		return nil, fmt.Errorf("payload: decompress: %w", err)
	}
	// Decompressor output can carry trailing artifacts when the body was
	// recovered via the manifest path.
	if uint64(len(orig)) > originalLen {
		orig = orig[:originalLen]
	}
	return orig, nil
}
