package ytframe

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"

	"github.com/bodgit/ytframe/ffmpeg"
	"github.com/bodgit/ytframe/payload"
)

// Decode extracts the raster stream from video through the transcoder,
// samples it back into bytes and unwraps the container. m may be nil; when
// supplied it is the fallback for the container lengths and, if it carries
// a payload checksum, the recovered bytes are verified against it.
func (y *YTFrame) Decode(ctx context.Context, cfg Config, video string, m *Manifest, t *ffmpeg.Transcoder) ([]byte, error) {
	g, err := cfg.Geometry()
	if err != nil {
		return nil, err
	}

	raw, err := t.Demux(ctx, video, ffmpeg.Spec{Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS})
	if err != nil {
		return nil, err
	}
	y.logger.Printf("%s: extracted %d raw raster bytes\n", video, len(raw))

	recovered, err := y.DecodeFrames(ctx, bytes.NewReader(raw), cfg)
	if err != nil {
		return nil, err
	}

	if m != nil && m.Frames != 0 && m.Frames != len(recovered)/g.BlocksPerFrame {
		return nil, fmt.Errorf("%w: recovered %d frames, manifest records %d",
			ErrDimensionMismatch, len(recovered)/g.BlocksPerFrame, m.Frames)
	}

	orig, err := payload.Unframe(recovered, cfg.compressor(), m.lengths())
	if err != nil {
		return nil, err
	}

	if m != nil && m.PayloadCRC32 != "" {
		if sum := fmt.Sprintf("%08X", crc32.ChecksumIEEE(orig)); sum != m.PayloadCRC32 {
			return nil, fmt.Errorf("ytframe: payload checksum %s does not match recorded %s, geometry or stream is corrupt", sum, m.PayloadCRC32)
		}
	}

	y.logger.Printf("%s: recovered %d payload bytes\n", video, len(orig))

	return orig, nil
}
