package ytframe

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/ytframe/ffmpeg"
	"github.com/bodgit/ytframe/payload"
)

// Encode reads input, frames it, renders the frame stream through the
// transcoder into outDir/outfile and writes a manifest next to it. The run
// is recorded in the run store when one is configured.
func (y *YTFrame) Encode(ctx context.Context, cfg Config, input, outDir, outfile string, t *ffmpeg.Transcoder) (*Run, error) {
	g, err := cfg.Geometry()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("ytframe: read input: %w", err)
	}

	framed, err := payload.Frame(raw, cfg.compressor())
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ytframe: create output directory: %w", err)
	}
	videoPath := filepath.Join(outDir, outfile)

	frames := framesNeeded(len(framed), g)
	y.logger.Printf("%s: %d bytes, %d byte container, %d blocks per frame, %d frames\n",
		input, len(raw), len(framed), g.BlocksPerFrame, frames)

	err = t.Mux(ctx, ffmpeg.Spec{Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS}, videoPath, func(w io.Writer) error {
		_, err := y.EncodeFrames(ctx, framed, cfg, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	run := &Run{
		InputFile:        filepath.Base(input),
		VideoFile:        outfile,
		Width:            cfg.Width,
		Height:           cfg.Height,
		Block:            cfg.Block,
		Gutter:           cfg.Gutter,
		FPS:              cfg.FPS,
		OriginalLength:   uint64(len(raw)),
		CompressedLength: uint64(len(framed) - payload.HeaderSize),
		PayloadLength:    len(framed),
		Frames:           frames,
		Compressed:       cfg.Compress,
		PayloadCRC32:     fmt.Sprintf("%08X", crc32.ChecksumIEEE(raw)),
	}

	m := run.Manifest()
	if cfg.Compress {
		m.ZstdLevel = cfg.ZstdLevel
		if m.ZstdLevel == 0 {
			m.ZstdLevel = DefaultZstdLevel
		}
	}
	if err := m.WriteFile(filepath.Join(outDir, ManifestFilename)); err != nil {
		return nil, err
	}

	if y.db != nil {
		if err := y.db.Add(run); err != nil {
			return nil, err
		}
	}

	y.logger.Printf("wrote %s and %s\n", videoPath, ManifestFilename)

	return run, nil
}

// Manifest builds the side-channel record for a recorded run.
func (r *Run) Manifest() *Manifest {
	return &Manifest{
		InputFile:        r.InputFile,
		OriginalLength:   r.OriginalLength,
		CompressedLength: r.CompressedLength,
		PayloadLength:    r.PayloadLength,
		Frames:           r.Frames,
		Width:            r.Width,
		Height:           r.Height,
		FrameSizeBytes:   r.Width * r.Height,
		BlockSize:        r.Block,
		Gutter:           r.Gutter,
		FPS:              r.FPS,
		VideoFile:        r.VideoFile,
		PayloadCRC32:     r.PayloadCRC32,
	}
}
