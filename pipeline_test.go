package ytframe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"math/rand"
	"testing"

	"github.com/bodgit/ytframe/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testYTFrame() *YTFrame {
	return New(nil, log.New(io.Discard, "", 0))
}

func testConfig() Config {
	return Config{
		Width:  64,
		Height: 64,
		Block:  8,
		Gutter: 1,
		FPS:    60,
	}
}

func TestEncodeDecodeFramesRoundTrip(t *testing.T) {
	y := testYTFrame()
	cfg := testConfig()

	g, err := cfg.Geometry()
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(23))

	// Enough payload for a good number of frames so re-sequencing after
	// the worker pool is actually exercised.
	raw := make([]byte, 40*g.BlocksPerFrame+17)
	rnd.Read(raw)

	framed, err := payload.Frame(raw, nil)
	require.NoError(t, err)

	var sink bytes.Buffer
	frames, err := y.EncodeFrames(context.Background(), framed, cfg, &sink)
	require.NoError(t, err)

	wantFrames := (len(framed) + g.BlocksPerFrame - 1) / g.BlocksPerFrame
	assert.Equal(t, wantFrames, frames)
	assert.Equal(t, wantFrames*g.FrameSize(), sink.Len())

	recovered, err := y.DecodeFrames(context.Background(), bytes.NewReader(sink.Bytes()), cfg)
	require.NoError(t, err)
	assert.Len(t, recovered, frames*g.BlocksPerFrame)

	got, err := payload.Unframe(recovered, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestEncodeDecodeFramesCompressed(t *testing.T) {
	y := testYTFrame()
	cfg := testConfig()
	cfg.Compress = true
	cfg.ZstdLevel = 3

	raw := bytes.Repeat([]byte("a very repetitive payload "), 100)

	framed, err := payload.Frame(raw, cfg.compressor())
	require.NoError(t, err)

	var sink bytes.Buffer
	_, err = y.EncodeFrames(context.Background(), framed, cfg, &sink)
	require.NoError(t, err)

	recovered, err := y.DecodeFrames(context.Background(), bytes.NewReader(sink.Bytes()), cfg)
	require.NoError(t, err)

	got, err := payload.Unframe(recovered, cfg.compressor(), nil)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

// A payload shorter than one frame still produces one whole zero-padded
// frame, and the container header trims the padding on the way back.
func TestEncodeFramesPadsFinalChunk(t *testing.T) {
	y := testYTFrame()
	cfg := testConfig()

	g, err := cfg.Geometry()
	require.NoError(t, err)

	framed, err := payload.Frame([]byte{0xde, 0xad}, nil)
	require.NoError(t, err)
	require.Less(t, len(framed), g.BlocksPerFrame)

	var sink bytes.Buffer
	frames, err := y.EncodeFrames(context.Background(), framed, cfg, &sink)
	require.NoError(t, err)
	assert.Equal(t, 1, frames)
	assert.Equal(t, g.FrameSize(), sink.Len())

	recovered, err := y.DecodeFrames(context.Background(), bytes.NewReader(sink.Bytes()), cfg)
	require.NoError(t, err)

	got, err := payload.Unframe(recovered, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, got)
}

func TestDecodeFramesDimensionMismatch(t *testing.T) {
	y := testYTFrame()
	cfg := testConfig()

	g, err := cfg.Geometry()
	require.NoError(t, err)

	for _, table := range []struct {
		name string
		size int
	}{
		{name: "empty", size: 0},
		{name: "partial_frame", size: g.FrameSize() - 1},
		{name: "trailing_bytes", size: 2*g.FrameSize() + 3},
	} {
		t.Run(table.name, func(t *testing.T) {
			_, err := y.DecodeFrames(context.Background(), bytes.NewReader(make([]byte, table.size)), cfg)
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

func TestEncodeFramesInvalidGeometry(t *testing.T) {
	y := testYTFrame()
	cfg := Config{Width: 8, Height: 8, Block: 8, Gutter: 1}

	_, err := y.EncodeFrames(context.Background(), []byte{1}, cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

type failWriter struct {
	n int
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, errors.New("stream closed")
	}
	w.n--
	return len(p), nil
}

// A sink rejecting a write, as ffmpeg does when it exits early, aborts the
// whole run.
func TestEncodeFramesSinkFailure(t *testing.T) {
	y := testYTFrame()
	cfg := testConfig()

	g, err := cfg.Geometry()
	require.NoError(t, err)

	framed := make([]byte, 10*g.BlocksPerFrame)

	_, err = y.EncodeFrames(context.Background(), framed, cfg, &failWriter{n: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink")
}

func TestEncodeFramesCancelled(t *testing.T) {
	y := testYTFrame()
	cfg := testConfig()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := cfg.Geometry()
	require.NoError(t, err)

	_, err = y.EncodeFrames(ctx, make([]byte, 100*g.BlocksPerFrame), cfg, &bytes.Buffer{})
	assert.Error(t, err)
}
