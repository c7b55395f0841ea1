/*
Package ffmpeg wraps the external ffmpeg binary as the raster sink and
source of the codec pipeline.

On encode, frames are piped as raw grayscale video into ffmpeg's stdin and
muxed into a lossless VP9 webm, which survives the hosting service's
recompression well enough for the codec's thresholding to recover every
bit. On decode, ffmpeg extracts the same flat grayscale byte stream from
the downloaded video. Any resampling, frame rate conversion or cropping by
the transcoder corrupts recovery, so both directions pin the pixel format,
dimensions and frame rate explicitly.
*/
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Spec pins the video dimensions and frame rate. It must match the codec
// configuration exactly on both sides.
type Spec struct {
	Width  int
	Height int
	FPS    int
}

func (s Spec) size() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Error reports a failure of the external ffmpeg process. All transcoder
// failures are fatal; a frame stream cannot be resumed mid-run.
type Error struct {
	Op     string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg: %s: %v: %s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Option configures the transcoder.
type Option func(*Transcoder)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(t *Transcoder) {
		if binary != "" {
			t.binary = binary
		}
	}
}

// Transcoder wraps the ffmpeg command-line tool.
type Transcoder struct {
	binary string
}

// New constructs a Transcoder using defaults.
func New(opts ...Option) *Transcoder {
	t := &Transcoder{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Mux launches ffmpeg reading raw grayscale frames from stdin and writing
// a lossless VP9 webm to outPath. render is called with the stdin pipe and
// must write whole frames in order; a write rejected because ffmpeg closed
// the pipe early aborts the run.
func (t *Transcoder) Mux(ctx context.Context, spec Spec, outPath string, render func(io.Writer) error) error {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-s", spec.size(),
		"-r", strconv.Itoa(spec.FPS),
		"-i", "-",
		"-c:v", "libvpx-vp9",
		"-lossless", "1",
		"-speed", "8",
		"-row-mt", "1",
		"-tile-columns", "2",
		"-tile-rows", "1",
		"-threads", "8",
		outPath,
	}

	cmd := commandContext(ctx, t.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &Error{Op: "mux", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &Error{Op: "mux", Err: err}
	}

	renderErr := render(stdin)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return &Error{Op: "mux", Stderr: tail(stderr.String()), Err: err}
	}
	if renderErr != nil {
		return &Error{Op: "mux", Stderr: tail(stderr.String()), Err: renderErr}
	}

	return nil
}

// Demux extracts the flat grayscale raster stream from the video at
// inPath.
func (t *Transcoder) Demux(ctx context.Context, inPath string, spec Spec) ([]byte, error) {
	args := []string{
		"-i", inPath,
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-s", spec.size(),
		"-r", strconv.Itoa(spec.FPS),
		"-threads", "0",
		"-",
	}

	cmd := commandContext(ctx, t.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &Error{Op: "demux", Stderr: tail(stderr.String()), Err: err}
	}

	return stdout.Bytes(), nil
}

// tail keeps the last few lines of ffmpeg's stderr, which is where it
// reports the actual failure.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
