package ytframe

import (
	"github.com/bodgit/ytframe/frame"
	"github.com/bodgit/ytframe/payload"
)

// DefaultZstdLevel matches the hosting-friendly default compression level.
const DefaultZstdLevel = 10

// Config is the immutable per-run configuration. The geometry fields must
// be bit-identical on the encode and decode sides; nothing in the frame
// stream carries them.
type Config struct {
	Width  int
	Height int
	Block  int
	Gutter int
	FPS    int

	Compress  bool
	ZstdLevel int
}

// Geometry derives and validates the block grid layout.
func (c Config) Geometry() (frame.Geometry, error) {
	return frame.NewGeometry(c.Width, c.Height, c.Block, c.Gutter)
}

// compressor returns the configured payload compressor, or nil when the
// payload travels uncompressed.
func (c Config) compressor() payload.Compressor {
	if !c.Compress {
		return nil
	}
	level := c.ZstdLevel
	if level == 0 {
		level = DefaultZstdLevel
	}
	return payload.NewZstd(level)
}
