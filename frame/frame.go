/*
Package frame implements the raster codec mapping payload bytes to and from
grayscale video frames.

Each frame is a flat width by height buffer of single-byte grayscale samples,
row-major from the top-left corner. The frame is divided into a grid of
square blocks separated by a gutter of unwritten background; each block
encodes exactly one payload byte as eight vertical stripes, one per bit,
most significant bit first. A stripe is filled 255 for a one bit and left at
the background value 0 for a zero bit. The gutter and the block's outer
margin absorb edge bleed introduced by lossy recompression, and the decoder
samples a vertically cropped window inside each stripe so that a fixed
threshold on the window mean survives moderate re-quantization noise.

Encoder and decoder must be configured with bit-identical geometry; the
frame stream carries no geometry of its own, so a mismatch produces garbage
rather than an error.
*/
package frame

import "fmt"

const (
	// Background is the fill value of all unwritten frame pixels.
	Background = 0

	// Fill is the stripe value for a one bit.
	Fill = 255

	bitsPerBlock = 8

	// threshold separates a recovered zero bit from a one bit; a sampled
	// mean of exactly threshold decodes to zero.
	threshold = 127
)

// Geometry is the derived block grid layout for a frame. It is a pure
// function of the four constructor parameters and must be identical on the
// encode and decode sides.
type Geometry struct {
	Width  int
	Height int
	Block  int
	Gutter int

	Cols           int
	Rows           int
	BlocksPerFrame int
	StripeWidth    int
}

// NewGeometry derives the grid layout from the frame and block dimensions.
// Configurations with no capacity, where not even one block fits in a
// frame, are rejected here rather than producing zero-length chunks later.
func NewGeometry(width, height, block, gutter int) (Geometry, error) {
	if width < 1 || height < 1 || block < 1 || gutter < 0 {
		return Geometry{}, fmt.Errorf("frame: invalid dimensions %dx%d block %d gutter %d", width, height, block, gutter)
	}

	cell := block + gutter
	g := Geometry{
		Width:  width,
		Height: height,
		Block:  block,
		Gutter: gutter,
		Cols:   width / cell,
		Rows:   height / cell,
	}
	g.BlocksPerFrame = g.Cols * g.Rows

	if g.BlocksPerFrame < 1 {
		return Geometry{}, fmt.Errorf("frame: %dx%d frame has no capacity for %d pixel blocks with %d pixel gutter", width, height, block, gutter)
	}

	g.StripeWidth = block / bitsPerBlock
	if g.StripeWidth < 1 {
		g.StripeWidth = 1
	}

	return g, nil
}

// FrameSize returns the byte length of one raster.
func (g Geometry) FrameSize() int {
	return g.Width * g.Height
}

// stripeOrigin returns the cell origin and the left edge of the first
// stripe for the block at grid index idx. The eight stripes are centered
// within the block, leaving any remainder as background margin.
func (g Geometry) stripeOrigin(idx int) (x0, y0, sx int) {
	cell := g.Block + g.Gutter
	x0 = idx % g.Cols * cell
	y0 = idx / g.Cols * cell
	sx = x0 + (g.Block-g.StripeWidth*bitsPerBlock)/2
	return
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
