package frame

import "fmt"

// Decode samples one grayscale raster back into a chunk of payload bytes.
// The raster must be exactly g.FrameSize() bytes and the geometry must be
// the one used at encode time. The returned chunk is g.BlocksPerFrame
// bytes; trailing padding is trimmed later by the payload container, not
// here.
func Decode(raster []byte, g Geometry) ([]byte, error) {
	if len(raster) != g.FrameSize() {
		return nil, fmt.Errorf("frame: raster is %d bytes, geometry requires %d", len(raster), g.FrameSize())
	}

	chunk := make([]byte, g.BlocksPerFrame)

	for idx := range chunk {
		_, y0, sx := g.stripeOrigin(idx)

		// Crop one pixel off the top and bottom of the sampling window
		// so the guard band cannot drag the mean across the threshold.
		ys0 := clamp(y0+1, g.Height)
		ys1 := clamp(y0+g.Block-1, g.Height)

		var b byte
		for bit := 0; bit < bitsPerBlock; bit++ {
			xs0 := clamp(sx+bit*g.StripeWidth, g.Width)
			xs1 := clamp(sx+(bit+1)*g.StripeWidth, g.Width)

			var mean int
			if xs1 > xs0 && ys1 > ys0 {
				var sum int
				for y := ys0; y < ys1; y++ {
					for _, p := range raster[y*g.Width+xs0 : y*g.Width+xs1] {
						sum += int(p)
					}
				}
				mean = sum / ((ys1 - ys0) * (xs1 - xs0))
			}

			b <<= 1
			if mean > threshold {
				b |= 1
			}
		}
		chunk[idx] = b
	}

	return chunk, nil
}
