package frame

import "fmt"

// Encode renders one chunk of payload bytes into a grayscale raster. The
// chunk must be exactly g.BlocksPerFrame bytes; short final chunks are
// zero-padded by the caller before they reach the codec. The returned
// buffer is g.FrameSize() bytes, background-initialized, row-major.
func Encode(chunk []byte, g Geometry) ([]byte, error) {
	if len(chunk) != g.BlocksPerFrame {
		return nil, fmt.Errorf("frame: chunk is %d bytes, geometry requires %d", len(chunk), g.BlocksPerFrame)
	}

	img := make([]byte, g.FrameSize())

	for idx, b := range chunk {
		_, y0, sx := g.stripeOrigin(idx)

		y0c := clamp(y0, g.Height)
		y1c := clamp(y0+g.Block, g.Height)

		for bit := 0; bit < bitsPerBlock; bit++ {
			if b>>(7-bit)&1 == 0 {
				// Background is already the zero fill.
				continue
			}

			x0c := clamp(sx+bit*g.StripeWidth, g.Width)
			x1c := clamp(sx+(bit+1)*g.StripeWidth, g.Width)
			if x1c <= x0c || y1c <= y0c {
				continue
			}

			for y := y0c; y < y1c; y++ {
				row := img[y*g.Width+x0c : y*g.Width+x1c]
				for i := range row {
					row[i] = Fill
				}
			}
		}
	}

	return img, nil
}
