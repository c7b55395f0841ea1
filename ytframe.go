/*
Package ytframe encodes arbitrary files into sequences of grayscale video
frames and recovers them byte-exact afterwards, so that a file can survive
transport through a lossy video codec and a video hosting service.

The payload is wrapped in a small self-describing container (package
payload), split into per-frame chunks and rendered one chunk per frame by
the raster codec (package frame). The ordered frame stream is piped through
an external ffmpeg process (package ffmpeg) on both sides of the trip.
*/
package ytframe

import "log"

// YTFrame ties the codec pipeline to an optional run store and a logger.
type YTFrame struct {
	db     *RunDB
	logger *log.Logger
}

// New returns a YTFrame. db may be nil when no run history is wanted.
func New(db *RunDB, logger *log.Logger) *YTFrame {
	return &YTFrame{
		db:     db,
		logger: logger,
	}
}
