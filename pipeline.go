package ytframe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/bodgit/ytframe/frame"
)

// ErrDimensionMismatch is returned when the recovered byte stream does not
// divide into whole frames of the configured geometry, which means the
// encode and decode sides disagree about width and height.
var ErrDimensionMismatch = errors.New("ytframe: recovered stream does not match frame geometry")

// chunkJob carries one frame's worth of bytes through the pipeline, tagged
// with its frame index so results can be re-sequenced after the worker
// pool. data is a payload chunk on the way in and a rendered raster on the
// way out (and vice versa on decode).
type chunkJob struct {
	idx  int
	data []byte
}

func framesNeeded(n int, g frame.Geometry) int {
	return (n + g.BlocksPerFrame - 1) / g.BlocksPerFrame
}

// chunkProducer splits the framed payload into consecutive
// BlocksPerFrame-byte chunks, zero-padding the final one.
func (y *YTFrame) chunkProducer(ctx context.Context, framed []byte, g frame.Geometry) (<-chan chunkJob, <-chan error) {
	out := make(chan chunkJob)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i := 0; i < framesNeeded(len(framed), g); i++ {
			chunk := make([]byte, g.BlocksPerFrame)
			end := (i + 1) * g.BlocksPerFrame
			if end > len(framed) {
				end = len(framed)
			}
			copy(chunk, framed[i*g.BlocksPerFrame:end])

			select {
			case out <- chunkJob{idx: i, data: chunk}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc
}

// rasterProducer splits a recovered raster stream into whole frames.
func (y *YTFrame) rasterProducer(ctx context.Context, raw []byte, g frame.Geometry) (<-chan chunkJob, <-chan error) {
	out := make(chan chunkJob)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		size := g.FrameSize()
		for i := 0; i < len(raw)/size; i++ {
			select {
			case out <- chunkJob{idx: i, data: raw[i*size : (i+1)*size]}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc
}

// codecWorker applies fn to each job. Frames are independent of one
// another, so any number of workers may run concurrently.
func (y *YTFrame) codecWorker(ctx context.Context, in <-chan chunkJob, fn func([]byte) ([]byte, error)) (<-chan chunkJob, <-chan error) {
	out := make(chan chunkJob)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for job := range in {
			data, err := fn(job.data)
			if err != nil {
				errc <- err
				return
			}
			select {
			case out <- chunkJob{idx: job.idx, data: data}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc
}

// reorder re-sequences worker results by frame index before they are
// emitted. Both the sink on encode and the chunk concatenation on decode
// are strictly order-sensitive.
func reorder(in <-chan chunkJob, total int, emit func([]byte) error) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		pending := make(map[int][]byte)
		next := 0
		var failed bool
		for job := range in {
			if failed {
				continue
			}
			pending[job.idx] = job.data
			for {
				data, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := emit(data); err != nil {
					errc <- err
					failed = true
					break
				}
				next++
			}
		}
		if !failed && next != total {
			errc <- fmt.Errorf("ytframe: pipeline produced %d of %d frames", next, total)
		}
	}()
	return errc
}

func mergeChunks(cs ...<-chan chunkJob) <-chan chunkJob {
	var wg sync.WaitGroup
	out := make(chan chunkJob)
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan chunkJob) {
			for j := range c {
				out <- j
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// EncodeFrames renders the framed payload into an ordered raster stream on
// sink and returns the number of frames written. Chunks are rendered by a
// bounded worker pool and re-sequenced by frame index before the sink sees
// them.
func (y *YTFrame) EncodeFrames(ctx context.Context, framed []byte, cfg Config, sink io.Writer) (int, error) {
	g, err := cfg.Geometry()
	if err != nil {
		return 0, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	jobs, errc := y.chunkProducer(ctx, framed, g)
	errcList = append(errcList, errc)

	outs := make([]<-chan chunkJob, 0, runtime.NumCPU())
	for i := 0; i < runtime.NumCPU(); i++ {
		out, errc := y.codecWorker(ctx, jobs, func(chunk []byte) ([]byte, error) {
			return frame.Encode(chunk, g)
		})
		outs = append(outs, out)
		errcList = append(errcList, errc)
	}

	total := framesNeeded(len(framed), g)
	errcList = append(errcList, reorder(mergeChunks(outs...), total, func(raster []byte) error {
		if _, err := sink.Write(raster); err != nil {
			return fmt.Errorf("ytframe: write frame to sink: %w", err)
		}
		return nil
	}))

	return total, waitForPipeline(errcList...)
}

// DecodeFrames samples every frame of the raster stream on source and
// returns the concatenated recovered chunks. The result is generally
// longer than the true payload; the container header trims it.
func (y *YTFrame) DecodeFrames(ctx context.Context, source io.Reader, cfg Config) ([]byte, error) {
	g, err := cfg.Geometry()
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("ytframe: read raster source: %w", err)
	}
	if len(raw) == 0 || len(raw)%g.FrameSize() != 0 {
		return nil, fmt.Errorf("%w: %d recovered bytes is not a whole number of %d byte frames", ErrDimensionMismatch, len(raw), g.FrameSize())
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	jobs, errc := y.rasterProducer(ctx, raw, g)
	errcList = append(errcList, errc)

	outs := make([]<-chan chunkJob, 0, runtime.NumCPU())
	for i := 0; i < runtime.NumCPU(); i++ {
		out, errc := y.codecWorker(ctx, jobs, func(raster []byte) ([]byte, error) {
			return frame.Decode(raster, g)
		})
		outs = append(outs, out)
		errcList = append(errcList, errc)
	}

	total := len(raw) / g.FrameSize()
	recovered := make([]byte, 0, total*g.BlocksPerFrame)
	errcList = append(errcList, reorder(mergeChunks(outs...), total, func(chunk []byte) error {
		recovered = append(recovered, chunk...)
		return nil
	}))

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}
	return recovered, nil
}
