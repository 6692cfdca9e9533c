// Package frameloop drives a surface pool through a scenario of frames the
// way a compositor's render loop would.
package frameloop

import (
	"context"
	"fmt"

	"github.com/gogpu/surfacepool"
	"github.com/gogpu/surfacepool/internal/config"
)

// DefaultMaxInFlight is the default number of submitted frames the loop
// lets the GPU work on before it waits for one to finish.
const DefaultMaxInFlight = 2

// Resizer is implemented by surfaces that can change their logical size
// without reallocating when the new size fits.
type Resizer interface {
	Resize(size surfacepool.Size) error
}

// DrawFunc renders frame into s.
type DrawFunc func(s surfacepool.Surface, frame int) error

// Options configures a Loop. Zero values select defaults.
type Options struct {
	// AgeEvery is the number of frames between AgeAndCollect passes.
	AgeEvery int

	// ReportEvery is the number of frames between statistics reports.
	ReportEvery int

	// MaxInFlight bounds the number of pending surfaces.
	MaxInFlight int

	// ResizeInPlace makes the first frame of a phase that shrinks the
	// surface reuse a surface of the previous size and resize it, leaving
	// it oversized for the pool to replace later.
	ResizeInPlace bool
}

// Result summarizes a run.
type Result struct {
	// Frames is the number of frames drawn and submitted.
	Frames int

	// Skipped is the number of frames dropped because no surface could
	// be acquired.
	Skipped int

	// Created and Reused are totals over every statistics report.
	Created int
	Reused  int

	// Reports is the number of statistics reports taken.
	Reports int

	// Final is the report taken after the pool was drained and shrunk.
	Final surfacepool.Statistics
}

// Loop runs frames against one pool. A Loop is used from one goroutine.
type Loop struct {
	pool *surfacepool.Pool
	draw DrawFunc
	opts Options
}

// New creates a loop that draws with draw into surfaces from pool.
func New(pool *surfacepool.Pool, draw DrawFunc, opts Options) *Loop {
	if opts.AgeEvery <= 0 {
		opts.AgeEvery = 1
	}
	if opts.ReportEvery <= 0 {
		opts.ReportEvery = config.DefaultReportEvery
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	return &Loop{pool: pool, draw: draw, opts: opts}
}

// Run plays phases in order. After the last frame it waits for pending
// surfaces, shrinks the pool to fit and takes a final report.
func (l *Loop) Run(ctx context.Context, phases []config.Phase) (Result, error) {
	var res Result
	var prev surfacepool.Size
	frame := 0

	for _, phase := range phases {
		size := phase.Size()
		for i := range phase.Frames {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if err := l.throttle(ctx); err != nil {
				return res, err
			}

			shrinkFrom := surfacepool.Size{}
			if i == 0 && l.opts.ResizeInPlace && fitsInside(size, prev) {
				shrinkFrom = prev
			}
			if l.frame(size, shrinkFrom, frame) {
				res.Frames++
			} else {
				res.Skipped++
			}
			frame++

			if frame%l.opts.AgeEvery == 0 {
				l.pool.AgeAndCollect()
			}
			if frame%l.opts.ReportEvery == 0 {
				res.add(l.pool.ReportStatistics())
			}
		}
		prev = size
	}

	if err := l.pool.WaitForPending(ctx); err != nil {
		return res, fmt.Errorf("wait for pending surfaces: %w", err)
	}
	l.pool.ShrinkToFit()
	res.Final = l.pool.ReportStatistics()
	res.add(res.Final)
	return res, nil
}

// frame acquires, draws and submits one surface. It reports whether a
// surface was submitted.
func (l *Loop) frame(size, shrinkFrom surfacepool.Size, frame int) bool {
	acquire := size
	if !shrinkFrom.Empty() {
		acquire = shrinkFrom
	}

	s, err := l.pool.Acquire(acquire)
	if err != nil {
		surfacepool.Logger().Warn("frame skipped", "frame", frame, "size", acquire, "err", err)
		return false
	}

	if acquire != size {
		r, ok := s.(Resizer)
		if !ok {
			// Cannot shrink in place; drop it and take an exact surface.
			l.pool.Submit(s)
			if s, err = l.pool.Acquire(size); err != nil {
				surfacepool.Logger().Warn("frame skipped", "frame", frame, "size", size, "err", err)
				return false
			}
		} else if err := r.Resize(size); err != nil {
			surfacepool.Logger().Warn("resize failed", "frame", frame, "id", s.ID(), "err", err)
		}
	}

	if err := l.draw(s, frame); err != nil {
		surfacepool.Logger().Warn("draw failed", "frame", frame, "id", s.ID(), "err", err)
	}
	l.pool.Submit(s)
	return true
}

// throttle waits until fewer than MaxInFlight surfaces are pending.
func (l *Loop) throttle(ctx context.Context) error {
	for {
		l.pool.Reclaim()
		if l.pool.PendingLen() < l.opts.MaxInFlight {
			return nil
		}
		select {
		case <-l.pool.Notify():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Result) add(s surfacepool.Statistics) {
	r.Created += s.Created
	r.Reused += s.Reused
	r.Reports++
}

// fitsInside reports whether size is strictly smaller than outer in at
// least one dimension and no larger in either.
func fitsInside(size, outer surfacepool.Size) bool {
	if outer.Empty() || size == outer {
		return false
	}
	return size.Width <= outer.Width && size.Height <= outer.Height
}
