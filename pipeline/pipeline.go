// This file is part of Framepacer.
//
// Framepacer is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Framepacer is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Framepacer.  If not, see <https://www.gnu.org/licenses/>.

package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/logger"
	"github.com/jetsetilly/framepacer/performance"
	"github.com/jetsetilly/framepacer/scheduler"
	"github.com/jetsetilly/framepacer/timing"
	"github.com/jetsetilly/framepacer/vblank"
)

// VSync overrides the vsync capability reported by the pipeline.
type VSync int

// List of valid VSync values.
const (
	VSyncFromSource VSync = iota
	VSyncOn
	VSyncOff
)

// Unsampled is returned by Run() when the pipeline has no rolling evaluation
// and no frame budget and the scheduler will never wait for a blank. The
// timing history can never fill so the pipeline would never end.
const Unsampled = "pipeline: timing history cannot fill: %s"

// size of the request queue
const requestQueueLen = 16

// Stats is a snapshot of the pipeline.
type Stats struct {
	State         string
	Source        string
	RefreshRate   int
	Limiter       string
	Cycles        int
	Painted       int
	Substitutions int
	Throttled     int
	MeasuredFPS   float32
	AveragePeriod time.Duration
	AveragePhase  time.Duration
	Samples       int
}

// Pipeline implements the scheduler.Dispatch interface.
type Pipeline struct {
	sch   *scheduler.Scheduler
	rec   *timing.Recorder
	meter *performance.Meter

	finished    atomic.Bool
	compositing atomic.Bool

	// functions to be run on the scheduler's goroutine
	requests chan func()

	// fraction of the frame interval spent painting
	work float64

	// maximum number of frames to paint. zero for no limit
	budget  int
	painted int

	vsync VSync

	// evaluate and reset the timing history when it is full
	rolling   bool
	tolerance time.Duration
	onReport  func(timing.Report)

	// number of times the source has been replaced because it failed
	substitutions int

	// throttled frame count of the scheduler when the timing history was
	// last reset
	throttledBase int
}

// NewPipeline is the preferred method of initialisation for the Pipeline type.
// The recorder is the timing history used by every vblank source bound to the
// pipeline.
func NewPipeline(rec *timing.Recorder) *Pipeline {
	p := &Pipeline{
		rec:       rec,
		meter:     performance.NewMeter(performance.DefaultMeasuringPeriod),
		requests:  make(chan func(), requestQueueLen),
		tolerance: timing.DefaultTolerance,
	}
	p.compositing.Store(true)
	p.sch = scheduler.NewScheduler(p, nil)
	return p
}

// Scheduler returns the scheduler driving the pipeline.
func (p *Pipeline) Scheduler() *scheduler.Scheduler {
	return p.sch
}

// Timings returns the timing history of the pipeline.
func (p *Pipeline) Timings() *timing.Recorder {
	return p.rec
}

// Meter returns the frame rate meter.
func (p *Pipeline) Meter() *performance.Meter {
	return p.meter
}

// SetWork sets the fraction of the frame interval spent painting. Values
// greater than one simulate a pipeline that cannot keep up.
func (p *Pipeline) SetWork(work float64) {
	if work < 0 {
		work = 0
	}
	p.work = work
}

// SetBudget sets the maximum number of frames to paint. Zero means no limit.
func (p *Pipeline) SetBudget(frames int) {
	p.budget = frames
}

// SetVSync overrides the vsync capability of the bound source.
func (p *Pipeline) SetVSync(v VSync) {
	p.vsync = v
}

// SetRolling selects rolling mode. The function is called with the report for
// every full timing history.
func (p *Pipeline) SetRolling(tolerance time.Duration, onReport func(timing.Report)) {
	p.rolling = true
	p.tolerance = tolerance
	p.onReport = onReport
}

// SetCompositing sets whether the pipeline has anything to composite. Safe to
// call from any goroutine.
func (p *Pipeline) SetCompositing(active bool) {
	p.compositing.Store(active)
}

// Finish ends the pipeline. Safe to call from any goroutine.
func (p *Pipeline) Finish() {
	p.finished.Store(true)
}

// Request queues a function to be run by the goroutine driving the scheduler
// before the next frame is prepared. Safe to call from any goroutine. Returns
// false without queueing the function if the queue is full, which will be the
// case if the pipeline is no longer running.
func (p *Pipeline) Request(f func()) bool {
	select {
	case p.requests <- f:
		return true
	default:
		logger.Log(logger.Allow, "pipeline", "request queue is full")
		return false
	}
}

// Painted returns the number of frames painted.
func (p *Pipeline) Painted() int {
	return p.painted
}

// Substitutions returns the number of times a failed source was replaced.
func (p *Pipeline) Substitutions() int {
	return p.substitutions
}

// Stats returns a snapshot of the pipeline. Should be called from the
// goroutine driving the scheduler.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		State:         p.sch.State().String(),
		Source:        "none",
		RefreshRate:   p.sch.RefreshRate(),
		Limiter:       p.sch.Limiter().String(),
		Cycles:        p.sch.Cycles(),
		Painted:       p.painted,
		Substitutions: p.substitutions,
		Throttled:     p.sch.ThrottledFrames(),
		MeasuredFPS:   p.meter.Measured(),
		AveragePeriod: p.rec.AveragePeriod(),
		AveragePhase:  p.rec.AveragePhase(),
		Samples:       p.rec.Len(),
	}
	if src := p.sch.Source(); src != nil {
		s.Source = sourceName(src)
	}
	return s
}

func sourceName(src vblank.Source) string {
	switch src.(type) {
	case *vblank.Hardware:
		return vblank.SourceDRM
	case *vblank.Sleep:
		return vblank.SourceSleep
	case *vblank.Null:
		return vblank.SourceNull
	}
	return fmt.Sprintf("%T", src)
}

// Evaluate the timing history against the refresh rate of the scheduler. The
// report includes the number of throttled frames since the history was last
// reset with ResetTimings().
func (p *Pipeline) Evaluate(tolerance time.Duration) timing.Report {
	rep := p.rec.Evaluate(p.sch.OptimalRedrawTime(), tolerance, p.HasVSync())
	rep.Throttled = p.sch.ThrottledFrames() - p.throttledBase
	return rep
}

// ResetTimings clears the timing history. Should be called from the goroutine
// driving the scheduler.
func (p *Pipeline) ResetTimings() {
	p.rec.Reset()
	p.throttledBase = p.sch.ThrottledFrames()
}

// unsampled returns a reason if the pipeline can only be ended by Finish()
// or by cancelling the context, which is a mistake for a pipeline that is
// meant to end when the timing history is full. returns the empty string
// otherwise
func (p *Pipeline) unsampled() string {
	if p.rolling || p.budget > 0 {
		return ""
	}
	if p.sch.Source() == nil {
		return "no vblank source"
	}
	if l := p.sch.Limiter(); l == scheduler.LimiterDisabled {
		return fmt.Sprintf("limiter is %s", l)
	}
	return ""
}

// drain the request queue
func (p *Pipeline) serviceRequests() {
	for {
		select {
		case f := <-p.requests:
			f()
		default:
			return
		}
	}
}

func (p *Pipeline) budgetReached() bool {
	return p.budget > 0 && p.painted >= p.budget
}

// PrepareScheduledPaint implements the scheduler.Dispatch interface.
func (p *Pipeline) PrepareScheduledPaint(_ time.Duration) bool {
	p.serviceRequests()
	if p.finished.Load() || p.budgetReached() || p.unsampled() != "" {
		return false
	}
	return p.rolling || !p.rec.Full()
}

// PaintScheduledPaint implements the scheduler.Dispatch interface.
func (p *Pipeline) PaintScheduledPaint() {
	if p.work > 0 {
		time.Sleep(time.Duration(p.work * float64(p.sch.OptimalRedrawTime())))
	}
	p.painted++
	p.meter.Tick()
}

// SyncScheduledPaint implements the scheduler.Dispatch interface.
func (p *Pipeline) SyncScheduledPaint() bool {
	return true
}

// DoneScheduledPaint implements the scheduler.Dispatch interface.
func (p *Pipeline) DoneScheduledPaint() bool {
	return !p.finished.Load() && !p.budgetReached()
}

// CompositingActive implements the scheduler.Dispatch interface.
func (p *Pipeline) CompositingActive() bool {
	return p.compositing.Load()
}

// HasVSync implements the scheduler.Dispatch interface.
func (p *Pipeline) HasVSync() bool {
	switch p.vsync {
	case VSyncOn:
		return true
	case VSyncOff:
		return false
	}
	src := p.sch.Source()
	return src != nil && src.HasVSync()
}

// Finished implements the scheduler.Dispatch interface.
func (p *Pipeline) Finished() bool {
	return p.finished.Load()
}

// Run the pipeline until it ends or until the context is cancelled. Returns
// nil if compositing is not active when Run() is called.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		if !p.sch.Schedule() {
			return nil
		}

		err := p.sch.Run(ctx)
		if err != nil {
			return err
		}

		if p.finished.Load() || p.budgetReached() {
			return nil
		}

		// scheduler is idle for a reason other than the pipeline ending
		switch {
		case p.rec.Full():
			if !p.rolling {
				return nil
			}
			rep := p.Evaluate(p.tolerance)
			if !rep.Pass {
				logger.Log(logger.Allow, "timing", rep.String())
			}
			if p.onReport != nil {
				p.onReport(rep)
			}
			p.ResetTimings()

		case p.sch.Exhausted():
			p.substitute()

		case p.unsampled() != "":
			return curated.Errorf(Unsampled, p.unsampled())

		default:
			// a request or a change in compositing may have ended the cycle.
			// give requests a chance to be serviced before scheduling again
			p.serviceRequests()
		}
	}
}

// substitute a Sleep source for a source that has stopped producing blanks
func (p *Pipeline) substitute() {
	src := p.sch.Source()
	name := "none"
	if src != nil {
		name = sourceName(src)
	}
	logger.Logf(logger.Allow, "scheduler", "%s source has failed. falling back to %s", name, vblank.SourceSleep)
	p.sch.SetSource(vblank.NewSleep(p.rec, p.sch.OptimalRedrawTime()))
	p.substitutions++
}

// End the pipeline and release the vblank source.
func (p *Pipeline) End() error {
	p.Finish()
	p.meter.Stop()
	return p.sch.Destroy()
}
