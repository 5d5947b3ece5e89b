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

package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jetsetilly/framepacer/assert"
	"github.com/jetsetilly/framepacer/logger"
	"github.com/jetsetilly/framepacer/vblank"
)

// DefaultRefreshRate is the refresh rate of a new Scheduler.
const DefaultRefreshRate = 50

// a vblank source is faster than the refresh rate if its period is shorter
// than the optimal redraw time by more than 1/sourceMargin of it
const sourceMargin = 20

// Scheduler drives a pipeline through the Dispatch interface.
type Scheduler struct {
	dispatch Dispatch
	clk      Clock

	// goroutine running the scheduler
	owner assert.Owner

	state State

	// time at which the Scheduled state should become Preparing
	due time.Time

	// may be changed from any goroutine
	refreshRate atomic.Int32
	limiter     atomic.Int32

	// the time the most recent cycle began and the time since the cycle before
	// that, clamped to the optimal redraw time
	lastRedraw time.Time
	redrawTime time.Duration

	// number of completed cycles
	cycles int

	// number of cycles in which the source had to wait for the blank
	throttled int

	// the vblank source has said that it wants no more samples
	exhausted bool

	// nil if the scheduler is to run without synchronisation
	source vblank.Source
}

// NewScheduler is the preferred method of initialisation for the Scheduler
// type. A nil Clock will use the system clock.
func NewScheduler(dispatch Dispatch, clk Clock) *Scheduler {
	if clk == nil {
		clk = systemClock{}
	}
	sch := &Scheduler{
		dispatch: dispatch,
		clk:      clk,
	}
	sch.refreshRate.Store(DefaultRefreshRate)
	sch.limiter.Store(int32(LimiterDefault))
	return sch
}

// SetRefreshRate sets the target number of frames per second. Values of less
// than one are ignored. The new rate is used from the next cycle.
func (sch *Scheduler) SetRefreshRate(hz int) {
	if hz < 1 {
		logger.Logf(logger.Allow, "scheduler", "ignoring refresh rate of %dHz", hz)
		return
	}
	if int(sch.refreshRate.Swap(int32(hz))) != hz {
		logger.Logf(logger.Allow, "scheduler", "refresh rate: %dHz", hz)
	}
}

// RefreshRate returns the target number of frames per second.
func (sch *Scheduler) RefreshRate() int {
	return int(sch.refreshRate.Load())
}

// SetLimiter changes how cycles are paced. The new limiter is used from the
// next cycle.
func (sch *Scheduler) SetLimiter(l Limiter) {
	sch.limiter.Store(int32(l))
}

// Limiter returns the current limiter.
func (sch *Scheduler) Limiter() Limiter {
	return Limiter(sch.limiter.Load())
}

// OptimalRedrawTime returns the interval between frames for the refresh rate.
func (sch *Scheduler) OptimalRedrawTime() time.Duration {
	return time.Second / time.Duration(sch.refreshRate.Load())
}

// RedrawTime returns the time between the start of the two most recent
// cycles, clamped to the optimal redraw time.
func (sch *Scheduler) RedrawTime() time.Duration {
	return sch.redrawTime
}

// State returns the current state of the scheduler.
func (sch *Scheduler) State() State {
	return sch.state
}

// Cycles returns the number of completed cycles.
func (sch *Scheduler) Cycles() int {
	return sch.cycles
}

// ThrottledFrames returns the number of cycles in which the vblank source had
// to wait for the blank.
func (sch *Scheduler) ThrottledFrames() int {
	return sch.throttled
}

// Exhausted returns true if the scheduler became idle because the vblank
// source wanted no more samples.
func (sch *Scheduler) Exhausted() bool {
	return sch.exhausted
}

// Source returns the bound vblank source. Returns nil if no source is bound.
func (sch *Scheduler) Source() vblank.Source {
	return sch.source
}

// SetSource binds a vblank source to the scheduler. The scheduler takes
// ownership of the source and any previously bound source is closed. A nil
// source means that the scheduler runs without synchronisation.
func (sch *Scheduler) SetSource(src vblank.Source) {
	sch.owner.Check("SetSource")

	if sch.source == src {
		return
	}

	if sch.source != nil {
		if err := sch.source.Close(); err != nil {
			logger.Logf(logger.Allow, "scheduler", "closing source: %v", err)
		}
	}

	sch.source = src
	sch.exhausted = false

	if src == nil {
		logger.Log(logger.Allow, "scheduler", "no vblank source")
	} else {
		logger.Logf(logger.Allow, "scheduler", "vblank source: %T", src)
	}
}

// Destroy closes the bound vblank source. Any goroutine owned by the source
// has ended by the time Destroy() returns. The scheduler is left idle.
func (sch *Scheduler) Destroy() error {
	sch.owner.Check("Destroy")

	sch.state = Idle

	if sch.source == nil {
		return nil
	}
	err := sch.source.Close()
	sch.source = nil
	return err
}

// clamp elapsed time to the range zero to the optimal redraw time
func (sch *Scheduler) clamp(elapsed time.Duration) time.Duration {
	if elapsed < 0 {
		return 0
	}
	if optimal := sch.OptimalRedrawTime(); elapsed > optimal {
		return optimal
	}
	return elapsed
}

// sourceFaster returns true if the bound source produces blanks more often
// than the refresh rate allows
func (sch *Scheduler) sourceFaster() bool {
	p, ok := sch.source.(vblank.Periodic)
	if !ok {
		return false
	}
	per := p.Period()
	optimal := sch.OptimalRedrawTime()
	return per > 0 && per < optimal-optimal/sourceMargin
}

// delay before the next cycle should begin
func (sch *Scheduler) delay(now time.Time) time.Duration {
	if sch.Limiter() != LimiterDefault {
		return 0
	}
	if sch.dispatch.HasVSync() && !sch.sourceFaster() {
		return 0
	}
	if sch.lastRedraw.IsZero() {
		return 0
	}
	return sch.OptimalRedrawTime() - sch.clamp(now.Sub(sch.lastRedraw))
}

// Schedule starts a new sequence of cycles. Returns false if compositing is
// not active or if the scheduler is not idle. Calling Schedule() while cycles
// are in progress is harmless.
func (sch *Scheduler) Schedule() bool {
	sch.owner.Check("Schedule")

	if !sch.dispatch.CompositingActive() {
		return false
	}
	if sch.state != Idle {
		return false
	}

	sch.exhausted = false
	sch.state = Scheduled

	now := sch.clk.Now()
	sch.due = now.Add(sch.delay(now))

	return true
}

// shouldSync returns true if the Syncing state should be entered this cycle
func (sch *Scheduler) shouldSync() bool {
	if sch.source == nil || sch.Limiter() == LimiterDisabled {
		return false
	}
	if !sch.dispatch.CompositingActive() || sch.dispatch.Finished() {
		return false
	}
	return sch.dispatch.SyncScheduledPaint()
}

// cycle runs a single cycle from Preparing to Done
func (sch *Scheduler) cycle() {
	now := sch.clk.Now()

	sch.state = Preparing
	if sch.lastRedraw.IsZero() {
		sch.redrawTime = 0
	} else {
		sch.redrawTime = sch.clamp(now.Sub(sch.lastRedraw))
	}
	sch.lastRedraw = now

	if !sch.dispatch.PrepareScheduledPaint(sch.redrawTime) {
		sch.state = Idle
		return
	}

	if sch.source != nil {
		sch.source.Timings().RecordPaint(now)
	}

	sch.state = Painting
	sch.dispatch.PaintScheduledPaint()

	if sch.shouldSync() {
		sch.state = Syncing
		if !sch.source.WaitVBlank() {
			sch.exhausted = true
		}
		if sch.source.Throttled() {
			sch.throttled++
		}
	}

	sch.state = Done
	again := sch.dispatch.DoneScheduledPaint()
	sch.cycles++

	if !again || sch.exhausted {
		sch.state = Idle
		return
	}

	sch.state = Scheduled
	end := sch.clk.Now()
	sch.due = end.Add(sch.delay(end))
}

// Service runs a cycle if one is due. It never waits. Returns false if the
// scheduler is idle.
func (sch *Scheduler) Service() bool {
	sch.owner.Check("Service")

	if sch.state == Scheduled && !sch.clk.Now().Before(sch.due) {
		sch.cycle()
	}
	return sch.state != Idle
}

// Run cycles until the scheduler becomes idle or until the context is
// cancelled. Waiting for a cycle to become due can be interrupted by the
// context but a cycle in progress cannot.
func (sch *Scheduler) Run(ctx context.Context) error {
	sch.owner.Check("Run")

	for sch.state != Idle {
		if err := ctx.Err(); err != nil {
			return err
		}

		if d := sch.due.Sub(sch.clk.Now()); d > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-sch.clk.After(d):
			}
		}

		sch.cycle()
	}

	return nil
}
