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
	"fmt"
	"strings"
	"time"

	"github.com/jetsetilly/framepacer/curated"
)

// Dispatch is implemented by the pipeline being driven by the Scheduler. All
// functions are called from the goroutine running the Scheduler. Finished()
// may also be called by the listener goroutine of a vblank.Hardware source and
// so must be safe for concurrent use.
type Dispatch interface {
	// prepare the next frame. elapsed is the time since the previous cycle
	// began, clamped to the refresh interval. returning false abandons the
	// cycle and the Scheduler becomes idle
	PrepareScheduledPaint(elapsed time.Duration) bool

	// render the frame
	PaintScheduledPaint()

	// whether to wait for the vertical blank this cycle. only called if a
	// vblank source is bound
	SyncScheduledPaint() bool

	// the frame is complete. returns true if another cycle is wanted
	DoneScheduledPaint() bool

	// whether there is anything to composite
	CompositingActive() bool

	// whether frames are synchronised with the display
	HasVSync() bool

	// whether the pipeline has finished for good
	Finished() bool
}

// Clock is the source of time for the Scheduler.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// State of the Scheduler.
type State int

// List of valid State values.
const (
	Idle State = iota
	Scheduled
	Preparing
	Painting
	Syncing
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Preparing:
		return "preparing"
	case Painting:
		return "painting"
	case Syncing:
		return "syncing"
	case Done:
		return "done"
	}
	return fmt.Sprintf("unknown state (%d)", int(s))
}

// Limiter selects how the Scheduler paces cycles.
type Limiter int

// List of valid Limiter values.
const (
	// if the pipeline has vsync then the next cycle is scheduled immediately
	// and the pacing is left to the vblank source. otherwise the cycle is
	// delayed until the refresh interval has passed
	LimiterDefault Limiter = iota

	// the next cycle is always scheduled immediately and the pacing is left
	// to the vblank source
	LimiterVSyncLike

	// the next cycle is always scheduled immediately and the vblank source is
	// never used
	LimiterDisabled
)

// UnknownLimiter is returned by ParseLimiter() for a name that is not in
// LimiterNames.
const UnknownLimiter = "scheduler: unknown limiter: %s"

// LimiterNames lists the names of the Limiter values as returned by String().
var LimiterNames = []string{"DEFAULT", "VSYNCLIKE", "DISABLED"}

func (l Limiter) String() string {
	if l >= 0 && int(l) < len(LimiterNames) {
		return LimiterNames[l]
	}
	return fmt.Sprintf("unknown limiter (%d)", int(l))
}

// ParseLimiter returns the Limiter with the given name. The name is not case
// sensitive.
func ParseLimiter(s string) (Limiter, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range LimiterNames {
		if n == s {
			return Limiter(i), nil
		}
	}
	return LimiterDefault, curated.Errorf(UnknownLimiter, s)
}
