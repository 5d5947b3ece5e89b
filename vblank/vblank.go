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

package vblank

import (
	"time"

	"github.com/jetsetilly/framepacer/timing"
)

// Sentinal error patterns returned by source constructors and the
// Hardware listener.
const (
	NoDevice     = "vblank: no device: %v"
	ArmFailed    = "vblank: cannot arm: %v"
	DecodeFailed = "vblank: cannot decode event: %v"
)

// Names of the sources that can be selected by the user.
const (
	SourceAuto   = "AUTO"
	SourceDRM    = "DRM"
	SourceSleep  = "SLEEP"
	SourceNull   = "NULL"
	SourceGLSwap = "GLSWAP"
)

// SourceNames lists the valid names for source selection.
var SourceNames = []string{SourceAuto, SourceDRM, SourceSleep, SourceNull, SourceGLSwap}

// Source is implemented by every method of waiting for a vertical blank.
//
// WaitVBlank() and Close() should be called by the goroutine driving the
// scheduler. The Hardware source also accepts Close() from any other
// goroutine, in which case a blocked WaitVBlank() returns false promptly.
// Other sources make no such promise.
type Source interface {
	// WaitVBlank returns after the next vertical blank has been recorded.
	// Returns false if no more samples are wanted, either because the timing
	// history is full or because the source can no longer produce blanks
	WaitVBlank() bool

	// HasVSync returns true if the source represents synchronisation with
	// the display. Timing validation checks the phase only if this is true
	HasVSync() bool

	// Throttled returns true if the most recent call to WaitVBlank() had to
	// wait for the blank
	Throttled() bool

	// Timings returns the recorder that the source writes to
	Timings() *timing.Recorder

	Close() error
}

// Periodic is implemented by sources that know the interval between their
// blanks. The scheduler uses it to avoid painting faster than the refresh
// rate when the source is faster.
type Periodic interface {
	// Period returns zero if the interval is not yet known
	Period() time.Duration
}

// AveragePeriod returns the average period between blanks seen by the source.
func AveragePeriod(src Source) time.Duration {
	return src.Timings().AveragePeriod()
}

// AveragePhase returns the average time between a paint request and the
// following blank.
func AveragePhase(src Source) time.Duration {
	return src.Timings().AveragePhase()
}

// CheckTimings validates the history of the source. The phase is checked only
// if the source reports that it has vsync.
func CheckTimings(src Source, expected time.Duration, tolerance time.Duration) bool {
	return src.Timings().CheckTimings(expected, tolerance, src.HasVSync())
}

// Evaluate is like CheckTimings() but returns the full report.
func Evaluate(src Source, expected time.Duration, tolerance time.Duration) timing.Report {
	return src.Timings().Evaluate(expected, tolerance, src.HasVSync())
}
