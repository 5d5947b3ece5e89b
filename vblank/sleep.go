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

// DefaultPeriod is the period used by the Sleep source when no other period
// is given. Sixty hertz is the most common refresh rate.
const DefaultPeriod = time.Second / 60

// Sleep waits until the next boundary of a fixed period, measured against the
// wall clock. Because the boundaries are fixed the source does not drift even
// if the caller is late.
type Sleep struct {
	rec    *timing.Recorder
	period time.Duration

	throttled bool
}

// NewSleep is the preferred method of initialisation for the Sleep type. A
// period of zero or less selects DefaultPeriod.
func NewSleep(rec *timing.Recorder, period time.Duration) *Sleep {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Sleep{
		rec:    rec,
		period: period,
	}
}

// Period implements the Periodic interface.
func (s *Sleep) Period() time.Duration {
	return s.period
}

// remaining returns the time from t until the next period boundary
func (s *Sleep) remaining(t time.Time) time.Duration {
	per := s.period.Microseconds()
	if per <= 0 {
		return 0
	}
	return time.Duration(per-t.UnixMicro()%per) * time.Microsecond
}

// WaitVBlank implements the Source interface.
func (s *Sleep) WaitVBlank() bool {
	d := s.remaining(time.Now())
	s.throttled = d > 0
	time.Sleep(d)
	return s.rec.RecordBlank(time.Now())
}

// HasVSync implements the Source interface. The Sleep source is presented as
// having vsync because it exists to approximate it.
func (s *Sleep) HasVSync() bool {
	return true
}

// Throttled implements the Source interface.
func (s *Sleep) Throttled() bool {
	return s.throttled
}

// Timings implements the Source interface.
func (s *Sleep) Timings() *timing.Recorder {
	return s.rec
}

// Close implements the Source interface. There is nothing to release and a
// WaitVBlank() in progress is not interrupted.
func (s *Sleep) Close() error {
	return nil
}
