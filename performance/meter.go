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

package performance

import (
	"sync/atomic"
	"time"
)

// DefaultMeasuringPeriod is the measuring period used by NewMeter() when a
// period of zero is given.
const DefaultMeasuringPeriod = time.Second

// Meter measures the rate at which Tick() is called.
type Meter struct {
	// pulse that performs the FPS measurement
	measuringPulse *time.Ticker

	// the measured FPS is the number of frames divided by the amount of
	// elapsed time since the previous measurement
	measureTime time.Time
	measureCt   int

	// total number of ticks since the meter was created
	total int

	// the measured number of frames per second
	measured atomic.Value // float32
}

// NewMeter is the preferred method of initialisation for the Meter type.
func NewMeter(period time.Duration) *Meter {
	if period <= 0 {
		period = DefaultMeasuringPeriod
	}
	m := &Meter{
		measuringPulse: time.NewTicker(period),
		measureTime:    time.Now(),
	}
	m.measured.Store(float32(0.0))
	return m
}

// Tick should be called once per frame.
//
// Checking the pulse channel is relatively cheap but callers running at a
// very high rate should be mindful of how often Tick() is called.
func (m *Meter) Tick() {
	m.measureCt++
	m.total++

	select {
	case <-m.measuringPulse.C:
		t := time.Now()
		f := float32(m.measureCt) / float32(t.Sub(m.measureTime).Seconds())
		m.measured.Store(f)

		// reset time and count ready for next measurement
		m.measureTime = t
		m.measureCt = 0
	default:
	}
}

// Measured returns the most recent measurement. Safe to call from any
// goroutine. The value is zero until the first measuring period has elapsed.
func (m *Meter) Measured() float32 {
	return m.measured.Load().(float32)
}

// Total returns the number of calls to Tick().
func (m *Meter) Total() int {
	return m.total
}

// Stop the measuring pulse. The meter should not be used after Stop().
func (m *Meter) Stop() {
	m.measuringPulse.Stop()
}
