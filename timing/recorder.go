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

package timing

import (
	"time"

	"github.com/jetsetilly/framepacer/curated"
)

// InvalidCapacity is returned by NewRecorder() for a capacity that is not
// positive.
const InvalidCapacity = "timing: invalid recorder capacity (%d)"

// DefaultCapacity is a statistically significant number of samples for a
// sixty hertz display.
const DefaultCapacity = 200

// Sample is a single entry in the timing history. Paint and Blank are
// measured from the first timestamp seen by the Recorder.
type Sample struct {
	Period time.Duration
	Paint  time.Duration
	Blank  time.Duration

	// Paired is true if a paint request preceded the blank. Only paired
	// samples contribute to the phase statistics
	Paired bool
}

// Offset returns the time between the paint request and the blank. The
// result is meaningless if the sample is not paired.
func (s Sample) Offset() time.Duration {
	return s.Blank - s.Paint
}

// Recorder accumulates a bounded TimingHistory.
//
// A Recorder is not safe for concurrent use. It is written to only by the
// goroutine driving the scheduler.
type Recorder struct {
	capacity int
	samples  []Sample

	// all timestamps in the history are relative to the epoch
	epoch time.Time

	// the most recent paint request. consumed by the next blank
	paint     time.Time
	havePaint bool

	// the most recent blank
	blank     time.Time
	haveBlank bool

	// number of blanks that could not be added to the history, either because
	// the history was full or because the timestamp went backwards
	rejected int

	// thresholds used by CheckTimings()
	Thresholds Thresholds
}

// NewRecorder is the preferred method of initialisation for the Recorder type.
func NewRecorder(capacity int) (*Recorder, error) {
	if capacity <= 0 {
		return nil, curated.Errorf(InvalidCapacity, capacity)
	}
	return &Recorder{
		capacity:   capacity,
		samples:    make([]Sample, 0, capacity),
		Thresholds: DefaultThresholds(),
	}, nil
}

// Reset empties the history. Capacity and thresholds are unchanged.
func (rec *Recorder) Reset() {
	rec.samples = rec.samples[:0]
	rec.epoch = time.Time{}
	rec.havePaint = false
	rec.haveBlank = false
	rec.rejected = 0
}

func (rec *Recorder) setEpoch(t time.Time) {
	if rec.epoch.IsZero() {
		rec.epoch = t
	}
}

// RecordPaint notes the time at which a frame was requested. A later paint
// request replaces an earlier one that has not yet been paired with a blank.
func (rec *Recorder) RecordPaint(t time.Time) {
	rec.setEpoch(t)
	rec.paint = t
	rec.havePaint = true
}

// RecordBlank adds a vertical blank to the history and returns whether more
// samples are wanted. Blanks with a timestamp earlier than the previous
// blank are rejected so that the history is always monotonic.
func (rec *Recorder) RecordBlank(t time.Time) bool {
	if rec.Full() {
		rec.rejected++
		return false
	}

	if rec.haveBlank && t.Before(rec.blank) {
		rec.rejected++
		return true
	}

	rec.setEpoch(t)

	paired := rec.havePaint && !rec.paint.After(t)
	rec.havePaint = false

	if !rec.haveBlank {
		rec.blank = t
		rec.haveBlank = true
		return true
	}

	s := Sample{
		Period: t.Sub(rec.blank),
		Blank:  t.Sub(rec.epoch),
		Paired: paired,
	}
	if paired {
		s.Paint = rec.paint.Sub(rec.epoch)
	}
	rec.samples = append(rec.samples, s)
	rec.blank = t

	return !rec.Full()
}

// Full returns true if the history has reached capacity.
func (rec *Recorder) Full() bool {
	return len(rec.samples) >= rec.capacity
}

// Len returns the number of samples in the history.
func (rec *Recorder) Len() int {
	return len(rec.samples)
}

// Cap returns the capacity of the history.
func (rec *Recorder) Cap() int {
	return rec.capacity
}

// Rejected returns the number of blanks that were not added to the history.
func (rec *Recorder) Rejected() int {
	return rec.rejected
}

// Samples returns a copy of the history.
func (rec *Recorder) Samples() []Sample {
	c := make([]Sample, len(rec.samples))
	copy(c, rec.samples)
	return c
}

// periods returns the period of every sample in milliseconds
func (rec *Recorder) periods() []float64 {
	p := make([]float64, len(rec.samples))
	for i, s := range rec.samples {
		p[i] = Milliseconds(s.Period)
	}
	return p
}

// offsets returns the paint-to-blank offset of every paired sample in
// milliseconds
func (rec *Recorder) offsets() []float64 {
	o := make([]float64, 0, len(rec.samples))
	for _, s := range rec.samples {
		if s.Paired {
			o = append(o, Milliseconds(s.Offset()))
		}
	}
	return o
}

// AveragePeriod returns the arithmetic mean of the recorded periods. Returns
// zero if there are no samples.
func (rec *Recorder) AveragePeriod() time.Duration {
	return Duration(Mean(rec.periods()))
}

// AveragePhase returns the mean offset between a paint request and the blank
// that followed it. Returns zero if there are no paired samples.
func (rec *Recorder) AveragePhase() time.Duration {
	return Duration(Mean(rec.offsets()))
}

// CheckTimings returns true if the history shows acceptable frame pacing for
// the expected period. See the package documentation for the method. The
// history is never changed by this function.
func (rec *Recorder) CheckTimings(expected time.Duration, tolerance time.Duration, hasVSync bool) bool {
	return rec.Evaluate(expected, tolerance, hasVSync).Pass
}
