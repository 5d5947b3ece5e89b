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
	"sync"
	"time"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/logger"
	"github.com/jetsetilly/framepacer/timing"
)

// how long the listener blocks on the device before checking whether it
// should stop
const pollTimeout = 100 * time.Millisecond

// size of the buffer used to read events from the device. big enough for
// several vblank events
const eventBufferSize = 1024

// device is the kernel interface used by the Hardware source. the DRM
// implementation is in drm_linux.go
type device interface {
	// the name of the driver in use
	name() string

	// the current blank sequence number. must not block
	query() (uint32, error)

	// request an event on the next blank
	arm() error

	// wait until an event can be read. returns false if the timeout expired or
	// if wake() was called
	poll(timeout time.Duration) (bool, error)

	read(b []byte) (int, error)

	// convert the time of the event to local time
	timestamp(ev vblankEvent) time.Time

	// interrupt a call to poll() from another goroutine
	wake() error

	close() error
}

// Hardware waits for vertical blank events from the kernel. A listener
// goroutine blocks on the device and hands each event to WaitVBlank()
// through a condition variable. Only one event is held at a time and the
// next event is not requested until the pending event has been consumed.
type Hardware struct {
	rec      *timing.Recorder
	dev      device
	finished func() bool

	// crit protects all fields below it. cond is signalled whenever one of
	// them changes
	crit sync.Mutex
	cond *sync.Cond

	// a blank has been seen by the listener and not yet consumed
	pending  bool
	blank    time.Time
	sequence uint32

	// interval between blanks measured from the two most recent events.
	// zero until two events have been seen
	period time.Duration

	// the listener has stopped and no more events will arrive
	exhausted bool

	// Close() has been called
	stopping bool

	// written and read only by WaitVBlank()
	throttled bool

	// closed by the listener when it ends
	done      chan bool
	closeOnce sync.Once
	closeErr  error
}

// NewHardware is the preferred method of initialisation for the Hardware
// type. The finished function is checked by the listener goroutine before
// every wait on the device and so must be safe to call from any goroutine.
// A nil finished function never finishes.
//
// Returns an error with the NoDevice or ArmFailed pattern if the device can
// not be used.
func NewHardware(rec *timing.Recorder, finished func() bool) (*Hardware, error) {
	dev, err := openDRM()
	if err != nil {
		return nil, err
	}
	return newHardware(rec, dev, finished)
}

func newHardware(rec *timing.Recorder, dev device, finished func() bool) (*Hardware, error) {
	if finished == nil {
		finished = func() bool { return false }
	}

	seq, err := dev.query()
	if err != nil {
		_ = dev.close()
		return nil, curated.Errorf(ArmFailed, err)
	}

	err = dev.arm()
	if err != nil {
		_ = dev.close()
		return nil, curated.Errorf(ArmFailed, err)
	}

	hw := &Hardware{
		rec:      rec,
		dev:      dev,
		finished: finished,
		sequence: seq,
		done:     make(chan bool),
	}
	hw.cond = sync.NewCond(&hw.crit)

	logger.Logf(logger.Allow, "vblank", "listening to %s from sequence %d", dev.name(), seq)

	go hw.listen()

	return hw, nil
}

// listen is the listener goroutine. the device was armed by newHardware()
func (hw *Hardware) listen() {
	defer func() {
		hw.crit.Lock()
		hw.exhausted = true
		hw.cond.Broadcast()
		hw.crit.Unlock()
		close(hw.done)
	}()

	buf := make([]byte, eventBufferSize)
	armed := true

	for {
		// wait for the pending blank to be consumed
		hw.crit.Lock()
		for hw.pending && !hw.stopping {
			hw.cond.Wait()
		}
		stopping := hw.stopping
		hw.crit.Unlock()

		if stopping || hw.finished() {
			return
		}

		if !armed {
			if err := hw.dev.arm(); err != nil {
				logger.Log(logger.Allow, "vblank", curated.Errorf(ArmFailed, err).Error())
				return
			}
			armed = true
		}

		ready, err := hw.dev.poll(pollTimeout)
		if err != nil {
			logger.Logf(logger.Allow, "vblank", "listener: %v", err)
			return
		}
		if !ready {
			continue
		}

		n, err := hw.dev.read(buf)
		if err != nil {
			logger.Logf(logger.Allow, "vblank", "listener: %v", err)
			return
		}

		evs, err := decodeEvents(buf[:n])
		if err != nil {
			logger.Log(logger.Allow, "vblank", err.Error())
			return
		}

		// the device is armed for a single event but if more than one
		// arrives only the latest is interesting
		if len(evs) == 0 {
			continue
		}
		ev := evs[len(evs)-1]
		armed = false

		ts := hw.dev.timestamp(ev)

		hw.crit.Lock()
		if !hw.blank.IsZero() {
			if n := ev.sequence - hw.sequence; n > 0 && ts.After(hw.blank) {
				hw.period = ts.Sub(hw.blank) / time.Duration(n)
			}
		}
		hw.pending = true
		hw.blank = ts
		hw.sequence = ev.sequence
		hw.cond.Broadcast()
		hw.crit.Unlock()
	}
}

// WaitVBlank implements the Source interface.
//
// Returns false without recording a blank if the pipeline has finished, if
// the source has been closed or if the listener has stopped because of an
// error.
func (hw *Hardware) WaitVBlank() bool {
	hw.crit.Lock()

	hw.throttled = !hw.pending
	for !hw.pending && !hw.exhausted && !hw.stopping {
		hw.cond.Wait()
	}

	if !hw.pending {
		hw.crit.Unlock()
		return false
	}

	blank := hw.blank
	hw.pending = false
	hw.cond.Broadcast()
	hw.crit.Unlock()

	return hw.rec.RecordBlank(blank)
}

// Sequence returns the sequence number of the most recent blank.
func (hw *Hardware) Sequence() uint32 {
	hw.crit.Lock()
	defer hw.crit.Unlock()
	return hw.sequence
}

// Period implements the Periodic interface. The period is measured from the
// kernel timestamps and sequence numbers of the two most recent events.
// Returns zero until two events have been seen.
func (hw *Hardware) Period() time.Duration {
	hw.crit.Lock()
	defer hw.crit.Unlock()
	return hw.period
}

// Exhausted returns true if the listener has stopped.
func (hw *Hardware) Exhausted() bool {
	hw.crit.Lock()
	defer hw.crit.Unlock()
	return hw.exhausted
}

// HasVSync implements the Source interface. Always true.
func (hw *Hardware) HasVSync() bool {
	return true
}

// Throttled implements the Source interface.
func (hw *Hardware) Throttled() bool {
	return hw.throttled
}

// Timings implements the Source interface.
func (hw *Hardware) Timings() *timing.Recorder {
	return hw.rec
}

// Close implements the Source interface. The listener goroutine is stopped and
// joined before the device is closed. It is safe to call Close() more than
// once.
func (hw *Hardware) Close() error {
	hw.closeOnce.Do(func() {
		hw.crit.Lock()
		hw.stopping = true
		hw.cond.Broadcast()
		hw.crit.Unlock()

		if err := hw.dev.wake(); err != nil {
			logger.Logf(logger.Allow, "vblank", "wake: %v", err)
		}
		<-hw.done

		hw.closeErr = hw.dev.close()
	})
	return hw.closeErr
}
