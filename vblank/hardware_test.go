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
	"encoding/binary"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/test"
	"github.com/jetsetilly/framepacer/timing"
)

// fakeDevice delivers whatever is sent on the events channel
type fakeDevice struct {
	events chan []byte
	wakeC  chan bool
	next   []byte

	queryErr error
	armErr   error

	arms   atomic.Int32
	closed atomic.Bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		events: make(chan []byte, 16),
		wakeC:  make(chan bool, 1),
	}
}

func (f *fakeDevice) name() string {
	return "fake"
}

func (f *fakeDevice) query() (uint32, error) {
	return 100, f.queryErr
}

func (f *fakeDevice) arm() error {
	f.arms.Add(1)
	return f.armErr
}

func (f *fakeDevice) poll(timeout time.Duration) (bool, error) {
	select {
	case f.next = <-f.events:
		return true, nil
	case <-f.wakeC:
		return false, nil
	case <-time.After(timeout):
		return false, nil
	}
}

func (f *fakeDevice) read(b []byte) (int, error) {
	return copy(b, f.next), nil
}

func (f *fakeDevice) timestamp(ev vblankEvent) time.Time {
	return time.Unix(int64(ev.sec), int64(ev.usec)*1000)
}

func (f *fakeDevice) wake() error {
	select {
	case f.wakeC <- true:
	default:
	}
	return nil
}

func (f *fakeDevice) close() error {
	f.closed.Store(true)
	return nil
}

func encodeEvent(typ uint32, seq uint32, sec uint32, usec uint32) []byte {
	b := make([]byte, drmEventVBlankSize)
	binary.NativeEndian.PutUint32(b[0:], typ)
	binary.NativeEndian.PutUint32(b[4:], drmEventVBlankSize)
	binary.NativeEndian.PutUint32(b[16:], sec)
	binary.NativeEndian.PutUint32(b[20:], usec)
	binary.NativeEndian.PutUint32(b[24:], seq)
	return b
}

func newRecorder(t *testing.T) *timing.Recorder {
	t.Helper()
	rec, err := timing.NewRecorder(timing.DefaultCapacity)
	test.DemandSuccess(t, err)
	return rec
}

// waitFor polls the condition until it is true or a second has passed
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func TestDecodeEvents(t *testing.T) {
	b := encodeEvent(drmEventVBlank, 1, 10, 500)
	b = append(b, encodeEvent(0x02, 2, 11, 0)...)
	b = append(b, encodeEvent(drmEventVBlank, 3, 12, 250)...)

	evs, err := decodeEvents(b)
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(evs), 2)
	test.ExpectEquality(t, evs[0], vblankEvent{sequence: 1, sec: 10, usec: 500})
	test.ExpectEquality(t, evs[1], vblankEvent{sequence: 3, sec: 12, usec: 250})

	evs, err = decodeEvents(nil)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(evs), 0)
}

func TestDecodeEventsFailures(t *testing.T) {
	_, err := decodeEvents([]byte{1, 2, 3})
	test.ExpectSuccess(t, curated.Is(err, DecodeFailed))

	// length field larger than the buffer
	b := encodeEvent(drmEventVBlank, 1, 0, 0)
	_, err = decodeEvents(b[:20])
	test.ExpectSuccess(t, curated.Is(err, DecodeFailed))

	// vblank event too small to hold the fields
	b = encodeEvent(drmEventVBlank, 1, 0, 0)
	binary.NativeEndian.PutUint32(b[4:], drmEventHeaderSize)
	_, err = decodeEvents(b[:drmEventHeaderSize])
	test.ExpectSuccess(t, curated.Is(err, DecodeFailed))
}

func TestHardwareConstructionFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.queryErr = errors.New("query")
	_, err := newHardware(newRecorder(t), dev, nil)
	test.ExpectSuccess(t, curated.Is(err, ArmFailed))
	test.ExpectSuccess(t, dev.closed.Load())

	dev = newFakeDevice()
	dev.armErr = errors.New("arm")
	_, err = newHardware(newRecorder(t), dev, nil)
	test.ExpectSuccess(t, curated.Is(err, ArmFailed))
	test.ExpectSuccess(t, dev.closed.Load())
}

func TestHardwareHandoff(t *testing.T) {
	dev := newFakeDevice()
	rec := newRecorder(t)
	hw, err := newHardware(rec, dev, nil)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, hw.HasVSync())
	test.ExpectEquality(t, hw.Sequence(), uint32(100))

	for i := uint32(0); i < 3; i++ {
		dev.events <- encodeEvent(drmEventVBlank, 101+i, 1000, i*16667)
		test.ExpectSuccess(t, hw.WaitVBlank(), i)
	}

	test.ExpectEquality(t, hw.Sequence(), uint32(103))
	test.ExpectEquality(t, rec.Len(), 2)
	test.ExpectApproximate(t, rec.AveragePeriod().Seconds(), 0.016667, 0.01)

	test.ExpectSuccess(t, hw.Close())
	test.ExpectSuccess(t, dev.closed.Load())

	// closed source does not block
	test.ExpectFailure(t, hw.WaitVBlank())
	test.ExpectSuccess(t, hw.Close())
}

func TestHardwarePeriod(t *testing.T) {
	dev := newFakeDevice()
	hw, err := newHardware(newRecorder(t), dev, nil)
	test.DemandSuccess(t, err)
	defer hw.Close()

	var src Source = hw
	_, ok := src.(Periodic)
	test.ExpectSuccess(t, ok)

	// the sequence number given by the query is not enough to measure
	dev.events <- encodeEvent(drmEventVBlank, 101, 1000, 0)
	test.DemandSuccess(t, hw.WaitVBlank())
	test.ExpectEquality(t, hw.Period(), time.Duration(0))

	// consecutive events
	dev.events <- encodeEvent(drmEventVBlank, 102, 1000, 6944)
	test.DemandSuccess(t, hw.WaitVBlank())
	test.ExpectEquality(t, hw.Period(), 6944*time.Microsecond)

	// two blanks were missed between these events
	dev.events <- encodeEvent(drmEventVBlank, 105, 1000, 6944+3*8000)
	test.DemandSuccess(t, hw.WaitVBlank())
	test.ExpectEquality(t, hw.Period(), 8000*time.Microsecond)
}

func TestHardwareRearmsAfterConsumption(t *testing.T) {
	dev := newFakeDevice()
	hw, err := newHardware(newRecorder(t), dev, nil)
	test.DemandSuccess(t, err)
	defer hw.Close()

	test.ExpectEquality(t, dev.arms.Load(), int32(1))

	dev.events <- encodeEvent(drmEventVBlank, 101, 1, 0)

	// the event has arrived but it has not been consumed so the device must
	// not be armed again
	test.DemandSuccess(t, waitFor(func() bool {
		hw.crit.Lock()
		defer hw.crit.Unlock()
		return hw.pending
	}))
	time.Sleep(20 * time.Millisecond)
	test.ExpectEquality(t, dev.arms.Load(), int32(1))

	test.ExpectSuccess(t, hw.WaitVBlank())
	test.ExpectSuccess(t, waitFor(func() bool { return dev.arms.Load() == 2 }))
}

func TestHardwareDecodeFailure(t *testing.T) {
	dev := newFakeDevice()
	rec := newRecorder(t)
	hw, err := newHardware(rec, dev, nil)
	test.DemandSuccess(t, err)

	dev.events <- []byte{0xff, 0xff, 0xff}

	// the listener stops and the source reports that no more samples are
	// wanted rather than blocking forever
	test.ExpectFailure(t, hw.WaitVBlank())
	test.ExpectSuccess(t, hw.Exhausted())
	test.ExpectEquality(t, rec.Len(), 0)
	test.ExpectSuccess(t, hw.Close())
}

func TestHardwareFinished(t *testing.T) {
	var finished atomic.Bool
	dev := newFakeDevice()
	hw, err := newHardware(newRecorder(t), dev, finished.Load)
	test.DemandSuccess(t, err)
	defer hw.Close()

	result := make(chan bool)
	go func() {
		result <- hw.WaitVBlank()
	}()

	finished.Store(true)

	select {
	case r := <-result:
		test.ExpectFailure(t, r)
	case <-time.After(time.Second):
		t.Fatalf("WaitVBlank() did not return after pipeline finished")
	}
}

func TestHardwareCloseWhileBlocked(t *testing.T) {
	for i := 0; i < 50; i++ {
		dev := newFakeDevice()
		hw, err := newHardware(newRecorder(t), dev, nil)
		test.DemandSuccess(t, err)

		result := make(chan bool)
		go func() {
			result <- hw.WaitVBlank()
		}()

		// some iterations deliver an event that is never consumed
		if i%2 == 0 {
			dev.events <- encodeEvent(drmEventVBlank, 101, 1, 0)
		}

		closed := make(chan error)
		go func() {
			closed <- hw.Close()
		}()

		select {
		case err := <-closed:
			test.ExpectSuccess(t, err, i)
		case <-time.After(time.Second):
			t.Fatalf("%d: Close() deadlocked", i)
		}
		test.ExpectSuccess(t, dev.closed.Load(), i)

		select {
		case <-result:
		case <-time.After(time.Second):
			t.Fatalf("%d: WaitVBlank() did not return after Close()", i)
		}
	}
}

func TestHardwareDevice(t *testing.T) {
	hw, err := NewHardware(newRecorder(t), nil)
	if err != nil {
		test.ExpectSuccess(t, curated.Is(err, NoDevice) || curated.Is(err, ArmFailed))
		t.Skipf("no DRM device: %v", err)
	}

	done := make(chan bool)
	go func() {
		for i := 0; i < 5; i++ {
			if !hw.WaitVBlank() {
				break
			}
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}

	test.ExpectSuccess(t, hw.Close())
	<-done
}
