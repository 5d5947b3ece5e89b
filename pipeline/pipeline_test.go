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

package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/pipeline"
	"github.com/jetsetilly/framepacer/scheduler"
	"github.com/jetsetilly/framepacer/test"
	"github.com/jetsetilly/framepacer/timing"
	"github.com/jetsetilly/framepacer/vblank"
)

const period60Hz = time.Second / 60

func newPipeline(t *testing.T, capacity int) (*pipeline.Pipeline, *timing.Recorder) {
	t.Helper()
	rec, err := timing.NewRecorder(capacity)
	test.DemandSuccess(t, err)
	p := pipeline.NewPipeline(rec)
	p.Scheduler().SetRefreshRate(60)
	t.Cleanup(func() {
		_ = p.End()
	})
	return p, rec
}

// failingSource produces a fixed number of blanks and then fails in the same
// way as a Hardware source whose listener has stopped
type failingSource struct {
	rec    *timing.Recorder
	blanks int
	closed bool
}

func (s *failingSource) WaitVBlank() bool {
	if s.blanks <= 0 {
		return false
	}
	s.blanks--
	time.Sleep(period60Hz)
	return s.rec.RecordBlank(time.Now())
}

func (s *failingSource) HasVSync() bool            { return true }
func (s *failingSource) Throttled() bool           { return true }
func (s *failingSource) Timings() *timing.Recorder { return s.rec }

func (s *failingSource) Close() error {
	s.closed = true
	return nil
}

func TestSleepSourceConformance(t *testing.T) {
	p, rec := newPipeline(t, timing.DefaultCapacity)
	p.Scheduler().SetSource(vblank.NewSleep(rec, period60Hz))

	test.DemandSuccess(t, p.Run(context.Background()))
	test.ExpectSuccess(t, rec.Full())

	// one more frame than samples because the first blank is a baseline
	test.ExpectEquality(t, p.Painted(), timing.DefaultCapacity+1)
	test.ExpectEquality(t, p.Scheduler().Cycles(), p.Painted())

	src := p.Scheduler().Source()
	test.ExpectApproximate(t, vblank.AveragePeriod(src).Seconds(), period60Hz.Seconds(), 0.6)
	test.ExpectSuccess(t, vblank.CheckTimings(src, period60Hz, 10*time.Millisecond))

	// the sleep source waits for almost every blank
	throttled := p.Stats().Throttled
	test.ExpectSuccess(t, throttled > 0)
	test.ExpectEquality(t, p.Evaluate(10*time.Millisecond).Throttled, throttled)

	// throttled frames are counted from the most recent reset
	p.ResetTimings()
	test.ExpectEquality(t, p.Evaluate(10*time.Millisecond).Throttled, 0)
	test.ExpectEquality(t, p.Stats().Throttled, throttled)
}

func TestSourceFasterThanRefreshRate(t *testing.T) {
	p, rec := newPipeline(t, 20)
	p.Scheduler().SetSource(vblank.NewSleep(rec, time.Second/144))

	test.DemandSuccess(t, p.Run(context.Background()))
	test.ExpectSuccess(t, rec.Full())

	// the frame rate follows the refresh rate and not the faster source
	optimal := p.Scheduler().OptimalRedrawTime()
	test.ExpectApproximate(t, rec.AveragePeriod().Seconds(), optimal.Seconds(), 0.1)
	test.ExpectSuccess(t, rec.AveragePeriod() > optimal*9/10)
}

func TestUnsampled(t *testing.T) {
	// a disabled limiter never waits for a blank so the history cannot fill
	p, rec := newPipeline(t, 20)
	p.Scheduler().SetSource(vblank.NewSleep(rec, period60Hz))
	p.Scheduler().SetLimiter(scheduler.LimiterDisabled)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.Run(ctx)
	test.ExpectSuccess(t, curated.Is(err, pipeline.Unsampled), err)
	test.ExpectEquality(t, p.Painted(), 0)
	test.ExpectEquality(t, rec.Len(), 0)

	// the same pipeline with a budget is allowed to run
	p.SetBudget(5)
	test.DemandSuccess(t, p.Run(ctx))
	test.ExpectEquality(t, p.Painted(), 5)
}

func TestUnsampledWithoutSource(t *testing.T) {
	p, _ := newPipeline(t, 20)
	err := p.Run(context.Background())
	test.ExpectSuccess(t, curated.Is(err, pipeline.Unsampled), err)
	test.ExpectEquality(t, p.Painted(), 0)
}

func TestNullSourceConformance(t *testing.T) {
	// without vsync the scheduler does the pacing
	p, rec := newPipeline(t, 60)
	p.Scheduler().SetSource(vblank.NewNull(rec))
	test.ExpectFailure(t, p.HasVSync())

	test.DemandSuccess(t, p.Run(context.Background()))
	rep := p.Evaluate(10 * time.Millisecond)
	test.ExpectSuccess(t, rep.Pass, rep.String())
	test.ExpectFailure(t, rep.PhaseChecked)
}

func TestGracefulOverload(t *testing.T) {
	p, rec := newPipeline(t, 20)
	p.Scheduler().SetSource(vblank.NewNull(rec))
	p.SetWork(1.5)

	test.DemandSuccess(t, p.Run(context.Background()))
	test.ExpectSuccess(t, rec.Full())

	// the rate falls below the refresh rate but never exceeds it
	test.ExpectSuccess(t, rec.AveragePeriod() >= p.Scheduler().OptimalRedrawTime())
}

func TestSourceSubstitution(t *testing.T) {
	p, rec := newPipeline(t, 30)
	failing := &failingSource{rec: rec, blanks: 10}
	p.Scheduler().SetSource(failing)

	test.DemandSuccess(t, p.Run(context.Background()))
	test.ExpectEquality(t, p.Substitutions(), 1)
	test.ExpectSuccess(t, failing.closed)
	test.ExpectSuccess(t, rec.Full())

	_, ok := p.Scheduler().Source().(*vblank.Sleep)
	test.ExpectSuccess(t, ok)

	// history spans both sources and is monotonic
	s := rec.Samples()
	for i := 1; i < len(s); i++ {
		test.ExpectSuccess(t, s[i].Blank > s[i-1].Blank, i)
		test.ExpectSuccess(t, s[i].Period > 0, i)
	}
}

func TestBudget(t *testing.T) {
	p, _ := newPipeline(t, timing.DefaultCapacity)
	p.Scheduler().SetLimiter(scheduler.LimiterDisabled)
	p.SetBudget(25)

	test.DemandSuccess(t, p.Run(context.Background()))
	test.ExpectEquality(t, p.Painted(), 25)
}

func TestFinish(t *testing.T) {
	p, rec := newPipeline(t, timing.DefaultCapacity)
	p.Scheduler().SetSource(vblank.NewNull(rec))
	p.SetRolling(10*time.Millisecond, nil)

	go func() {
		time.Sleep(100 * time.Millisecond)
		p.Finish()
	}()

	test.DemandSuccess(t, p.Run(context.Background()))
	test.ExpectSuccess(t, p.Finished())
	test.ExpectEquality(t, p.Scheduler().State(), scheduler.Idle)
}

func TestRolling(t *testing.T) {
	p, rec := newPipeline(t, 5)
	p.Scheduler().SetSource(vblank.NewNull(rec))
	p.Scheduler().SetLimiter(scheduler.LimiterVSyncLike)

	var reports []timing.Report
	p.SetRolling(10*time.Millisecond, func(rep timing.Report) {
		reports = append(reports, rep)
		if len(reports) == 3 {
			p.Finish()
		}
	})

	test.DemandSuccess(t, p.Run(context.Background()))
	test.ExpectEquality(t, len(reports), 3)
	for _, r := range reports {
		test.ExpectEquality(t, r.Samples, 5)
	}
}

func TestRequests(t *testing.T) {
	p, rec := newPipeline(t, 10)
	p.Scheduler().SetSource(vblank.NewNull(rec))

	// requests run on the scheduler's goroutine before the next frame
	p.Request(func() {
		p.Scheduler().SetSource(vblank.NewSleep(rec, period60Hz))
	})

	test.DemandSuccess(t, p.Run(context.Background()))
	_, ok := p.Scheduler().Source().(*vblank.Sleep)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, p.Stats().Source, vblank.SourceSleep)
}

func TestRequestQueueFull(t *testing.T) {
	p, rec := newPipeline(t, 5)
	p.Scheduler().SetSource(vblank.NewNull(rec))

	// nothing is draining the queue so it fills without blocking
	var queued, run int
	for i := 0; i < 100; i++ {
		if p.Request(func() { run++ }) {
			queued++
		}
	}
	test.ExpectSuccess(t, queued > 0)
	test.ExpectSuccess(t, queued < 100)

	test.DemandSuccess(t, p.Run(context.Background()))
	test.ExpectEquality(t, run, queued)
	test.ExpectSuccess(t, p.Request(func() {}))
}

func TestCompositingInactive(t *testing.T) {
	p, _ := newPipeline(t, 10)
	p.SetCompositing(false)
	test.ExpectSuccess(t, p.Run(context.Background()))
	test.ExpectEquality(t, p.Painted(), 0)
}

func TestVSyncOverride(t *testing.T) {
	p, rec := newPipeline(t, 10)
	test.ExpectFailure(t, p.HasVSync())
	p.Scheduler().SetSource(vblank.NewSleep(rec, 0))
	test.ExpectSuccess(t, p.HasVSync())
	p.SetVSync(pipeline.VSyncOff)
	test.ExpectFailure(t, p.HasVSync())
	p.SetVSync(pipeline.VSyncOn)
	p.Scheduler().SetSource(nil)
	test.ExpectSuccess(t, p.HasVSync())
}

func TestRunCancelled(t *testing.T) {
	p, rec := newPipeline(t, timing.DefaultCapacity)
	p.Scheduler().SetSource(vblank.NewSleep(rec, period60Hz))
	p.SetRolling(10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	test.ExpectEquality(t, err, context.DeadlineExceeded)
}
