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

package performance_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/performance"
	"github.com/jetsetilly/framepacer/test"
)

func TestCalcFPS(t *testing.T) {
	fps, accuracy := performance.CalcFPS(300, 5.0, 60)
	test.ExpectEquality(t, fps, 60.0)
	test.ExpectEquality(t, accuracy, 100.0)

	fps, accuracy = performance.CalcFPS(150, 5.0, 60)
	test.ExpectEquality(t, fps, 30.0)
	test.ExpectEquality(t, accuracy, 50.0)

	fps, accuracy = performance.CalcFPS(150, 0, 60)
	test.ExpectEquality(t, fps, 0.0)
	test.ExpectEquality(t, accuracy, 0.0)
}

func TestMeter(t *testing.T) {
	m := performance.NewMeter(50 * time.Millisecond)
	defer m.Stop()
	test.ExpectEquality(t, m.Measured(), float32(0))

	end := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(end) {
		m.Tick()
		time.Sleep(5 * time.Millisecond)
	}

	// no more than two hundred ticks per second but sleep is imprecise
	test.ExpectSuccess(t, m.Measured() > 0)
	test.ExpectSuccess(t, m.Measured() <= 400)
	test.ExpectSuccess(t, m.Total() > 0)
}

func TestParseProfile(t *testing.T) {
	p, err := performance.ParseProfile("cpu, trace")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, p, performance.ProfileCPU|performance.ProfileTrace)
	test.ExpectEquality(t, p.String(), "CPU,TRACE")

	p, err = performance.ParseProfile("none")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, p, performance.ProfileNone)

	p, err = performance.ParseProfile("ALL")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, p.String(), "CPU,MEM,TRACE")

	_, err = performance.ParseProfile("gpu")
	test.ExpectSuccess(t, curated.Is(err, performance.UnknownProfile))
}

func TestRunProfiler(t *testing.T) {
	hdr := filepath.Join(t.TempDir(), "test")

	ran := false
	err := performance.RunProfiler(performance.ProfileMem, hdr, func() error {
		ran = true
		return nil
	})
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, ran)

	_, err = os.Stat(hdr + "_mem.profile")
	test.ExpectSuccess(t, err)

	// error from the function is returned unchanged
	sentinal := errors.New("sentinal")
	err = performance.RunProfiler(performance.ProfileNone, hdr, func() error {
		return sentinal
	})
	test.ExpectEquality(t, err, sentinal)
}
