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

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jetsetilly/framepacer/test"
)

func TestHelp(t *testing.T) {
	w := &test.CompareWriter{}
	test.ExpectEquality(t, launch([]string{"-help"}, w), exitOK)
	test.ExpectSuccess(t, strings.Contains(w.String(), "VERIFY"))
}

func TestUnknownMode(t *testing.T) {
	w := &test.CompareWriter{}

	// unknown flags are passed to the default RUN mode, which rejects them
	test.ExpectEquality(t, launch([]string{"-nosuchflag"}, w), exitModeError)
	test.ExpectSuccess(t, strings.HasPrefix(w.String(), "* error in RUN mode"))
}

func TestBench(t *testing.T) {
	w := &test.CompareWriter{}
	test.ExpectEquality(t, launch([]string{"BENCH", "-cycles", "100", "-hz", "60"}, w), exitOK)
	test.ExpectSuccess(t, strings.Contains(w.String(), "fps (100 frames"), w.String())

	w.Clear()
	test.ExpectEquality(t, launch([]string{"BENCH", "-cycles", "0"}, w), exitModeError)
}

func TestVerifyPass(t *testing.T) {
	report := filepath.Join(t.TempDir(), "report.yaml")

	w := &test.CompareWriter{}
	r := launch([]string{"VERIFY", "-source", "NULL", "-hz", "60", "-work", "0",
		"-prefs", "timing.capacity::20", "-report", report}, w)
	test.ExpectEquality(t, r, exitOK, w.String())
	test.ExpectSuccess(t, strings.HasPrefix(w.String(), "PASS"))

	b, err := os.ReadFile(report)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, strings.Contains(string(b), "pass: true"))
	test.ExpectSuccess(t, strings.Contains(string(b), "samples: 20"))
}

func TestVerifyFail(t *testing.T) {
	// the null source never waits and the VSYNCLIKE limiter never delays so
	// the frame rate is far too high
	w := &test.CompareWriter{}
	r := launch([]string{"VERIFY", "-source", "NULL", "-limiter", "VSYNCLIKE", "-work", "0",
		"-prefs", "timing.capacity::20"}, w)
	test.ExpectEquality(t, r, exitModeError)
	test.ExpectSuccess(t, strings.HasPrefix(w.String(), "FAIL"))
	test.ExpectSuccess(t, strings.Contains(w.String(), errTimingsFailed.Error()))
}

func TestVersion(t *testing.T) {
	w := &test.CompareWriter{}
	test.ExpectEquality(t, launch([]string{"-version"}, w), exitOK)
	test.ExpectSuccess(t, strings.HasPrefix(w.String(), "Framepacer"))
}

func TestVerifyDisabledLimiter(t *testing.T) {
	w := &test.CompareWriter{}
	r := launch([]string{"VERIFY", "-source", "NULL", "-limiter", "DISABLED", "-prefs", "timing.capacity::20"}, w)
	test.ExpectEquality(t, r, exitModeError)
	test.ExpectSuccess(t, strings.Contains(w.String(), "cannot verify timings with the DISABLED limiter"), w.String())
}
