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

package prefs_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/prefs"
	"github.com/jetsetilly/framepacer/test"
)

func cmpTmpFile(t *testing.T, fn string, expected string) {
	t.Helper()

	data, err := os.ReadFile(fn)
	if err != nil {
		t.Errorf("error reading tmp file: %v", err)
		return
	}

	expected = fmt.Sprintf("%s\n%s", prefs.WarningBoilerPlate, expected)
	if expected != string(data) {
		t.Errorf("expected data and data in prefs file do not match")
		t.Logf("expected:\n%s", expected)
		t.Logf("in file:\n%s", string(data))
	}
}

func TestBool(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var v prefs.Bool
	var w prefs.Bool
	var x prefs.Bool
	test.ExpectSuccess(t, dsk.Add("test", &v))
	test.ExpectSuccess(t, dsk.Add("testB", &w))
	test.ExpectSuccess(t, dsk.Add("testC", &x))

	test.ExpectSuccess(t, v.Set(true))
	test.ExpectSuccess(t, w.Set("foo"))
	test.ExpectSuccess(t, x.Set("TRUE"))

	test.DemandSuccess(t, dsk.Save())
	cmpTmpFile(t, fn, "test :: true\ntestB :: false\ntestC :: true\n")
}

func TestInt(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var v prefs.Int
	var w prefs.Int
	test.ExpectSuccess(t, dsk.Add("number", &v))
	test.ExpectSuccess(t, dsk.Add("numberB", &w))

	test.ExpectSuccess(t, v.Set(10))
	test.ExpectSuccess(t, w.Set("99"))

	test.DemandSuccess(t, dsk.Save())
	cmpTmpFile(t, fn, "number :: 10\nnumberB :: 99\n")

	err = v.Set("---")
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, prefs.InvalidValue))

	err = v.Set(1.0)
	test.ExpectFailure(t, err)

	// failed sets do not change the value
	test.ExpectEquality(t, v.Get().(int), 10)
}

func TestFloatAndString(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var f prefs.Float
	var s prefs.String
	test.ExpectSuccess(t, dsk.Add("timing.tolerance", &f))
	test.ExpectSuccess(t, dsk.Add("vblank.source", &s))

	test.ExpectSuccess(t, f.Set("10.5"))
	test.ExpectSuccess(t, s.Set(" SLEEP "))

	test.DemandSuccess(t, dsk.Save())
	cmpTmpFile(t, fn, "timing.tolerance :: 10.5\nvblank.source :: SLEEP\n")

	test.ExpectSuccess(t, f.Reset())
	test.ExpectSuccess(t, s.Reset())
	test.ExpectEquality(t, f.Get().(float64), 0.0)

	test.DemandSuccess(t, dsk.Load())
	test.ExpectEquality(t, f.Get().(float64), 10.5)
	test.ExpectEquality(t, s.String(), "SLEEP")
}

func TestHooks(t *testing.T) {
	var v prefs.Int

	var post int
	v.SetHookPre(func(value prefs.Value) error {
		if value.(int) <= 0 {
			return fmt.Errorf("refresh rate must be positive")
		}
		return nil
	})
	v.SetHookPost(func(value prefs.Value) error {
		post = value.(int)
		return nil
	})

	test.ExpectSuccess(t, v.Set(75))
	test.ExpectEquality(t, post, 75)

	test.ExpectFailure(t, v.Set(0))
	test.ExpectEquality(t, post, 75)
	test.ExpectEquality(t, v.Get().(int), 75)
}

func TestPreserveUnknownEntries(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")

	a, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	var x prefs.Int
	test.ExpectSuccess(t, a.Add("a.value", &x))
	test.ExpectSuccess(t, x.Set(1))
	test.DemandSuccess(t, a.Save())

	b, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	var y prefs.Int
	test.ExpectSuccess(t, b.Add("b.value", &y))
	test.ExpectSuccess(t, y.Set(2))
	test.DemandSuccess(t, b.Save())

	cmpTmpFile(t, fn, "a.value :: 1\nb.value :: 2\n")
}

func TestMissingFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "missing")
	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	err = dsk.Load()
	test.ExpectSuccess(t, curated.Is(err, prefs.NoPrefsFile))
}

func TestInvalidFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "invalid")
	test.DemandSuccess(t, os.WriteFile(fn, []byte("foo :: bar\n"), 0600))
	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	err = dsk.Load()
	test.ExpectSuccess(t, curated.Is(err, prefs.InvalidPrefsFile))
}
