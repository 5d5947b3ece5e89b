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

package glswap_test

import (
	"testing"

	"github.com/jetsetilly/framepacer/test"
	"github.com/jetsetilly/framepacer/timing"
	"github.com/jetsetilly/framepacer/vblank"
	"github.com/jetsetilly/framepacer/vblank/glswap"
)

func TestSwap(t *testing.T) {
	rec, err := timing.NewRecorder(10)
	test.DemandSuccess(t, err)

	swp, err := glswap.NewSwap(rec)
	if err != nil {
		t.Skipf("no display: %v", err)
	}
	defer swp.Close()

	var src vblank.Source = swp
	test.ExpectSuccess(t, src.HasVSync())

	for src.WaitVBlank() {
	}
	test.ExpectSuccess(t, rec.Full())
}
