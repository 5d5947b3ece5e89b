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

// Null never waits. The blank is recorded as the time WaitVBlank() was called.
type Null struct {
	rec *timing.Recorder
}

// NewNull is the preferred method of initialisation for the Null type.
func NewNull(rec *timing.Recorder) *Null {
	return &Null{rec: rec}
}

// WaitVBlank implements the Source interface.
func (n *Null) WaitVBlank() bool {
	return n.rec.RecordBlank(time.Now())
}

// HasVSync implements the Source interface. Always false.
func (n *Null) HasVSync() bool {
	return false
}

// Throttled implements the Source interface. Always false.
func (n *Null) Throttled() bool {
	return false
}

// Timings implements the Source interface.
func (n *Null) Timings() *timing.Recorder {
	return n.rec
}

// Close implements the Source interface. There is nothing to release.
func (n *Null) Close() error {
	return nil
}
