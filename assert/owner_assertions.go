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

//go:build assertions

package assert

import (
	"fmt"
	"sync/atomic"
)

// Owner records the goroutine that first calls Check().
type Owner struct {
	id atomic.Uint64
}

// Check panics if the calling goroutine is not the owning goroutine. The
// first call to Check() claims ownership.
func (o *Owner) Check(context string) {
	id := GetGoRoutineID()
	if o.id.CompareAndSwap(0, id) {
		return
	}
	if o.id.Load() != id {
		panic(fmt.Sprintf("%s: called from goroutine %d (owner is %d)", context, id, o.id.Load()))
	}
}

// Release forgets the owning goroutine.
func (o *Owner) Release() {
	o.id.Store(0)
}
