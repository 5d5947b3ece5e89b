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

// Package glswap implements a vblank.Source that relies on the buffer swap of
// an OpenGL context to wait for the vertical retrace. The context belongs to a
// small hidden SDL window.
//
// The swap interval is requested from SDL in order of preference: wait for
// vertical retrace, then adaptive sync. If neither is accepted by the driver
// then the source cannot be used and NewSwap() returns an error with the
// NoSwapInterval pattern.
//
// SDL and OpenGL must be used from the main thread. NewSwap() locks the
// calling goroutine to its thread and all methods of the Swap type must be
// called from that goroutine.
package glswap
