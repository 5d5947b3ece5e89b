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

// Package vblank provides the different methods of waiting for the vertical
// blank of a display. A method of waiting is called a Source.
//
// The Hardware source listens for vertical blank events from the kernel's
// DRM interface. It is the only source that offers genuine synchronisation
// but it is not available on every system. NewHardware() returns a
// curated error with the NoDevice or ArmFailed pattern if the device cannot
// be used and it is expected that the caller will substitute another source.
//
// The Sleep source approximates a vertical blank by sleeping until the next
// boundary of a fixed period. The Null source never waits and is used to
// measure the unthrottled throughput of a pipeline.
//
// Every source records the blanks it sees into a timing.Recorder. The
// Recorder is given to the source on construction and may be shared with a
// replacement source so that the timing history survives the substitution.
package vblank
