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

// Package scheduler decides when a pipeline should produce a new frame.
//
// The Scheduler drives a pipeline through the Dispatch interface. A cycle
// consists of the Preparing, Painting, Syncing and Done states. The Syncing
// state is where the Scheduler waits for a vertical blank from the bound
// vblank.Source. Syncing is skipped if there is no source, if the limiter is
// disabled, if compositing is not active, if the pipeline has finished or if
// the pipeline declines to sync for that cycle.
//
// At the end of the cycle the pipeline decides whether another cycle is
// wanted. If so, the next cycle is scheduled immediately or after a delay,
// depending on the limiter and on whether the pipeline reports that it has
// vsync. Without vsync the delay is the refresh interval less the time taken
// by the cycle, so a slow pipeline never runs faster than the refresh rate.
//
// The Scheduler is cooperative. Cycles are run by Run() or by repeated calls
// to Service() and never by another goroutine. Schedule(), Run(), Service(),
// SetSource() and Destroy() must all be called from the same goroutine.
// SetRefreshRate() and SetLimiter() can be called from any goroutine and take
// effect from the next cycle.
package scheduler
