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

// Package pipeline is a reference implementation of a pipeline driven by the
// scheduler. It stands in for a compositor: the work of painting a frame is
// simulated by sleeping for a fraction of the frame interval.
//
// The pipeline ends when Finish() is called, when the number of painted frames
// reaches the budget or when the timing history is full. In rolling mode a
// full timing history is evaluated, reported and emptied and the pipeline
// continues.
//
// If the vblank source stops producing blanks before the timing history is
// full the source is assumed to have failed and a Sleep source is substituted.
// The timing history is shared by the old and new sources.
package pipeline
