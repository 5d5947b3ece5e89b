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

// Package timing records when frames were requested and when vertical blanks
// were observed, and derives the statistics used to judge whether frame
// pacing is acceptable.
//
// A Recorder holds a fixed-capacity history. Each sample in the history is a
// triple of the period since the previous blank, the time the paint was
// requested and the time of the blank. Once the history is full further
// samples are rejected; the history exists to validate a finite observation
// window.
//
// The first blank recorded by a Recorder is a baseline and does not produce a
// sample because it has no previous blank to measure a period from.
//
// Validation with CheckTimings() is outlier resistant. The median of the
// periods is compared with the expected period and the median absolute
// deviation (MAD) of the periods must be within tolerance. When the source of
// the blanks claims genuine synchronisation the standard deviation of the
// paint-to-blank offsets (the phase) must also be within the phase jitter
// threshold.
package timing
