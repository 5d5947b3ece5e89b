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

package timing

import (
	"math"
	"sort"
	"time"
)

// Milliseconds converts a duration to floating-point milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Duration converts floating-point milliseconds to a duration.
func Duration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// Mean returns the arithmetic mean of the values. Returns zero for an empty
// slice.
func Mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// Median returns the median of the values. The slice is not modified.
// Returns zero for an empty slice.
func Median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := make([]float64, len(v))
	copy(s, v)
	sort.Float64s(s)

	m := len(s) / 2
	if len(s)%2 == 0 {
		return (s[m-1] + s[m]) / 2
	}
	return s[m]
}

// MAD returns the median of the absolute deviations from the median of the
// values.
func MAD(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := Median(v)
	d := make([]float64, len(v))
	for i, x := range v {
		d[i] = math.Abs(x - m)
	}
	return Median(d)
}

// StdDev returns the population standard deviation of the values around the
// mean. Returns zero for an empty slice.
func StdDev(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	mean := Mean(v)
	var sumSquares float64
	for _, x := range v {
		diff := x - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(v)))
}
