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

// Package test bundles helper functions that remove common boilerplate from
// tests written with the standard go test harness.
//
// The Expect functions report a test error but allow the test to continue.
// The Demand functions are for values that later parts of a test rely on and
// so stop the test immediately with t.Fatalf().
//
// A success value depends on the type being tested:
//
//	bool  -> true
//	error -> nil
//	nil   -> success
//
// Note that nil is considered a success because of how errors work in Go. A
// nil error indicates that no error has occurred.
//
// All functions accept optional tags, which are prepended to the failure
// message. Tags are useful when a test is run inside a loop.
//
// The CompareWriter type implements io.Writer and should be used to capture
// output so that it can be compared with an expected string.
package test
