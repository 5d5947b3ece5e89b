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

// Package console puts the terminal into cbreak mode so that single key
// presses can control a running scheduler. Keys are bound to functions with
// Bind() and are dispatched by Run() until the context is cancelled.
//
// Functions bound to keys are called from the goroutine running Run(). Any
// function that touches the scheduler should pass its work to the goroutine
// driving the scheduler (see pipeline.Request()).
package console
