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

// Package preferences collates the preference values that configure the
// scheduler and the validation of its timing. Values are stored in the
// preferences file in the resource directory.
//
// Values are checked when they are set. A refresh rate or capacity of less
// than one, a negative tolerance or an unknown limiter or source name is
// rejected and the previous value is kept.
//
// Once bound to a scheduler with Bind(), changes to the refresh rate and the
// limiter take effect in the scheduler immediately.
package preferences
