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

package prefs

// list of preference keys that are no longer used. entries in the prefs file
// with these keys are dropped when the file is read and so disappear when the
// file is next saved. no key has been retired yet.
var defunct = []string{}

// returns true if the key is in the list of defunct keys.
func isDefunct(key string) bool {
	for _, m := range defunct {
		if key == m {
			return true
		}
	}
	return false
}
