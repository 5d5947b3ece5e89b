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

// Package prefs facilitates the storage of preferential values in the
// framepacer system. Preferences are values that the user can change and
// which are saved to disk so that they persist between runs.
//
// The preference types are Bool, String, Int and Float. Each type can have a
// pre-set and a post-set hook function. The post-set hook is the way to
// propagate a changed preference to the component that uses it. For example,
// the refresh rate preference in the preferences package updates a running
// scheduler in the post-set hook.
//
// Preference values are collated by the Disk type, which handles saving to
// and loading from a file on disk. Each preference is added to a Disk instance
// with a key:
//
//	var rate prefs.Int
//	dsk, _ := prefs.NewDisk(pth)
//	dsk.Add("scheduler.refreshrate", &rate)
//
// The file format is a header line followed by one entry per line:
//
//	key :: value
//
// Entries in the file that are not known to the Disk instance are preserved
// when the file is saved. This means that more than one Disk instance can use
// the same file without clobbering each other.
//
// Preference values can also be given on the command line for a single run.
// See the PushCommandLineStack() function.
package prefs
