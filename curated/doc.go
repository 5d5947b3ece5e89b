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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface and are created with the
// Errorf() function, which takes a formatting pattern and placeholder values
// in the same way as fmt.Errorf().
//
// The pattern is remembered so that an error can later be identified by the
// Is() and Has() functions. Patterns that are checked for in this way should
// be stored as exported string constants in the package that creates the
// error. For example, the vblank package defines:
//
//	const NoDevice = "vblank: no drm device available: %v"
//
// and a caller can then write:
//
//	src, err := vblank.NewHardware(rec, pipeline.Finished)
//	if curated.Is(err, vblank.NoDevice) {
//		src = vblank.NewSleep(rec, 0)
//	}
//
// Is() checks only the outermost error. Has() checks the entire chain of
// curated errors, including errors passed as placeholder values.
//
// The Error() implementation normalises the message chain by removing
// duplicate adjacent parts. Parts of a chain are separated by the sub-string
// ": ". So this:
//
//	e := curated.Errorf("drm: %v", curated.Errorf("drm: card0 busy"))
//
// produces "drm: card0 busy" and not "drm: drm: card0 busy".
//
// Curated errors work with the standard errors package. An uncurated error
// used as a placeholder value can be found with errors.Is() and errors.As()
// because the curated type implements Unwrap().
package curated
