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

// Package version reports the version of the framepacer binary. The version
// number is set by the linker for release builds:
//
//	go build -ldflags "-X github.com/jetsetilly/framepacer/version.number=v0.1.0"
//
// Other builds are described by the VCS information embedded by the Go
// toolchain.
package version

import (
	"fmt"
	"runtime/debug"
)

// ApplicationName is the name used in version strings.
const ApplicationName = "Framepacer"

// set by the linker
var number string

var revision string
var version string

// Version returns the version string, the revision string and whether this is
// a release build.
func Version() (string, string, bool) {
	return version, revision, number != "" && version == number
}

// String returns a one line description of the version.
func String() string {
	if number != "" {
		return fmt.Sprintf("%s %s", ApplicationName, version)
	}
	return fmt.Sprintf("%s %s (%s)", ApplicationName, version, revision)
}

func init() {
	version, revision = describe(number, buildSettings())
}

func buildSettings() map[string]string {
	settings := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if ok {
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}
	}
	return settings
}

// describe the build from the release number and the build settings
func describe(number string, settings map[string]string) (string, string) {
	var rev string

	if r := settings["vcs.revision"]; r == "" {
		rev = "no revision information"
	} else {
		rev = r
		if settings["vcs.modified"] == "true" {
			rev = fmt.Sprintf("%s+dirty", rev)
		}
	}

	if number != "" {
		return number, rev
	}
	if _, ok := settings["vcs"]; ok {
		return "unreleased", rev
	}
	return "local", rev
}
