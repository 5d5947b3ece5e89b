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

// Package modalflag is a wrapper for the flag package in the Go standard
// library. It provides a convenient method of handling program modes and
// allows different flags for each mode.
//
// Unlike flag.FlagSet, the arguments are given to NewArgs() and Parse() is
// called with no arguments. This allows the same argument list to be parsed
// in layers, one layer per mode:
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "VERIFY")
//	md.DescribeSubMode("VERIFY", "check timing quality")
//	p, err := md.Parse()
//
// After the top level Parse() the selected mode is returned by Mode(). The
// first sub-mode is the default and is selected if the first argument is not
// a mode name. Mode names are not case sensitive.
//
// Each mode then has its own flags. NewMode() starts a new layer and flags
// are added with the AddBool(), AddInt() etc. functions. These return a
// pointer to the flag value in the same way as the flag package:
//
//	md.NewMode()
//	hz := md.AddInt("hz", 60, "refresh rate")
//	p, err = md.Parse()
//
// Parse() handles the -help flag itself. When help is requested the help text
// is written to the Output field and ParseHelp is returned. The help text for
// a layer includes the flags, the available sub-modes and any text given to
// AdditionalHelp().
package modalflag
