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

package modalflag

import (
	"fmt"
	"io"
	"strings"
)

// helpWriter collects the output of the flag package so that it can be
// rearranged and supplemented.
type helpWriter struct {
	buffer strings.Builder
}

// Write implements the io.Writer interface.
func (hw *helpWriter) Write(p []byte) (int, error) {
	return hw.buffer.Write(p)
}

func (hw *helpWriter) help(output io.Writer, path string, subModes []string, descriptions map[string]string, additional string) {
	if output == nil {
		return
	}

	// the first line from the flag package is always "Usage:" or "Usage of"
	// and any following lines describe the flags
	lines := strings.SplitN(hw.buffer.String(), "\n", 2)
	var flags string
	if len(lines) > 1 {
		flags = lines[1]
	}

	if flags == "" && len(subModes) == 0 && additional == "" {
		if path == "" {
			fmt.Fprintln(output, "No help available")
		} else {
			fmt.Fprintf(output, "No help available for %s\n", path)
		}
		return
	}

	if path == "" {
		fmt.Fprintln(output, "Usage:")
	} else {
		fmt.Fprintf(output, "Usage of %s mode:\n", path)
	}

	fmt.Fprint(output, flags)

	if len(subModes) > 0 {
		if flags != "" {
			fmt.Fprintln(output)
		}

		width := 0
		for _, m := range subModes {
			width = max(width, len(m))
		}

		fmt.Fprintln(output, "  modes:")
		for i, m := range subModes {
			d := descriptions[m]
			if i == 0 {
				d = strings.TrimSpace(fmt.Sprintf("%s (default)", d))
			}
			s := fmt.Sprintf("    %-*s  %s", width, m, d)
			fmt.Fprintln(output, strings.TrimRight(s, " "))
		}
	}

	if additional != "" {
		fmt.Fprintf(output, "\n%s\n", additional)
	}
}
