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

package vblank

import (
	"encoding/binary"
	"fmt"

	"github.com/jetsetilly/framepacer/curated"
)

// layout of the events read from a DRM device. every event starts with an
// eight byte header of type and length. the vblank event follows the header
// with user data, the time of the blank and the blank sequence number
const (
	drmEventVBlank     = 0x01
	drmEventHeaderSize = 8
	drmEventVBlankSize = 32
)

// vblankEvent is a decoded DRM vblank event. the time is in the clock domain
// of the kernel
type vblankEvent struct {
	sequence uint32
	sec      uint32
	usec     uint32
}

// decodeEvents decodes every event in the buffer. Events other than vblank
// events are skipped.
func decodeEvents(b []byte) ([]vblankEvent, error) {
	var evs []vblankEvent

	for len(b) > 0 {
		if len(b) < drmEventHeaderSize {
			return nil, curated.Errorf(DecodeFailed, fmt.Errorf("truncated header (%d bytes)", len(b)))
		}

		typ := binary.NativeEndian.Uint32(b[0:])
		length := int(binary.NativeEndian.Uint32(b[4:]))
		if length < drmEventHeaderSize || length > len(b) {
			return nil, curated.Errorf(DecodeFailed, fmt.Errorf("invalid length (%d)", length))
		}

		if typ == drmEventVBlank {
			if length < drmEventVBlankSize {
				return nil, curated.Errorf(DecodeFailed, fmt.Errorf("short vblank event (%d bytes)", length))
			}
			evs = append(evs, vblankEvent{
				sec:      binary.NativeEndian.Uint32(b[16:]),
				usec:     binary.NativeEndian.Uint32(b[20:]),
				sequence: binary.NativeEndian.Uint32(b[24:]),
			})
		}

		b = b[length:]
	}

	return evs, nil
}
