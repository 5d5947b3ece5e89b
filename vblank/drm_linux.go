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

//go:build linux && (amd64 || arm64)

package vblank

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
	"unsafe"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/logger"
	"golang.org/x/sys/unix"
)

// ioctl requests. values are for 64 bit architectures
const (
	drmIoctlVersion     = 0xc0406400
	drmIoctlWaitVBlank  = 0xc018643a
	drmVBlankRelative   = 0x00000001
	drmVBlankEvent      = 0x04000000
	drmMaxCards         = 16
	drmVersionFieldSize = 64
)

// the drivers that are known to deliver vblank events, in order of preference
var drmBackends = []string{
	"i915",
	"amdgpu",
	"radeon",
	"nouveau",
	"vmwgfx",
	"virtio_gpu",
	"msm",
	"vc4",
}

// drm_version
type drmVersion struct {
	major   int32
	minor   int32
	patch   int32
	_       int32
	nameLen uint64
	name    uintptr
	dateLen uint64
	date    uintptr
	descLen uint64
	desc    uintptr
}

// union drm_wait_vblank. the request and reply share the same memory. in the
// reply signal is the seconds field of the time of the blank
type drmWaitVBlank struct {
	typ      uint32
	sequence uint32
	signal   uint64
	usec     int64
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		}
		return errno
	}
}

// driverName returns the name of the driver behind the open card
func driverName(fd int) (string, error) {
	name := make([]byte, drmVersionFieldSize)
	v := drmVersion{
		nameLen: uint64(len(name)),
		name:    uintptr(unsafe.Pointer(&name[0])),
	}
	err := ioctl(fd, drmIoctlVersion, unsafe.Pointer(&v))
	runtime.KeepAlive(name)
	if err != nil {
		return "", err
	}
	n := int(v.nameLen)
	if n > len(name) {
		n = len(name)
	}
	return strings.TrimRight(string(name[:n]), "\x00"), nil
}

type drm struct {
	fd     int
	driver string

	// wake pipe. a write to wakeW interrupts poll()
	wakeR int
	wakeW int
}

// openDRM opens the first card with a driver in the backends list. cards are
// tried in the order of the backends list rather than in the order of the
// card numbers
func openDRM() (device, error) {
	cards := make(map[string]int)
	defer func() {
		for _, fd := range cards {
			_ = unix.Close(fd)
		}
	}()

	for i := 0; i < drmMaxCards; i++ {
		pth := fmt.Sprintf("/dev/dri/card%d", i)
		fd, err := unix.Open(pth, unix.O_RDWR|unix.O_CLOEXEC, 0)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Logf(logger.Allow, "drm", "%s: %v", pth, err)
			}
			continue
		}

		drv, err := driverName(fd)
		if err != nil {
			logger.Logf(logger.Allow, "drm", "%s: %v", pth, err)
			_ = unix.Close(fd)
			continue
		}

		if _, ok := cards[drv]; ok {
			_ = unix.Close(fd)
			continue
		}
		cards[drv] = fd
	}

	for _, drv := range drmBackends {
		fd, ok := cards[drv]
		if !ok {
			continue
		}

		var p [2]int
		err := unix.Pipe2(p[:], unix.O_CLOEXEC|unix.O_NONBLOCK)
		if err != nil {
			return nil, curated.Errorf(NoDevice, err)
		}

		delete(cards, drv)
		return &drm{
			fd:     fd,
			driver: drv,
			wakeR:  p[0],
			wakeW:  p[1],
		}, nil
	}

	if len(cards) == 0 {
		return nil, curated.Errorf(NoDevice, "no DRM cards")
	}
	return nil, curated.Errorf(NoDevice, "no supported DRM driver")
}

func (d *drm) name() string {
	return d.driver
}

func (d *drm) query() (uint32, error) {
	vbl := drmWaitVBlank{
		typ: drmVBlankRelative,
	}
	if err := ioctl(d.fd, drmIoctlWaitVBlank, unsafe.Pointer(&vbl)); err != nil {
		return 0, err
	}
	return vbl.sequence, nil
}

func (d *drm) arm() error {
	vbl := drmWaitVBlank{
		typ:      drmVBlankRelative | drmVBlankEvent,
		sequence: 1,
	}
	return ioctl(d.fd, drmIoctlWaitVBlank, unsafe.Pointer(&vbl))
}

func (d *drm) poll(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{
		{Fd: int32(d.fd), Events: unix.POLLIN},
		{Fd: int32(d.wakeR), Events: unix.POLLIN},
	}

	_, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, err
	}

	if fds[1].Revents&unix.POLLIN != 0 {
		var b [16]byte
		_, _ = unix.Read(d.wakeR, b[:])
		return false, nil
	}

	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return false, fmt.Errorf("drm: poll: revents %#x", fds[0].Revents)
	}

	return fds[0].Revents&unix.POLLIN != 0, nil
}

func (d *drm) read(b []byte) (int, error) {
	for {
		n, err := unix.Read(d.fd, b)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// timestamp converts the time of the event from the kernel's monotonic clock
func (d *drm) timestamp(ev vblankEvent) time.Time {
	now := time.Now()

	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return now
	}

	kernel := time.Duration(ts.Nano())
	event := time.Duration(ev.sec)*time.Second + time.Duration(ev.usec)*time.Microsecond
	return now.Add(-(kernel - event))
}

func (d *drm) wake() error {
	_, err := unix.Write(d.wakeW, []byte{0})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (d *drm) close() error {
	_ = unix.Close(d.wakeR)
	_ = unix.Close(d.wakeW)
	return unix.Close(d.fd)
}
