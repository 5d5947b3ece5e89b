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

//go:build !windows

package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/logger"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// NotATerminal is returned by NewConsole() when the input is not a terminal.
const NotATerminal = "console: %v"

// how long to wait for a key press before checking the context
const pollTimeout = 100

type binding struct {
	description string
	fn          func()
}

// Console reads single key presses from a terminal.
type Console struct {
	input  *os.File
	output io.Writer

	canAttr    unix.Termios
	cbreakAttr unix.Termios

	crit sync.Mutex
	keys map[byte]binding
}

// NewConsole is the preferred method of initialisation for the Console type.
// The attributes of the terminal at the time of creation are restored by
// CleanUp().
func NewConsole(input *os.File, output io.Writer) (*Console, error) {
	con := &Console{
		input:  input,
		output: output,
		keys:   make(map[byte]binding),
	}

	err := termios.Tcgetattr(con.input.Fd(), &con.canAttr)
	if err != nil {
		return nil, curated.Errorf(NotATerminal, err)
	}

	con.cbreakAttr = con.canAttr
	termios.Cfmakecbreak(&con.cbreakAttr)

	return con, nil
}

// Bind a function to a key. Binding a key a second time replaces the first
// binding.
func (con *Console) Bind(key byte, description string, fn func()) {
	con.crit.Lock()
	defer con.crit.Unlock()
	con.keys[key] = binding{description: description, fn: fn}
}

// Help returns a summary of the key bindings, one per line, in key order.
func (con *Console) Help() string {
	con.crit.Lock()
	defer con.crit.Unlock()

	keys := make([]byte, 0, len(con.keys))
	for k := range con.keys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	s := strings.Builder{}
	for _, k := range keys {
		s.WriteString(fmt.Sprintf("  %c  %s\n", k, con.keys[k].description))
	}
	return s.String()
}

// Print to the console output. Line feeds are preceded by a carriage return
// so that output is aligned while the terminal is in raw mode.
func (con *Console) Print(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	s = strings.ReplaceAll(s, "\n", "\r\n")
	_, _ = con.output.Write([]byte(s))
}

// dispatch the function bound to the key. returns false if the key is not
// bound.
func (con *Console) dispatch(key byte) bool {
	con.crit.Lock()
	b, ok := con.keys[key]
	con.crit.Unlock()

	if !ok {
		return false
	}
	if b.fn != nil {
		b.fn()
	}
	return true
}

// CBreakMode puts the terminal into cbreak mode. Key presses are available
// immediately but signals are still generated by the terminal.
func (con *Console) CBreakMode() error {
	return termios.Tcsetattr(con.input.Fd(), termios.TCIFLUSH, &con.cbreakAttr)
}

// CanonicalMode restores the terminal attributes in place when the console
// was created.
func (con *Console) CanonicalMode() error {
	return termios.Tcsetattr(con.input.Fd(), termios.TCIFLUSH, &con.canAttr)
}

// CleanUp restores the terminal.
func (con *Console) CleanUp() {
	err := con.CanonicalMode()
	if err != nil {
		logger.Logf(logger.Allow, "console", "restoring terminal: %v", err)
	}
}

// Run reads key presses until the context is cancelled or the input is
// closed. The terminal is in cbreak mode for the duration of the call.
func (con *Console) Run(ctx context.Context) error {
	err := con.CBreakMode()
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	defer con.CleanUp()

	return con.readKeys(ctx)
}

// readKeys dispatches key presses from the input until the context is
// cancelled or the input is closed
func (con *Console) readKeys(ctx context.Context) error {
	fds := []unix.PollFd{{Fd: int32(con.input.Fd()), Events: unix.POLLIN}}
	buf := make([]byte, 16)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.Poll(fds, pollTimeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("console: %w", err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 && fds[0].Revents&unix.POLLIN == 0 {
			return nil
		}

		n, err = con.input.Read(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("console: %w", err)
		}

		for _, k := range buf[:n] {
			if !con.dispatch(k) {
				logger.Logf(logger.Allow, "console", "unbound key: %q", k)
			}
		}
	}
}
