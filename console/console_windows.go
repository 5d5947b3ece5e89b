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

//go:build windows

package console

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/jetsetilly/framepacer/curated"
)

// NotATerminal is returned by NewConsole() when the input is not a terminal.
const NotATerminal = "console: %v"

// Console is not available on windows.
type Console struct{}

// NewConsole always fails on windows.
func NewConsole(_ *os.File, _ io.Writer) (*Console, error) {
	return nil, curated.Errorf(NotATerminal, errors.New("not supported on windows"))
}

func (con *Console) Bind(_ byte, _ string, _ func()) {}
func (con *Console) Help() string                    { return "" }
func (con *Console) Print(_ string, _ ...any)        {}
func (con *Console) CleanUp()                        {}
func (con *Console) Run(_ context.Context) error     { return nil }
