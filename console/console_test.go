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
	"bytes"
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/test"
)

func TestNotATerminal(t *testing.T) {
	r, w, err := os.Pipe()
	test.DemandSuccess(t, err)
	defer r.Close()
	defer w.Close()

	_, err = NewConsole(r, w)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, NotATerminal))
}

func TestDispatch(t *testing.T) {
	con := &Console{keys: make(map[byte]binding)}

	var rate int
	con.Bind('+', "increase refresh rate", func() { rate++ })
	con.Bind('-', "decrease refresh rate", func() { rate-- })

	test.ExpectSuccess(t, con.dispatch('+'))
	test.ExpectSuccess(t, con.dispatch('+'))
	test.ExpectSuccess(t, con.dispatch('-'))
	test.ExpectFailure(t, con.dispatch('x'))
	test.ExpectEquality(t, rate, 1)

	// rebinding replaces the earlier function
	con.Bind('+', "increase refresh rate by ten", func() { rate += 10 })
	test.ExpectSuccess(t, con.dispatch('+'))
	test.ExpectEquality(t, rate, 11)
}

func TestHelp(t *testing.T) {
	con := &Console{keys: make(map[byte]binding)}
	con.Bind('q', "quit", nil)
	con.Bind('+', "faster", nil)
	test.ExpectEquality(t, con.Help(), "  +  faster\n  q  quit\n")

	// a nil function is still a bound key
	test.ExpectSuccess(t, con.dispatch('q'))
}

func TestPrint(t *testing.T) {
	var b bytes.Buffer
	con := &Console{output: &b}
	con.Print("refresh rate %dHz\n", 60)
	test.ExpectEquality(t, b.String(), "refresh rate 60Hz\r\n")
}

// readKeysFromPipe starts readKeys() on the read end of a pipe. The returned
// channel receives the result of readKeys()
func readKeysFromPipe(t *testing.T, ctx context.Context, con *Console) (*os.File, chan error) {
	t.Helper()
	r, w, err := os.Pipe()
	test.DemandSuccess(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})

	con.input = r
	done := make(chan error, 1)
	go func() {
		done <- con.readKeys(ctx)
	}()
	return w, done
}

func TestReadKeysCancelled(t *testing.T) {
	con := &Console{keys: make(map[byte]binding)}

	var presses atomic.Int32
	con.Bind('+', "increase refresh rate", func() { presses.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, done := readKeysFromPipe(t, ctx, con)

	_, err := w.Write([]byte("+x+"))
	test.DemandSuccess(t, err)

	deadline := time.Now().Add(time.Second)
	for presses.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	test.ExpectEquality(t, presses.Load(), int32(2))

	// cancelling the context ends the loop within the poll timeout
	cancel()
	select {
	case err := <-done:
		test.ExpectSuccess(t, err)
	case <-time.After(time.Second):
		t.Fatalf("readKeys did not end after the context was cancelled")
	}
}

func TestReadKeysClosedInput(t *testing.T) {
	con := &Console{keys: make(map[byte]binding)}
	w, done := readKeysFromPipe(t, context.Background(), con)

	test.DemandSuccess(t, w.Close())
	select {
	case err := <-done:
		test.ExpectSuccess(t, err)
	case <-time.After(time.Second):
		t.Fatalf("readKeys did not end after the input was closed")
	}
}
