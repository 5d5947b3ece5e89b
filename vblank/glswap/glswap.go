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

package glswap

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/logger"
	"github.com/jetsetilly/framepacer/timing"
	"github.com/veandco/go-sdl2/sdl"
)

// NoSwapInterval is returned by NewSwap() when the driver does not accept a
// swap interval that waits for the retrace.
const NoSwapInterval = "glswap: no swap interval: %v"

// list of swap interval values. these are the values defined and expected by
// the SDL.GLSetSwapInterval() function
const (
	syncImmediateUpdate     = 0
	syncWithVerticalRetrace = 1
	syncAdaptive            = -1
)

// the swap interval is tried in this order
var preferredIntervals = []int{syncWithVerticalRetrace, syncAdaptive}

// size of the hidden window
const windowSize = 64

// Swap is a vblank.Source that waits for the retrace by swapping the buffers
// of an OpenGL context.
type Swap struct {
	rec     *timing.Recorder
	window  *sdl.Window
	context sdl.GLContext

	interval    int
	refreshRate int

	throttled bool
}

// NewSwap is the preferred method of initialisation for the Swap type.
func NewSwap(rec *timing.Recorder) (*Swap, error) {
	// the SDL package calls LockOSThread() but we call it here too. it can't
	// hurt and we never unlock it in any case
	runtime.LockOSThread()

	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, fmt.Errorf("glswap: %w", err)
	}

	err = sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 2)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("glswap: %w", err)
	}
	err = sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("glswap: %w", err)
	}
	err = sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("glswap: %w", err)
	}

	var sdlVersion sdl.Version
	sdl.VERSION(&sdlVersion)
	logger.Logf(logger.Allow, "glswap", "sdl version %d.%d.%d", sdlVersion.Major, sdlVersion.Minor, sdlVersion.Patch)

	swp := &Swap{
		rec: rec,
	}

	mode, err := sdl.GetCurrentDisplayMode(0)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("glswap: %w", err)
	}
	swp.refreshRate = int(mode.RefreshRate)
	logger.Logf(logger.Allow, "glswap", "refresh rate: %dHz", swp.refreshRate)

	swp.window, err = sdl.CreateWindow("framepacer",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		windowSize, windowSize,
		sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("glswap: %w", err)
	}

	swp.context, err = swp.window.GLCreateContext()
	if err != nil {
		_ = swp.destroy()
		return nil, fmt.Errorf("glswap: %w", err)
	}
	err = swp.window.GLMakeCurrent(swp.context)
	if err != nil {
		_ = swp.destroy()
		return nil, fmt.Errorf("glswap: %w", err)
	}

	err = gl.Init()
	if err != nil {
		_ = swp.destroy()
		return nil, fmt.Errorf("glswap: %w", err)
	}
	logger.Logf(logger.Allow, "glswap", "renderer: %s", gl.GoStr(gl.GetString(gl.RENDERER)))

	swp.interval = syncImmediateUpdate
	for _, i := range preferredIntervals {
		err = sdl.GLSetSwapInterval(i)
		if err == nil {
			swp.interval = i
			break
		}
		logger.Logf(logger.Allow, "glswap", "GLSetSwapInterval(%d): %v", i, err)
	}
	if swp.interval == syncImmediateUpdate {
		_ = swp.destroy()
		return nil, curated.Errorf(NoSwapInterval, err)
	}
	if swp.interval == syncAdaptive {
		logger.Log(logger.Allow, "glswap", "adaptive sync only. late frames will tear")
	}

	gl.ClearColor(0, 0, 0, 1)

	return swp, nil
}

// RefreshRate returns the refresh rate of the display as reported by SDL.
// Returns zero if the rate is not known.
func (swp *Swap) RefreshRate() int {
	return swp.refreshRate
}

// Period implements the vblank.Periodic interface. Returns zero if the
// refresh rate of the display is not known.
func (swp *Swap) Period() time.Duration {
	if swp.refreshRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(swp.refreshRate)
}

// WaitVBlank implements the vblank.Source interface.
func (swp *Swap) WaitVBlank() bool {
	start := time.Now()

	gl.Clear(gl.COLOR_BUFFER_BIT)
	swp.window.GLSwap()

	// some drivers queue the swap and return immediately. waiting for the
	// command queue to drain means that the swap has really happened
	gl.Finish()

	now := time.Now()

	// the swap waited for the retrace if it took a meaningful part of a frame
	swp.throttled = now.Sub(start) > swp.Period()/4

	return swp.rec.RecordBlank(now)
}

// HasVSync implements the vblank.Source interface.
func (swp *Swap) HasVSync() bool {
	return true
}

// Throttled implements the vblank.Source interface.
func (swp *Swap) Throttled() bool {
	return swp.throttled
}

// Timings implements the vblank.Source interface.
func (swp *Swap) Timings() *timing.Recorder {
	return swp.rec
}

// Close implements the vblank.Source interface. It must be called from the
// goroutine that created the Swap and never while WaitVBlank() is running.
func (swp *Swap) Close() error {
	return swp.destroy()
}

func (swp *Swap) destroy() error {
	if swp.context != nil {
		sdl.GLDeleteContext(swp.context)
		swp.context = nil
	}
	if swp.window != nil {
		err := swp.window.Destroy()
		if err != nil {
			return err
		}
		swp.window = nil
	}
	sdl.Quit()
	return nil
}
