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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/bradleyjkemp/memviz"
	"github.com/jetsetilly/framepacer/console"
	"github.com/jetsetilly/framepacer/logger"
	"github.com/jetsetilly/framepacer/modalflag"
	"github.com/jetsetilly/framepacer/paths"
	"github.com/jetsetilly/framepacer/performance"
	"github.com/jetsetilly/framepacer/pipeline"
	"github.com/jetsetilly/framepacer/preferences"
	"github.com/jetsetilly/framepacer/prefs"
	"github.com/jetsetilly/framepacer/scheduler"
	"github.com/jetsetilly/framepacer/statsview"
	"github.com/jetsetilly/framepacer/timing"
	"github.com/jetsetilly/framepacer/vblank"
	"github.com/jetsetilly/framepacer/vblank/glswap"
	"github.com/jetsetilly/framepacer/version"
)

// exit values
const (
	exitOK         = 0
	exitParseError = 10
	exitModeError  = 20
)

// errTimingsFailed is returned by the VERIFY mode when the timing history
// does not conform to the refresh rate.
var errTimingsFailed = errors.New("frame timings do not conform to the refresh rate")

func init() {
	// the GLSWAP source must create and use its GL context on the main thread
	runtime.LockOSThread()
}

// #mainthread
func main() {
	os.Exit(launch(os.Args[1:], os.Stdout))
}

func launch(args []string, output io.Writer) int {
	md := &modalflag.Modes{Output: output}
	md.NewArgs(args)
	md.NewMode()
	md.AddSubModes("RUN", "VERIFY", "BENCH")
	md.DescribeSubMode("RUN", "drive the pipeline with a vblank source")
	md.DescribeSubMode("VERIFY", "check the frame timings of a vblank source")
	md.DescribeSubMode("BENCH", "measure unthrottled scheduler throughput")
	showVersion := md.AddBool("version", false, "print version information and exit")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return exitOK

	case modalflag.ParseError:
		fmt.Fprintf(output, "* error: %v\n", err)
		return exitParseError
	}

	if *showVersion {
		fmt.Fprintln(output, version.String())
		return exitOK
	}

	switch md.Mode() {
	case "RUN":
		err = run(md, output)
	case "VERIFY":
		err = verify(md, output)
	case "BENCH":
		err = bench(md, output)
	}

	if err != nil {
		fmt.Fprintf(output, "* error in %s mode: %s\n", md, err)
		return exitModeError
	}

	return exitOK
}

// common flags for the RUN and VERIFY modes
type sourceFlags struct {
	source  *string
	hz      *int
	limiter *string
	work    *float64
	prefs   *string
	log     *bool
}

func addSourceFlags(md *modalflag.Modes) sourceFlags {
	return sourceFlags{
		source:  md.AddString("source", "", "vblank source: AUTO, DRM, SLEEP, NULL, GLSWAP (default from preferences)"),
		hz:      md.AddInt("hz", 0, "refresh rate in hertz (default from preferences)"),
		limiter: md.AddString("limiter", "", "frame limiter: DEFAULT, VSYNCLIKE, DISABLED (default from preferences)"),
		work:    md.AddFloat64("work", 0.25, "time spent painting as a fraction of the frame interval"),
		prefs:   md.AddString("prefs", "", "preferences for this run only. key::value pairs separated by semi-colons"),
		log:     md.AddBool("log", false, "echo debugging log to stdout"),
	}
}

// apply the flags to the preferences. the preferences are not saved.
func (fl sourceFlags) apply(pref *preferences.Preferences) error {
	if *fl.hz != 0 {
		if err := pref.RefreshRate.Set(*fl.hz); err != nil {
			return err
		}
	}
	if *fl.limiter != "" {
		if err := pref.Limiter.Set(*fl.limiter); err != nil {
			return err
		}
	}
	if *fl.source != "" {
		if err := pref.Source.Set(*fl.source); err != nil {
			return err
		}
	}
	return nil
}

func (fl sourceFlags) setLog() {
	if *fl.log {
		logger.SetEcho(os.Stdout)
	} else {
		logger.SetEcho(nil)
	}
}

// loadPreferences from the preferences file. command line preferences take
// priority over the file and are only used for this run.
func loadPreferences(fl sourceFlags) (*preferences.Preferences, error) {
	if *fl.prefs != "" {
		prefs.PushCommandLineStack(*fl.prefs)
		defer func() {
			if unused := prefs.PopCommandLineStack(); unused != "" {
				logger.Logf(logger.Allow, "framepacer", "unused preferences: %s", unused)
			}
		}()
	}

	pref, err := preferences.NewPreferences()
	if err != nil {
		return nil, err
	}

	err = fl.apply(pref)
	if err != nil {
		return nil, err
	}

	return pref, nil
}

// newSource creates the named vblank source. the AUTO source is the hardware
// source if it is available and the sleep source otherwise.
func newSource(name string, pl *pipeline.Pipeline) (vblank.Source, error) {
	rec := pl.Timings()
	sleepPeriod := pl.Scheduler().OptimalRedrawTime()

	switch name {
	case vblank.SourceAuto:
		hw, err := vblank.NewHardware(rec, pl.Finished)
		if err != nil {
			logger.Logf(logger.Allow, "framepacer", "%v: using %s source", err, vblank.SourceSleep)
			return vblank.NewSleep(rec, sleepPeriod), nil
		}
		return hw, nil

	case vblank.SourceDRM:
		return vblank.NewHardware(rec, pl.Finished)

	case vblank.SourceGLSwap:
		swp, err := glswap.NewSwap(rec)
		if err != nil {
			return nil, err
		}
		if r := swp.RefreshRate(); r > 0 && r != pl.Scheduler().RefreshRate() {
			logger.Logf(logger.Allow, "framepacer", "display refresh rate is %dHz", r)
		}
		return swp, nil

	case vblank.SourceSleep:
		return vblank.NewSleep(rec, sleepPeriod), nil

	case vblank.SourceNull:
		return vblank.NewNull(rec), nil
	}

	return nil, fmt.Errorf("unknown vblank source: %s", name)
}

// newPipeline creates a pipeline bound to the preferences with the preferred
// vblank source.
func newPipeline(pref *preferences.Preferences) (*pipeline.Pipeline, error) {
	rec, err := pref.NewRecorder()
	if err != nil {
		return nil, err
	}

	pl := pipeline.NewPipeline(rec)

	err = pref.Bind(pl.Scheduler())
	if err != nil {
		return nil, err
	}

	src, err := newSource(pref.SourceName(), pl)
	if err != nil {
		return nil, err
	}
	pl.Scheduler().SetSource(src)

	return pl, nil
}

// end the pipeline when the process is interrupted. the returned function
// stops the signal handling.
func finishOnInterrupt(pl *pipeline.Pipeline) func() {
	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	done := make(chan bool)
	go func() {
		select {
		case <-intChan:
			pl.Finish()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(intChan)
		close(done)
	}
}

func run(md *modalflag.Modes, output io.Writer) error {
	md.NewMode()

	fl := addSourceFlags(md)
	cycles := md.AddInt("cycles", 0, "number of frames to paint (0 to run until interrupted)")
	interactive := md.AddBool("interactive", false, "control the scheduler from the keyboard")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsview.Address))
	dump := md.AddString("dump", "", "write a graph of the final pipeline state to file")
	profile := md.AddString("profile", "NONE", "run through profiler: CPU, MEM, TRACE, ALL (comma separated)")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) > 0 {
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	fl.setLog()

	prf, err := performance.ParseProfile(*profile)
	if err != nil {
		return err
	}

	pref, err := loadPreferences(fl)
	if err != nil {
		return err
	}

	pl, err := newPipeline(pref)
	if err != nil {
		return err
	}
	defer pl.End()

	pl.SetWork(*fl.work)
	pl.SetBudget(*cycles)
	// failed reports are logged by the pipeline
	pl.SetRolling(pref.ToleranceDuration(), func(rep timing.Report) {
		if rep.Pass {
			logger.Log(logger.Allow, "timing", rep.String())
		}
	})

	stop := finishOnInterrupt(pl)
	defer stop()

	if *stats {
		statsview.Launch(output)
	}

	if pl.Scheduler().Limiter() == scheduler.LimiterDisabled {
		logger.Log(logger.Allow, "framepacer", "limiter is DISABLED: no timings will be evaluated")
	}

	ctx, cancel := context.WithCancel(context.Background())

	// the console goroutine restores the terminal when it ends. it must have
	// ended before run() returns
	conDone := make(chan bool)
	defer func() {
		cancel()
		<-conDone
	}()

	if *interactive {
		con, err := console.NewConsole(os.Stdin, output)
		if err != nil {
			close(conDone)
			return err
		}
		bindKeys(con, pl, pref)
		con.Print("%s", con.Help())

		go func() {
			defer close(conDone)
			err := con.Run(ctx)
			if err != nil {
				logger.Logf(logger.Allow, "console", "%v", err)
			}
		}()
	} else {
		close(conDone)
	}

	start := time.Now()
	err = performance.RunProfiler(prf, paths.UniqueFilename("framepacer", pref.SourceName()), func() error {
		return pl.Run(ctx)
	})
	if err != nil {
		return err
	}

	st := pl.Stats()
	fmt.Fprintf(output, "%d frames in %.2fs using %s source at %dHz (%.2f fps measured, %d throttled)\n",
		st.Painted, time.Since(start).Seconds(), st.Source, st.RefreshRate, st.MeasuredFPS, st.Throttled)
	if st.Substitutions > 0 {
		fmt.Fprintf(output, "source was replaced %d times\n", st.Substitutions)
	}

	if *dump != "" {
		err = dumpStats(*dump, &st)
		if err != nil {
			return err
		}
	}

	return nil
}

// bindKeys for the interactive console. changes to the scheduler are
// requested through the pipeline so they happen between frames.
func bindKeys(con *console.Console, pl *pipeline.Pipeline, pref *preferences.Preferences) {
	sch := pl.Scheduler()

	changeRate := func(delta int) func() {
		return func() {
			pl.Request(func() {
				rate := sch.RefreshRate() + delta
				if err := pref.RefreshRate.Set(rate); err != nil {
					con.Print("%v\n", err)
					return
				}

				// the sleep source has a fixed period
				if _, ok := sch.Source().(*vblank.Sleep); ok {
					sch.SetSource(vblank.NewSleep(pl.Timings(), sch.OptimalRedrawTime()))
				}
				pl.ResetTimings()
				con.Print("refresh rate %dHz\n", sch.RefreshRate())
			})
		}
	}

	setSource := func(name string, create func() vblank.Source) func() {
		return func() {
			pl.Request(func() {
				sch.SetSource(create())
				pl.ResetTimings()
				con.Print("%s source\n", name)
			})
		}
	}

	con.Bind('+', "increase refresh rate", changeRate(1))
	con.Bind('-', "decrease refresh rate", changeRate(-1))
	con.Bind('s', "use sleep source", setSource(vblank.SourceSleep, func() vblank.Source {
		return vblank.NewSleep(pl.Timings(), sch.OptimalRedrawTime())
	}))
	con.Bind('n', "use null source", setSource(vblank.SourceNull, func() vblank.Source {
		return vblank.NewNull(pl.Timings())
	}))
	con.Bind('i', "show pipeline statistics", func() {
		pl.Request(func() {
			st := pl.Stats()
			con.Print("%s %s %dHz %s: %d cycles, %d throttled, %.2f fps, period %v, phase %v\n",
				st.State, st.Source, st.RefreshRate, st.Limiter, st.Cycles, st.Throttled, st.MeasuredFPS,
				st.AveragePeriod, st.AveragePhase)
		})
	})
	con.Bind('w', "save preferences", func() {
		pl.Request(func() {
			if err := pref.Save(); err != nil {
				con.Print("%v\n", err)
				return
			}
			con.Print("preferences saved\n")
		})
	})
	con.Bind('q', "quit", pl.Finish)
}

func dumpStats(filename string, st *pipeline.Stats) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	memviz.Map(f, st)
	return nil
}

func verify(md *modalflag.Modes, output io.Writer) error {
	md.NewMode()

	fl := addSourceFlags(md)
	report := md.AddString("report", "", "write the timing report to file as YAML")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) > 0 {
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	fl.setLog()

	pref, err := loadPreferences(fl)
	if err != nil {
		return err
	}

	// without synchronisation no blanks are recorded
	if l, _ := scheduler.ParseLimiter(pref.Limiter.String()); l == scheduler.LimiterDisabled {
		return fmt.Errorf("cannot verify timings with the %s limiter", l)
	}

	pl, err := newPipeline(pref)
	if err != nil {
		return err
	}
	defer pl.End()

	pl.SetWork(*fl.work)

	stop := finishOnInterrupt(pl)
	defer stop()

	// the pipeline ends when the timing history is full
	err = pl.Run(context.Background())
	if err != nil {
		return err
	}

	rep := pl.Evaluate(pref.ToleranceDuration())
	rep.Version = version.String()
	fmt.Fprintln(output, rep.String())

	if *report != "" {
		f, err := os.Create(*report)
		if err != nil {
			return err
		}
		defer f.Close()

		err = rep.WriteYAML(f)
		if err != nil {
			return err
		}
	}

	if !rep.Pass {
		return errTimingsFailed
	}

	return nil
}

func bench(md *modalflag.Modes, output io.Writer) error {
	md.NewMode()

	hz := md.AddInt("hz", scheduler.DefaultRefreshRate, "refresh rate in hertz used for the accuracy figure")
	cycles := md.AddInt("cycles", 10000, "number of frames to paint")
	log := md.AddBool("log", false, "echo debugging log to stdout")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) > 0 {
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	if *log {
		logger.SetEcho(os.Stdout)
	} else {
		logger.SetEcho(nil)
	}

	if *cycles < 1 {
		return fmt.Errorf("number of cycles must be positive")
	}

	// one sample for every frame so that the history never fills
	rec, err := timing.NewRecorder(*cycles + 1)
	if err != nil {
		return err
	}

	pl := pipeline.NewPipeline(rec)
	defer pl.End()

	sch := pl.Scheduler()
	sch.SetRefreshRate(*hz)
	sch.SetLimiter(scheduler.LimiterVSyncLike)
	sch.SetSource(vblank.NewNull(rec))
	pl.SetBudget(*cycles)

	stop := finishOnInterrupt(pl)
	defer stop()

	start := time.Now()
	err = pl.Run(context.Background())
	if err != nil {
		return err
	}
	dur := time.Since(start)

	fps, accuracy := performance.CalcFPS(pl.Painted(), dur.Seconds(), *hz)
	fmt.Fprintf(output, "%.2f fps (%d frames in %.2f seconds) %.1f%%\n", fps, pl.Painted(), dur.Seconds(), accuracy)

	return nil
}
