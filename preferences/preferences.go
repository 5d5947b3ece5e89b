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

package preferences

import (
	"fmt"
	"strings"
	"time"

	"github.com/jetsetilly/framepacer/curated"
	"github.com/jetsetilly/framepacer/paths"
	"github.com/jetsetilly/framepacer/prefs"
	"github.com/jetsetilly/framepacer/scheduler"
	"github.com/jetsetilly/framepacer/timing"
	"github.com/jetsetilly/framepacer/vblank"
)

// InvalidPreference is returned when a value is outside of the range
// accepted by a preference.
const InvalidPreference = "preferences: %s: %v"

// default values
const (
	defaultRefreshRate = 60
	defaultSource      = vblank.SourceAuto
)

// Preferences defines and collates all the preference values used by the
// scheduler.
type Preferences struct {
	dsk *prefs.Disk

	// target refresh rate in hertz
	RefreshRate prefs.Int

	// name of the scheduler.Limiter
	Limiter prefs.String

	// name of the vblank source. one of the vblank.SourceNames
	Source prefs.String

	// number of samples in the timing history
	Capacity prefs.Int

	// tolerance of the period checks in milliseconds
	Tolerance prefs.Float

	// bound on the standard deviation of the phase in milliseconds
	PhaseJitter prefs.Float
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values are loaded from the preferences file in the
// resource directory.
func NewPreferences() (*Preferences, error) {
	pth, err := paths.ResourcePath("", prefs.DefaultPrefsFile)
	if err != nil {
		return nil, err
	}
	return NewPreferencesFromFile(pth)
}

// NewPreferencesFromFile is like NewPreferences() but uses the named file.
func NewPreferencesFromFile(pth string) (*Preferences, error) {
	p := &Preferences{}

	p.RefreshRate.SetHookPre(func(v prefs.Value) error {
		if v.(int) < 1 {
			return curated.Errorf(InvalidPreference, "refresh rate", v)
		}
		return nil
	})
	p.Limiter.SetHookPre(func(v prefs.Value) error {
		_, err := scheduler.ParseLimiter(v.(string))
		if err != nil {
			return curated.Errorf(InvalidPreference, "limiter", err)
		}
		return nil
	})
	p.Source.SetHookPre(func(v prefs.Value) error {
		s := strings.ToUpper(v.(string))
		for _, n := range vblank.SourceNames {
			if s == n {
				return nil
			}
		}
		return curated.Errorf(InvalidPreference, "source", v)
	})
	p.Capacity.SetHookPre(func(v prefs.Value) error {
		if v.(int) < 1 {
			return curated.Errorf(InvalidPreference, "capacity", v)
		}
		return nil
	})
	p.Tolerance.SetHookPre(func(v prefs.Value) error {
		if v.(float64) < 0 {
			return curated.Errorf(InvalidPreference, "tolerance", v)
		}
		return nil
	})
	p.PhaseJitter.SetHookPre(func(v prefs.Value) error {
		if v.(float64) < 0 {
			return curated.Errorf(InvalidPreference, "phase jitter", v)
		}
		return nil
	})

	err := p.SetDefaults()
	if err != nil {
		return nil, err
	}

	p.dsk, err = prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("scheduler.refreshrate", &p.RefreshRate)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("scheduler.limiter", &p.Limiter)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("vblank.source", &p.Source)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.capacity", &p.Capacity)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.tolerance", &p.Tolerance)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.phasejitter", &p.PhaseJitter)
	if err != nil {
		return nil, err
	}

	err = p.dsk.Load()
	if err != nil {
		// ignore missing prefs file errors
		if !curated.Is(err, prefs.NoPrefsFile) {
			return nil, err
		}
	}

	return p, nil
}

// SetDefaults reverts all preferences to their default values.
func (p *Preferences) SetDefaults() error {
	if err := p.RefreshRate.Set(defaultRefreshRate); err != nil {
		return err
	}
	if err := p.Limiter.Set(scheduler.LimiterDefault.String()); err != nil {
		return err
	}
	if err := p.Source.Set(defaultSource); err != nil {
		return err
	}
	if err := p.Capacity.Set(timing.DefaultCapacity); err != nil {
		return err
	}
	if err := p.Tolerance.Set(timing.Milliseconds(timing.DefaultTolerance)); err != nil {
		return err
	}
	return p.PhaseJitter.Set(timing.Milliseconds(timing.DefaultPhaseJitter))
}

// Load preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}

// Bind the preferences to a scheduler. The current refresh rate and limiter
// are applied to the scheduler and any later change to those values is
// applied as it happens.
func (p *Preferences) Bind(sch *scheduler.Scheduler) error {
	p.RefreshRate.SetHookPost(func(v prefs.Value) error {
		sch.SetRefreshRate(v.(int))
		return nil
	})
	p.Limiter.SetHookPost(func(v prefs.Value) error {
		l, err := scheduler.ParseLimiter(v.(string))
		if err != nil {
			return err
		}
		sch.SetLimiter(l)
		return nil
	})

	sch.SetRefreshRate(p.RefreshRate.Get().(int))
	l, err := scheduler.ParseLimiter(p.Limiter.Get().(string))
	if err != nil {
		return err
	}
	sch.SetLimiter(l)

	return nil
}

// SourceName returns the name of the preferred vblank source in upper case.
func (p *Preferences) SourceName() string {
	return strings.ToUpper(p.Source.Get().(string))
}

// ToleranceDuration returns the tolerance preference as a duration.
func (p *Preferences) ToleranceDuration() time.Duration {
	return timing.Duration(p.Tolerance.Get().(float64))
}

// Thresholds returns the timing thresholds described by the preferences.
func (p *Preferences) Thresholds() timing.Thresholds {
	return timing.Thresholds{
		PhaseJitter: timing.Duration(p.PhaseJitter.Get().(float64)),
	}
}

// NewRecorder creates a timing.Recorder with the capacity and thresholds
// described by the preferences.
func (p *Preferences) NewRecorder() (*timing.Recorder, error) {
	rec, err := timing.NewRecorder(p.Capacity.Get().(int))
	if err != nil {
		return nil, fmt.Errorf("preferences: %w", err)
	}
	rec.Thresholds = p.Thresholds()
	return rec, nil
}
