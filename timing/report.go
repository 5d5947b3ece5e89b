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

package timing

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultTolerance is the default tolerance for the period checks.
const DefaultTolerance = 10 * time.Millisecond

// DefaultPhaseJitter is the default bound on the standard deviation of the
// paint-to-blank offset.
const DefaultPhaseJitter = 4 * time.Millisecond

// Thresholds that are not given as arguments to CheckTimings(). The correct
// values depend on the display hardware and so they are configurable.
type Thresholds struct {
	PhaseJitter time.Duration
}

// DefaultThresholds returns the thresholds used by a new Recorder.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PhaseJitter: DefaultPhaseJitter,
	}
}

// Report is the diagnostic outcome of evaluating a timing history. A failed
// report is not an error. It describes the quality of the frame pacing.
type Report struct {
	RunID   string    `yaml:"run_id"`
	Created time.Time `yaml:"created"`

	// description of the program that made the report. not set by Evaluate()
	Version string `yaml:"version,omitempty"`

	Samples  int  `yaml:"samples"`
	Rejected int  `yaml:"rejected"`
	HasVSync bool `yaml:"has_vsync"`

	// number of frames for which the vblank source had to wait. the recorder
	// does not know this so it is left for the owner of the source to fill in
	Throttled int `yaml:"throttled"`

	ExpectedMs    float64 `yaml:"expected_ms"`
	ToleranceMs   float64 `yaml:"tolerance_ms"`
	PhaseJitterMs float64 `yaml:"phase_jitter_ms"`

	AveragePeriodMs float64 `yaml:"average_period_ms"`
	MedianPeriodMs  float64 `yaml:"median_period_ms"`
	MADMs           float64 `yaml:"mad_ms"`

	// phase statistics are only calculated if HasVSync is true
	PhaseChecked     bool    `yaml:"phase_checked"`
	AveragePhaseMs   float64 `yaml:"average_phase_ms,omitempty"`
	PhaseStdDevMs    float64 `yaml:"phase_stddev_ms,omitempty"`
	PhaseSampleCount int     `yaml:"phase_samples,omitempty"`

	Failures []string `yaml:"failures,omitempty"`
	Pass     bool     `yaml:"pass"`
}

func (rep Report) String() string {
	s := strings.Builder{}
	result := "PASS"
	if !rep.Pass {
		result = "FAIL"
	}
	s.WriteString(fmt.Sprintf("%s: %d samples, period %.3fms (median %.3fms, mad %.3fms, expected %.3fms)",
		result, rep.Samples, rep.AveragePeriodMs, rep.MedianPeriodMs, rep.MADMs, rep.ExpectedMs))
	if rep.PhaseChecked {
		s.WriteString(fmt.Sprintf(", phase %.3fms (stddev %.3fms)", rep.AveragePhaseMs, rep.PhaseStdDevMs))
	}
	if rep.Throttled > 0 {
		s.WriteString(fmt.Sprintf(", %d throttled", rep.Throttled))
	}
	for _, f := range rep.Failures {
		s.WriteString(fmt.Sprintf("\n  %s", f))
	}
	return s.String()
}

// WriteYAML writes the report to the io.Writer as a YAML document.
func (rep Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

// Evaluate the history against the expected period. The returned Report
// explains every failed check. The history is never changed by this function.
func (rec *Recorder) Evaluate(expected time.Duration, tolerance time.Duration, hasVSync bool) Report {
	rep := Report{
		RunID:         uuid.NewString(),
		Created:       time.Now(),
		Samples:       len(rec.samples),
		Rejected:      rec.rejected,
		HasVSync:      hasVSync,
		ExpectedMs:    Milliseconds(expected),
		ToleranceMs:   Milliseconds(tolerance),
		PhaseJitterMs: Milliseconds(rec.Thresholds.PhaseJitter),
	}

	periods := rec.periods()
	if len(periods) == 0 {
		rep.Failures = append(rep.Failures, "no period samples")
		return rep
	}

	rep.AveragePeriodMs = Mean(periods)
	rep.MedianPeriodMs = Median(periods)
	rep.MADMs = MAD(periods)

	if diff := rep.MedianPeriodMs - rep.ExpectedMs; diff > rep.ToleranceMs || -diff > rep.ToleranceMs {
		rep.Failures = append(rep.Failures, fmt.Sprintf("median period %.3fms is not within %.3fms of %.3fms",
			rep.MedianPeriodMs, rep.ToleranceMs, rep.ExpectedMs))
	}

	if rep.MADMs > rep.ToleranceMs {
		rep.Failures = append(rep.Failures, fmt.Sprintf("period deviation %.3fms exceeds %.3fms",
			rep.MADMs, rep.ToleranceMs))
	}

	if hasVSync {
		offsets := rec.offsets()
		rep.PhaseChecked = true
		rep.PhaseSampleCount = len(offsets)
		if len(offsets) == 0 {
			rep.Failures = append(rep.Failures, "no phase samples")
		} else {
			rep.AveragePhaseMs = Mean(offsets)
			rep.PhaseStdDevMs = StdDev(offsets)
			if rep.PhaseStdDevMs > rep.PhaseJitterMs {
				rep.Failures = append(rep.Failures, fmt.Sprintf("phase jitter %.3fms exceeds %.3fms",
					rep.PhaseStdDevMs, rep.PhaseJitterMs))
			}
		}
	}

	rep.Pass = len(rep.Failures) == 0
	return rep
}
