package signal

import "driftwatch/domain/cohort"

// FeatureBaseline holds the personal reference statistics for one feature.
// Std is the undefined sentinel (Valid=false) when fewer than two valid
// observations fell inside the baseline window, or when variance is zero.
type FeatureBaseline struct {
	Mean  cohort.Value `json:"mean"`
	Std   cohort.Value `json:"std"`
	Count int          `json:"count"`
}

// Baseline is one person's reference statistics over the baseline window.
// WindowEnd is the first wave index excluded from the window; every wave
// used for deviation or target computation must be >= WindowEnd.
type Baseline struct {
	PersonID  cohort.PersonID            `json:"person_id"`
	WindowEnd int                        `json:"window_end"`
	Features  map[string]FeatureBaseline `json:"features"`
}

// HasAnyObservation reports whether any feature had at least one valid
// observation inside the window
func (b Baseline) HasAnyObservation() bool {
	for _, fb := range b.Features {
		if fb.Count > 0 {
			return true
		}
	}
	return false
}

// DeviationRecord is the weak-signal snapshot for one (person, wave,
// feature) triple. Pure derived data; recomputed from scratch whenever
// the baseline or history changes.
type DeviationRecord struct {
	PersonID    cohort.PersonID `json:"person_id"`
	WaveIndex   int             `json:"wave_index"`
	Feature     string          `json:"feature"`
	Raw         cohort.Value    `json:"raw"`
	Deviation   cohort.Value    `json:"deviation"`
	PctChange   cohort.Value    `json:"pct_change"`
	Z           cohort.Value    `json:"z"`
	MovingAvg   cohort.Value    `json:"moving_avg"`
	TrendSlope  cohort.Value    `json:"trend_slope"`
	DeclineFlag bool            `json:"decline_flag"`
}

// FeatureVector is one person's assembled classifier input. MaxWaveIndex
// records the latest wave any component was derived from, so the leakage
// audit can compare it against the target's terminal wave.
type FeatureVector struct {
	PersonID     cohort.PersonID `json:"person_id"`
	MaxWaveIndex int             `json:"max_wave_index"`
	Names        []string        `json:"names"`
	Values       []float64       `json:"values"`
}

// TrainingExample pairs a leakage-audited vector with its terminal-wave label
type TrainingExample struct {
	Vector       FeatureVector
	Label        int
	TerminalWave int
}
