// Package baseline computes per-person, per-feature reference statistics
// from the earliest window of a person's wave history. Each person is
// only ever compared against these statistics, never a population norm.
package baseline

import (
	"github.com/montanaflynn/stats"

	"driftwatch/domain/cohort"
	"driftwatch/domain/signal"
)

// Builder derives baselines over a fixed early window. windowWaves is the
// number of earliest waves in the window; 0 means the first half of each
// person's history. The choice is fixed at construction so every person
// in a batch is measured the same way.
type Builder struct {
	windowWaves int
	features    []string
}

// NewBuilder creates a baseline builder for the given feature set
func NewBuilder(windowWaves int, features []string) *Builder {
	return &Builder{windowWaves: windowWaves, features: features}
}

// WindowEnd returns the first wave position excluded from the baseline
// window for a history of length n. An empty history has no window.
func (b *Builder) WindowEnd(n int) int {
	if n == 0 {
		return 0
	}
	if b.windowWaves > 0 {
		if b.windowWaves > n {
			return n
		}
		return b.windowWaves
	}
	half := n / 2
	if half < 1 {
		half = 1
	}
	return half
}

// Build computes the baseline for one person. Pure function of the input
// history: null values are excluded, mean and standard deviation cover
// only valid observations. A feature with fewer than two valid
// observations, or zero variance, gets the undefined-std sentinel so
// downstream z-scores resolve to undefined instead of a fake number.
func (b *Builder) Build(person cohort.Person) signal.Baseline {
	end := b.WindowEnd(len(person.Waves))
	window := person.Waves[:end]

	out := signal.Baseline{
		PersonID: person.ID,
		Features: make(map[string]signal.FeatureBaseline, len(b.features)),
	}
	if end > 0 {
		out.WindowEnd = window[end-1].WaveIndex + 1
	}

	for _, feat := range b.features {
		vals := make([]float64, 0, len(window))
		for _, w := range window {
			if v := w.Feature(feat); v.Valid {
				vals = append(vals, v.V)
			}
		}
		fb := signal.FeatureBaseline{Count: len(vals)}
		if len(vals) > 0 {
			mean, _ := stats.Mean(vals)
			fb.Mean = cohort.Val(mean)
		}
		if len(vals) >= 2 {
			// Population standard deviation: the window is the person's
			// whole reference state, not a sample from a larger one
			std, err := stats.StandardDeviation(vals)
			if err == nil && std > 0 {
				fb.Std = cohort.Val(std)
			}
		}
		out.Features[feat] = fb
	}
	return out
}
