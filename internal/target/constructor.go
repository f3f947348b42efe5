// Package target derives the training label strictly from each person's
// terminal wave and enforces the no-leakage invariant over the assembled
// feature vectors. Leakage checks here are a correctness gate: any
// violation aborts the run before a model is fitted.
package target

import (
	"fmt"

	"driftwatch/domain/cohort"
	"driftwatch/domain/signal"
	"driftwatch/internal/config"
	"driftwatch/internal/errors"
	"driftwatch/internal/signals"
)

// Constructor builds terminal-wave labels for a designated outcome feature
type Constructor struct {
	cfg   config.TargetConfig
	table cohort.PolarityTable
}

// NewConstructor creates a target constructor. The outcome feature must
// be present in the polarity table so the "worse" direction of the
// threshold is known.
func NewConstructor(cfg config.TargetConfig, table cohort.PolarityTable) (*Constructor, error) {
	if _, ok := table[cfg.Feature]; !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("target feature %q is not in the polarity table", cfg.Feature))
	}
	return &Constructor{cfg: cfg, table: table}, nil
}

// Label computes the binary label from the terminal wave only. Returns
// ok=false when the terminal value is missing, which excludes the person
// from training without failing the batch.
func (c *Constructor) Label(person cohort.Person) (label int, terminalWave int, ok bool) {
	terminal, exists := person.TerminalWave()
	if !exists {
		return 0, 0, false
	}
	v := terminal.Feature(c.cfg.Feature)
	if !v.Valid {
		return 0, terminal.WaveIndex, false
	}
	trait := c.table[c.cfg.Feature]
	if trait.Polarity == cohort.HigherIsBetter {
		if v.V < c.cfg.Threshold {
			label = 1
		}
	} else {
		if v.V > c.cfg.Threshold {
			label = 1
		}
	}
	return label, terminal.WaveIndex, true
}

// Audit validates the temporal non-leakage invariant over assembled
// training examples. Every wave index contributing to a vector must be
// strictly below the terminal wave defining that person's label, and no
// excluded outcome proxy may appear among the vector's columns. Any
// violation is fatal.
func (c *Constructor) Audit(examples []signal.TrainingExample) error {
	excluded := make(map[string]bool, len(c.cfg.ExcludedFeatures))
	for _, f := range c.cfg.ExcludedFeatures {
		excluded[f] = true
	}

	for _, ex := range examples {
		if ex.Vector.MaxWaveIndex >= ex.TerminalWave {
			return errors.LeakageViolation(fmt.Sprintf(
				"person %s: feature vector references wave %d, target wave is %d",
				ex.Vector.PersonID, ex.Vector.MaxWaveIndex, ex.TerminalWave))
		}
		for _, name := range ex.Vector.Names {
			if excluded[signals.BaseFeature(name)] {
				return errors.LeakageViolation(fmt.Sprintf(
					"person %s: excluded outcome proxy %q present in model inputs",
					ex.Vector.PersonID, name))
			}
		}
	}
	return nil
}
