// Package scoring maps classifier probabilities onto the bounded 0-100
// score, assigns bands, and holds the shared model reference for the
// inference phase.
package scoring

import (
	"math"
	"sync/atomic"

	"driftwatch/domain/risk"
	"driftwatch/internal/errors"
)

// ScoreFromProbability maps a probability onto [0, 100]. The transform is
// monotonic: a higher probability never yields a lower score.
func ScoreFromProbability(p float64) float64 {
	score := math.Round(p * 100)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ModelStore shares one TrainedModel across concurrent inference readers.
// Retraining swaps the pointer atomically, so a reader sees either the
// old complete model or the new complete model, never a partial one.
type ModelStore struct {
	current atomic.Pointer[risk.TrainedModel]
}

// NewModelStore creates an empty store; inference against it fails with
// MODEL_NOT_TRAINED until the first Replace
func NewModelStore() *ModelStore {
	return &ModelStore{}
}

// Replace installs a newly trained model for all subsequent readers
func (s *ModelStore) Replace(m *risk.TrainedModel) {
	s.current.Store(m)
}

// Current returns the active model, or ModelNotTrained when no training
// epoch has completed yet
func (s *ModelStore) Current() (*risk.TrainedModel, error) {
	m := s.current.Load()
	if m == nil {
		return nil, errors.ModelNotTrained()
	}
	return m, nil
}
