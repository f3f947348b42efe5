package model

import (
	"driftwatch/domain/risk"
	"driftwatch/domain/signal"
)

// Contribution is one column's share of a prediction: linear weight times
// standardized magnitude. Consumers treat the score as model-agnostic.
type Contribution struct {
	Column string
	Score  float64
}

// Contributions decomposes a single prediction into per-column scores
func Contributions(m *risk.TrainedModel, vec signal.FeatureVector) ([]Contribution, error) {
	if _, err := Probability(m, vec); err != nil {
		return nil, err
	}
	out := make([]Contribution, len(vec.Values))
	for j, v := range vec.Values {
		scaled := (v - m.FeatureMeans[j]) / m.FeatureStds[j]
		score := m.Weights[j] * scaled
		if score < 0 {
			score = -score
		}
		out[j] = Contribution{Column: m.FeatureNames[j], Score: score}
	}
	return out, nil
}
