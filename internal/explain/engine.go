// Package explain turns model-agnostic per-column contribution scores
// into a ranked, human-readable account of what drifted from baseline.
// It only ever sees column names that already passed the leakage audit.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"driftwatch/domain/risk"
	"driftwatch/domain/signal"
	"driftwatch/internal/signals"
)

// Contribution is the engine's model-agnostic input: a vetted column name
// and an absolute contribution score. The engine does not care whether
// the score came from a linear weight or a tree ensemble's importance.
type Contribution struct {
	Column string
	Score  float64
}

// Engine ranks contributions and renders signed deltas
type Engine struct {
	topK int
}

// NewEngine creates an explainability engine returning at most topK entries
func NewEngine(topK int) *Engine {
	return &Engine{topK: topK}
}

// TopFeatures collapses column contributions onto their base features
// (keeping each feature's strongest column), ranks by absolute
// contribution, and reads direction and magnitude off the latest
// deviation records.
func (e *Engine) TopFeatures(contribs []Contribution, latest []signal.DeviationRecord) []risk.TopFeature {
	byFeature := make(map[string]float64)
	order := make([]string, 0, len(contribs))
	for _, c := range contribs {
		feat := signals.BaseFeature(c.Column)
		if prev, seen := byFeature[feat]; !seen {
			byFeature[feat] = c.Score
			order = append(order, feat)
		} else if c.Score > prev {
			byFeature[feat] = c.Score
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return byFeature[order[i]] > byFeature[order[j]]
	})

	records := make(map[string]signal.DeviationRecord, len(latest))
	for _, r := range latest {
		records[r.Feature] = r
	}

	out := make([]risk.TopFeature, 0, e.topK)
	for _, feat := range order {
		if len(out) == e.topK {
			break
		}
		rec, ok := records[feat]
		if !ok || !rec.Deviation.Valid {
			continue
		}
		direction := "up"
		if rec.Deviation.V < 0 {
			direction = "down"
		}
		magnitude := rec.Deviation.V
		if rec.PctChange.Valid {
			magnitude = rec.PctChange.V
		}
		if magnitude < 0 {
			magnitude = -magnitude
		}
		out = append(out, risk.TopFeature{
			Name:      feat,
			Direction: direction,
			Magnitude: magnitude,
		})
	}
	return out
}

// Narrate renders the ranked features as one supportive paragraph, e.g.
// "Sleep Hours decreased by 12.5% relative to baseline"
func (e *Engine) Narrate(top []risk.TopFeature, latest []signal.DeviationRecord) string {
	if len(top) == 0 {
		return "No strong deviations from your baseline."
	}
	records := make(map[string]signal.DeviationRecord, len(latest))
	for _, r := range latest {
		records[r.Feature] = r
	}

	parts := make([]string, 0, len(top))
	for _, tf := range top {
		verb := "increased"
		if tf.Direction == "down" {
			verb = "decreased"
		}
		rec := records[tf.Name]
		if rec.PctChange.Valid {
			parts = append(parts, fmt.Sprintf("%s %s by %.1f%% relative to baseline",
				humanize(tf.Name), verb, tf.Magnitude))
		} else {
			parts = append(parts, fmt.Sprintf("%s %s by %.2f relative to baseline",
				humanize(tf.Name), verb, tf.Magnitude))
		}
	}
	return "Main changes we observed: " + strings.Join(parts, "; ")
}

func humanize(feature string) string {
	words := strings.Split(feature, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
