// Package fairness computes demographic-stratified evaluation metrics.
// It consumes the scorer's outputs only: demographic group labels arrive
// out-of-band and are never model inputs.
package fairness

import (
	"driftwatch/internal/model"
)

// minGroupSize drops groups too small for a stable metric
const minGroupSize = 10

// GroupMetrics are the per-group evaluation numbers
type GroupMetrics struct {
	F2     float64 `json:"f2"`
	PRAUC  float64 `json:"pr_auc"`
	ROCAUC float64 `json:"roc_auc"`
	N      int     `json:"n"`
}

// Report holds overall metrics, per-group metrics, and the F2 disparity
// (max minus min across reported groups)
type Report struct {
	Overall     GroupMetrics            `json:"overall"`
	ByGroup     map[string]GroupMetrics `json:"by_group"`
	F2Disparity float64                 `json:"f2_disparity"`
}

// Stratify computes F2, PR-AUC and ROC-AUC overall and per demographic
// group. Groups with fewer than minGroupSize samples are omitted rather
// than reported on noise.
func Stratify(yTrue, yPred []int, probs []float64, groups []string) Report {
	report := Report{
		Overall: GroupMetrics{
			F2:     model.FBeta(yTrue, yPred, 2),
			PRAUC:  model.PRAUC(yTrue, probs),
			ROCAUC: model.ROCAUC(yTrue, probs),
			N:      len(yTrue),
		},
		ByGroup: make(map[string]GroupMetrics),
	}
	if len(groups) != len(yTrue) {
		return report
	}

	indices := make(map[string][]int)
	for i, g := range groups {
		if g == "" {
			continue
		}
		indices[g] = append(indices[g], i)
	}

	minF2, maxF2 := 0.0, 0.0
	first := true
	for g, idx := range indices {
		if len(idx) < minGroupSize {
			continue
		}
		gt := make([]int, len(idx))
		gp := make([]int, len(idx))
		gprob := make([]float64, len(idx))
		for k, i := range idx {
			gt[k] = yTrue[i]
			gp[k] = yPred[i]
			gprob[k] = probs[i]
		}
		m := GroupMetrics{
			F2:     model.FBeta(gt, gp, 2),
			PRAUC:  model.PRAUC(gt, gprob),
			ROCAUC: model.ROCAUC(gt, gprob),
			N:      len(idx),
		}
		report.ByGroup[g] = m
		if first || m.F2 < minF2 {
			minF2 = m.F2
		}
		if first || m.F2 > maxF2 {
			maxF2 = m.F2
		}
		first = false
	}
	if !first {
		report.F2Disparity = maxF2 - minF2
	}
	return report
}
