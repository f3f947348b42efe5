package model

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// FBeta computes the recall-weighted F-beta score. Beta 2 weights recall
// twice as heavily as precision, the objective for this domain: a missed
// early warning costs more than a false alarm.
func FBeta(yTrue, yPred []int, beta float64) float64 {
	var tp, fp, fn float64
	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			tp++
		case yPred[i] == 1 && yTrue[i] == 0:
			fp++
		case yPred[i] == 0 && yTrue[i] == 1:
			fn++
		}
	}
	if tp == 0 {
		return 0
	}
	precision := tp / (tp + fp)
	recall := tp / (tp + fn)
	b2 := beta * beta
	return (1 + b2) * precision * recall / (b2*precision + recall)
}

// PRAUC computes average precision over descending probability thresholds
func PRAUC(yTrue []int, probs []float64) float64 {
	n := len(yTrue)
	if n == 0 {
		return 0
	}
	totalPos := 0
	for _, y := range yTrue {
		totalPos += y
	}
	if totalPos == 0 {
		return 0
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	var tp, fp float64
	auc, prevRecall := 0.0, 0.0
	for _, idx := range order {
		if yTrue[idx] == 1 {
			tp++
		} else {
			fp++
		}
		recall := tp / float64(totalPos)
		precision := tp / (tp + fp)
		auc += (recall - prevRecall) * precision
		prevRecall = recall
	}
	return auc
}

// ROCAUC computes the area under the ROC curve via gonum's ROC sweep
func ROCAUC(yTrue []int, probs []float64) float64 {
	n := len(yTrue)
	if n == 0 {
		return 0
	}
	pos, neg := 0, 0
	for _, y := range yTrue {
		if y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}

	// stat.ROC wants scores ascending with aligned class labels
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] < probs[order[b]]
	})
	scores := make([]float64, n)
	classes := make([]bool, n)
	for i, idx := range order {
		scores[i] = probs[idx]
		classes[i] = yTrue[idx] == 1
	}

	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	if len(fpr) > 1 && fpr[0] > fpr[len(fpr)-1] {
		reverse(fpr)
		reverse(tpr)
	}
	return integrate.Trapezoidal(fpr, tpr)
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
