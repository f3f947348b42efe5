// Package model fits and evaluates the binary drift classifier and owns
// the probability side of risk scoring. Fitting is full-batch gradient
// descent on a weighted logistic loss: deterministic for a given input
// order, which keeps retrains reproducible without global random state.
package model

import (
	"fmt"
	"math"

	"driftwatch/domain/risk"
	"driftwatch/domain/signal"
	"driftwatch/internal/errors"
)

// fitLogistic runs weighted full-batch gradient descent from a zero
// initialization. Inputs are assumed column-standardized by the caller.
func fitLogistic(x [][]float64, y []int, sampleWeights []float64, iterations int, learningRate float64) (weights []float64, intercept float64) {
	if len(x) == 0 {
		return nil, 0
	}
	dim := len(x[0])
	weights = make([]float64, dim)
	n := float64(len(x))

	for iter := 0; iter < iterations; iter++ {
		gradW := make([]float64, dim)
		gradB := 0.0
		for i, row := range x {
			p := sigmoid(dot(weights, row) + intercept)
			residual := sampleWeights[i] * (p - float64(y[i]))
			for j, v := range row {
				gradW[j] += residual * v
			}
			gradB += residual
		}
		for j := range weights {
			weights[j] -= learningRate * gradW[j] / n
		}
		intercept -= learningRate * gradB / n
	}
	return weights, intercept
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// standardize computes per-column mean/std over the training matrix and
// returns the transformed copy. Zero-variance columns pass through with
// std pinned to 1 so they contribute nothing rather than exploding.
func standardize(x [][]float64) (scaled [][]float64, means, stds []float64) {
	if len(x) == 0 {
		return nil, nil, nil
	}
	dim := len(x[0])
	means = make([]float64, dim)
	stds = make([]float64, dim)
	n := float64(len(x))

	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	scaled = make([][]float64, len(x))
	for i, row := range x {
		s := make([]float64, dim)
		for j, v := range row {
			s[j] = (v - means[j]) / stds[j]
		}
		scaled[i] = s
	}
	return scaled, means, stds
}

// Probability is the inference path: a pure function of the trained model
// and one feature vector, with no side effects on either
func Probability(m *risk.TrainedModel, vec signal.FeatureVector) (float64, error) {
	if m == nil {
		return 0, errors.ModelNotTrained()
	}
	if len(vec.Values) != len(m.Weights) {
		return 0, errors.New(errors.CodeInternalError, fmt.Sprintf(
			"feature vector has %d values, model expects %d", len(vec.Values), len(m.Weights)))
	}
	z := m.Intercept
	for j, v := range vec.Values {
		z += m.Weights[j] * (v - m.FeatureMeans[j]) / m.FeatureStds[j]
	}
	return sigmoid(z), nil
}
