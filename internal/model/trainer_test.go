package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/domain/cohort"
	"driftwatch/domain/risk"
	"driftwatch/domain/signal"
	"driftwatch/internal/config"
	"driftwatch/internal/errors"
)

func testModelConfig() config.ModelConfig {
	return config.ModelConfig{
		Seed:              42,
		HoldoutFraction:   0.2,
		ImbalanceStrategy: "class_weight",
		Iterations:        500,
		LearningRate:      0.1,
		Cutoffs:           risk.BandCutoffs{Low: 30, Moderate: 60},
	}
}

// separableExamples builds a cohort where positives sit well below the
// negatives on a single column, with deterministic jitter
func separableExamples(n int) []signal.TrainingExample {
	examples := make([]signal.TrainingExample, n)
	for i := range examples {
		label := 0
		value := 1.0 + 0.01*float64(i)
		if i%3 == 0 {
			label = 1
			value = -2.0 - 0.01*float64(i)
		}
		examples[i] = signal.TrainingExample{
			Vector: signal.FeatureVector{
				PersonID: cohort.PersonID(fmt.Sprintf("p%03d", i)),
				Names:    []string{"health_rating_z"},
				Values:   []float64{value},
			},
			Label:        label,
			TerminalWave: 5 + i/15,
		}
	}
	return examples
}

func TestTrain_SeparableCohort(t *testing.T) {
	trainer := NewTrainer(testModelConfig())
	m, err := trainer.Train(separableExamples(60))
	require.NoError(t, err)

	require.Len(t, m.Weights, 1)
	assert.Less(t, m.Weights[0], 0.0,
		"lower values mark positives, so the standardized weight is negative")
	assert.Contains(t, thresholdCandidates, m.Threshold)
	assert.NotEmpty(t, m.Version)

	// Perfectly separable holdout: every recall-oriented metric maxes out
	assert.InDelta(t, 1.0, m.Metrics.F2, 1e-9)
	assert.InDelta(t, 1.0, m.Metrics.ROCAUC, 1e-9)
	assert.Equal(t, 12, m.Metrics.HoldoutSize)

	pDrift, err := Probability(m, signal.FeatureVector{Values: []float64{-2.5}})
	require.NoError(t, err)
	pStable, err := Probability(m, signal.FeatureVector{Values: []float64{1.5}})
	require.NoError(t, err)
	assert.Greater(t, pDrift, pStable)
}

func TestTrain_RefusesTinyCohorts(t *testing.T) {
	trainer := NewTrainer(testModelConfig())
	_, err := trainer.Train(separableExamples(5))
	require.Error(t, err)
}

func TestTrain_DeterministicAcrossRuns(t *testing.T) {
	trainer := NewTrainer(testModelConfig())
	first, err := trainer.Train(separableExamples(60))
	require.NoError(t, err)
	second, err := trainer.Train(separableExamples(60))
	require.NoError(t, err)

	// Versions differ, everything learned must not
	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.Intercept, second.Intercept)
	assert.Equal(t, first.Threshold, second.Threshold)
	assert.Equal(t, first.Metrics, second.Metrics)
}

func TestSplit_HoldsOutLatestTerminalWaves(t *testing.T) {
	trainer := NewTrainer(testModelConfig())
	train, holdout := trainer.split(separableExamples(60))

	require.Len(t, holdout, 12)
	require.Len(t, train, 48)
	maxTrain := 0
	for _, ex := range train {
		if ex.TerminalWave > maxTrain {
			maxTrain = ex.TerminalWave
		}
	}
	for _, ex := range holdout {
		assert.GreaterOrEqual(t, ex.TerminalWave, maxTrain,
			"holdout outcomes must not precede anything the fit saw")
	}
}

func TestSampleWeights_Balanced(t *testing.T) {
	trainer := NewTrainer(testModelConfig())
	y := []int{1, 0, 0, 0}
	weights := trainer.sampleWeights(y)

	assert.InDelta(t, 2.0, weights[0], 1e-9)
	assert.InDelta(t, 4.0/6.0, weights[1], 1e-9)

	// Weighted mass per class evens out
	assert.InDelta(t, weights[0], weights[1]+weights[2]+weights[3], 1e-9)
}

func TestSampleWeights_SingleClassFallsBackToUniform(t *testing.T) {
	trainer := NewTrainer(testModelConfig())
	weights := trainer.sampleWeights([]int{0, 0, 0})
	assert.Equal(t, []float64{1, 1, 1}, weights)
}

func TestEvaluate_TiesResolveToHigherThreshold(t *testing.T) {
	trainer := NewTrainer(testModelConfig())
	// A model that separates the holdout perfectly makes every threshold
	// between the classes tie at F2=1; the sweep must keep the highest one
	m, err := trainer.Train(separableExamples(60))
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Threshold)
}

func TestProbability_NilModel(t *testing.T) {
	_, err := Probability(nil, signal.FeatureVector{Values: []float64{1}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeModelNotTrained, errors.GetCode(err))
}

func TestProbability_DimensionMismatch(t *testing.T) {
	trainer := NewTrainer(testModelConfig())
	m, err := trainer.Train(separableExamples(60))
	require.NoError(t, err)

	_, err = Probability(m, signal.FeatureVector{Values: []float64{1, 2}})
	assert.Error(t, err)
}
