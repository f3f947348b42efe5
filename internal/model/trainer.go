package model

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"driftwatch/domain/risk"
	"driftwatch/domain/signal"
	"driftwatch/internal"
	"driftwatch/internal/config"
	"driftwatch/internal/errors"
)

// thresholdCandidates are the decision thresholds swept for the best F2
// on the holdout. Deliberately skewed below 0.5: recall is favored.
var thresholdCandidates = []float64{0.20, 0.25, 0.30, 0.35, 0.40, 0.45, 0.50}

const minTrainingExamples = 10

// Trainer fits the drift classifier and packages it as an immutable
// TrainedModel. The fit itself is serial; it is the global barrier
// between the per-person extraction phase and the inference phase.
type Trainer struct {
	cfg config.ModelConfig
	log *internal.Logger
}

// NewTrainer creates a trainer from the model configuration
func NewTrainer(cfg config.ModelConfig) *Trainer {
	return &Trainer{cfg: cfg, log: internal.DefaultLogger.With("trainer")}
}

// Train fits the classifier, picks the F2-optimal decision threshold on a
// held-out split of temporally-later examples, and returns the versioned
// model bundle. The returned model is never mutated afterwards.
func (t *Trainer) Train(examples []signal.TrainingExample) (*risk.TrainedModel, error) {
	if len(examples) < minTrainingExamples {
		return nil, errors.New(errors.CodeInternalError,
			"not enough training examples to fit a model")
	}

	train, holdout := t.split(examples)
	t.log.Info("fitting on %d examples, holding out %d", len(train), len(holdout))

	x := make([][]float64, len(train))
	y := make([]int, len(train))
	for i, ex := range train {
		x[i] = ex.Vector.Values
		y[i] = ex.Label
	}
	scaled, means, stds := standardize(x)
	weights := t.sampleWeights(y)

	w, b := fitLogistic(scaled, y, weights, t.cfg.Iterations, t.cfg.LearningRate)

	m := &risk.TrainedModel{
		Version:      uuid.NewString(),
		FeatureNames: append([]string(nil), examples[0].Vector.Names...),
		Weights:      w,
		Intercept:    b,
		FeatureMeans: means,
		FeatureStds:  stds,
		Cutoffs:      t.cfg.Cutoffs,
		TrainedAt:    time.Now().UTC(),
	}

	threshold, metrics := t.evaluate(m, holdout)
	m.Threshold = threshold
	m.Metrics = metrics
	t.log.Info("model %s trained: threshold=%.2f f2=%.3f pr_auc=%.3f roc_auc=%.3f",
		m.Version, m.Threshold, metrics.F2, metrics.PRAUC, metrics.ROCAUC)
	return m, nil
}

// split holds out the temporally-latest fraction of examples: persons
// whose terminal waves come last form the evaluation set, so metrics are
// measured on outcomes later than anything the fit saw. Ties inside the
// same terminal wave are broken by a seeded shuffle.
func (t *Trainer) split(examples []signal.TrainingExample) (train, holdout []signal.TrainingExample) {
	rng := rand.New(rand.NewSource(t.cfg.Seed))
	shuffled := append([]signal.TrainingExample(nil), examples...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	sort.SliceStable(shuffled, func(i, j int) bool {
		return shuffled[i].TerminalWave < shuffled[j].TerminalWave
	})

	nHoldout := int(float64(len(shuffled)) * t.cfg.HoldoutFraction)
	if nHoldout < 1 {
		nHoldout = 1
	}
	cut := len(shuffled) - nHoldout
	return shuffled[:cut], shuffled[cut:]
}

// sampleWeights counters class imbalance with balanced weighting when the
// strategy asks for it
func (t *Trainer) sampleWeights(y []int) []float64 {
	weights := make([]float64, len(y))
	for i := range weights {
		weights[i] = 1
	}
	if t.cfg.ImbalanceStrategy != "class_weight" {
		return weights
	}

	pos := 0
	for _, v := range y {
		pos += v
	}
	neg := len(y) - pos
	if pos == 0 || neg == 0 {
		t.log.Warn("single-class training set, class weighting disabled")
		return weights
	}
	wPos := float64(len(y)) / (2 * float64(pos))
	wNeg := float64(len(y)) / (2 * float64(neg))
	for i, v := range y {
		if v == 1 {
			weights[i] = wPos
		} else {
			weights[i] = wNeg
		}
	}
	return weights
}

// evaluate sweeps the decision threshold for maximum F2 on the holdout
// and reports the recall-weighted metrics there. Ties resolve to the
// higher threshold.
func (t *Trainer) evaluate(m *risk.TrainedModel, holdout []signal.TrainingExample) (float64, risk.EvalMetrics) {
	probs := make([]float64, len(holdout))
	yTrue := make([]int, len(holdout))
	positives := 0
	for i, ex := range holdout {
		p, err := Probability(m, ex.Vector)
		if err != nil {
			t.log.Error("holdout scoring failed for %s: %v", ex.Vector.PersonID, err)
		}
		probs[i] = p
		yTrue[i] = ex.Label
		positives += ex.Label
	}

	bestF2, bestThreshold := 0.0, 0.5
	for _, threshold := range thresholdCandidates {
		yPred := make([]int, len(probs))
		for i, p := range probs {
			if p >= threshold {
				yPred[i] = 1
			}
		}
		if f2 := FBeta(yTrue, yPred, 2); f2 >= bestF2 {
			bestF2, bestThreshold = f2, threshold
		}
	}

	return bestThreshold, risk.EvalMetrics{
		F2:          bestF2,
		PRAUC:       PRAUC(yTrue, probs),
		ROCAUC:      ROCAUC(yTrue, probs),
		HoldoutSize: len(holdout),
		Positives:   positives,
	}
}
