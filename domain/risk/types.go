package risk

import (
	"time"

	"driftwatch/domain/cohort"
)

// Band is the coarse risk bucket presented alongside the numeric score
type Band string

const (
	BandLow      Band = "Low"
	BandModerate Band = "Moderate"
	BandHigh     Band = "High"
)

// BandCutoffs are the inclusive upper bounds for Low and Moderate.
// Scores above Moderate are High. Configuration, not logic.
type BandCutoffs struct {
	Low      float64 `json:"low"`
	Moderate float64 `json:"moderate"`
}

// BandFor maps a 0-100 score onto its band
func (c BandCutoffs) BandFor(score float64) Band {
	switch {
	case score <= c.Low:
		return BandLow
	case score <= c.Moderate:
		return BandModerate
	default:
		return BandHigh
	}
}

// Category is the signal group with the largest aggregate abnormality
type Category string

const (
	CategoryCardiovascular  Category = Category(cohort.GroupCardiovascular)
	CategoryMetabolic       Category = Category(cohort.GroupMetabolic)
	CategoryPsychoEmotional Category = Category(cohort.GroupPsychoEmotional)
)

// EvalMetrics are the recall-weighted evaluation numbers from the held-out split
type EvalMetrics struct {
	F2          float64 `json:"f2"`
	PRAUC       float64 `json:"pr_auc"`
	ROCAUC      float64 `json:"roc_auc"`
	HoldoutSize int     `json:"holdout_size"`
	Positives   int     `json:"positives"`
}

// TrainedModel is the immutable fitted-classifier bundle. A retrain
// produces a new value with a new Version; existing models are never
// mutated, so inference-time readers can share one by reference.
type TrainedModel struct {
	Version      string      `json:"version"`
	FeatureNames []string    `json:"feature_names"`
	Weights      []float64   `json:"weights"`
	Intercept    float64     `json:"intercept"`
	FeatureMeans []float64   `json:"feature_means"`
	FeatureStds  []float64   `json:"feature_stds"`
	Threshold    float64     `json:"threshold"`
	Cutoffs      BandCutoffs `json:"cutoffs"`
	Metrics      EvalMetrics `json:"metrics"`
	TrainedAt    time.Time   `json:"trained_at"`
}

// TopFeature is one ranked explanation entry
type TopFeature struct {
	Name      string  `json:"name"`
	Direction string  `json:"direction"` // "up" | "down"
	Magnitude float64 `json:"magnitude"`
}

// Assessment is the per-person inference output. Created on demand and
// handed to export collaborators; the core keeps no copy.
type Assessment struct {
	PersonID         cohort.PersonID `json:"person_id"`
	Status           cohort.Status   `json:"status"`
	Score            float64         `json:"score"`
	Band             Band            `json:"band"`
	Category         Category        `json:"category"`
	TopFeatures      []TopFeature    `json:"top_features"`
	FollowUpQuestion string          `json:"follow_up_question"`
	Explanation      string          `json:"explanation,omitempty"`
}
