package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/domain/cohort"
	"driftwatch/domain/risk"
	"driftwatch/internal/config"
	"driftwatch/internal/errors"
	"driftwatch/internal/testkit"
)

func testConfig() *config.Config {
	return &config.Config{
		Baseline: config.BaselineConfig{Waves: 0},
		Signals:  config.SignalConfig{TrailingWindow: 3, SlopeThreshold: 0.05},
		Target:   config.TargetConfig{Feature: "health_rating", Threshold: 2.5},
		Model: config.ModelConfig{
			Seed:              42,
			HoldoutFraction:   0.2,
			ImbalanceStrategy: "class_weight",
			Iterations:        500,
			LearningRate:      0.1,
			Cutoffs:           risk.BandCutoffs{Low: 30, Moderate: 60},
		},
		Category: config.CategoryConfig{
			Aggregate: "abs_z",
			TieBreak: []risk.Category{
				risk.CategoryCardiovascular,
				risk.CategoryMetabolic,
				risk.CategoryPsychoEmotional,
			},
		},
		Explain: config.ExplainConfig{TopK: 5},
	}
}

func newTestService(t *testing.T, cfg *config.Config) *PipelineService {
	t.Helper()
	service, err := NewPipelineService(cfg, cohort.DefaultPolarityTable())
	require.NoError(t, err)
	return service
}

func TestRun_EndToEnd(t *testing.T) {
	service := newTestService(t, testConfig())
	persons := testkit.GenerateCohort(testkit.DefaultOptions())

	result, err := service.Run(context.Background(), persons)
	require.NoError(t, err)

	require.NotNil(t, result.Model)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Assessments, len(persons))
	assert.NotEmpty(t, result.Predictions)

	labels := map[int]bool{}
	for _, p := range result.Predictions {
		labels[p.Label] = true
	}
	assert.True(t, labels[0] && labels[1], "the synthetic cohort carries both outcome classes")

	for _, a := range result.Assessments {
		if a.Status != cohort.StatusOK {
			continue
		}
		assert.GreaterOrEqual(t, a.Score, 0.0)
		assert.LessOrEqual(t, a.Score, 100.0)
		assert.Equal(t, result.Model.Cutoffs.BandFor(a.Score), a.Band)
		assert.NotEmpty(t, a.Category)
		assert.NotEmpty(t, a.FollowUpQuestion)
		assert.NotEmpty(t, a.TopFeatures)
	}
}

func TestRun_Deterministic(t *testing.T) {
	persons := testkit.GenerateCohort(testkit.DefaultOptions())

	first, err := newTestService(t, testConfig()).Run(context.Background(), persons)
	require.NoError(t, err)
	second, err := newTestService(t, testConfig()).Run(context.Background(), persons)
	require.NoError(t, err)

	// Run ids and timestamps differ; everything derived from the data must not
	assert.Equal(t, first.Assessments, second.Assessments)
	assert.Equal(t, first.Predictions, second.Predictions)
	assert.Equal(t, first.Model.Weights, second.Model.Weights)
	assert.Equal(t, first.Model.Threshold, second.Model.Threshold)
}

func TestRun_SkippedPersonsStayVisible(t *testing.T) {
	service := newTestService(t, testConfig())
	persons := testkit.GenerateCohort(testkit.DefaultOptions())

	nullWaves := make([]cohort.WaveRecord, 4)
	for i := range nullWaves {
		nullWaves[i] = cohort.WaveRecord{
			WaveIndex: i,
			Features: map[string]cohort.Value{
				"health_rating": cohort.Null(),
				"sleep_hours":   cohort.Null(),
			},
		}
	}
	persons = append(persons,
		cohort.Person{ID: "all-null", Waves: nullWaves},
		cohort.Person{ID: "no-waves"})

	result, err := service.Run(context.Background(), persons)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Skipped, 2)
	seen := map[cohort.PersonID]bool{}
	for _, a := range result.Assessments {
		if a.PersonID != "all-null" && a.PersonID != "no-waves" {
			continue
		}
		seen[a.PersonID] = true
		assert.Equal(t, cohort.StatusInsufficientData, a.Status)
		assert.Zero(t, a.Score)
		assert.Empty(t, a.FollowUpQuestion)
	}
	assert.True(t, seen["all-null"], "skipped persons must appear in the batch output")
	assert.True(t, seen["no-waves"], "an empty history is skipped, never fatal")
}

func TestRun_AbortsOnExcludedProxyInVectors(t *testing.T) {
	cfg := testConfig()
	cfg.Target.ExcludedFeatures = []string{"sleep_hours"}
	service := newTestService(t, cfg)
	persons := testkit.GenerateCohort(testkit.DefaultOptions())

	_, err := service.Run(context.Background(), persons)
	require.Error(t, err)
	assert.Equal(t, errors.CodeLeakageViolation, errors.GetCode(err))
}

func TestRun_CancelledContext(t *testing.T) {
	service := newTestService(t, testConfig())
	persons := testkit.GenerateCohort(testkit.DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := service.Run(ctx, persons)
	assert.Error(t, err)
}

func TestNewPipelineService_RejectsUnknownTarget(t *testing.T) {
	cfg := testConfig()
	cfg.Target.Feature = "shoe_size"
	_, err := NewPipelineService(cfg, cohort.DefaultPolarityTable())
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestCurrentModel_FollowsRuns(t *testing.T) {
	service := newTestService(t, testConfig())

	_, err := service.CurrentModel()
	require.Error(t, err)
	assert.Equal(t, errors.CodeModelNotTrained, errors.GetCode(err))

	result, err := service.Run(context.Background(), testkit.GenerateCohort(testkit.DefaultOptions()))
	require.NoError(t, err)

	m, err := service.CurrentModel()
	require.NoError(t, err)
	assert.Equal(t, result.Model.Version, m.Version)
}

func TestPreparePerson_KeepsCallerHistoryOrder(t *testing.T) {
	service := newTestService(t, testConfig())

	waves := make([]cohort.WaveRecord, 0, 4)
	for _, idx := range []int{3, 1, 0, 2} {
		waves = append(waves, cohort.WaveRecord{
			WaveIndex: idx,
			Features:  map[string]cohort.Value{"health_rating": cohort.Val(4)},
		})
	}
	person := cohort.Person{ID: "out-of-order", Waves: waves}

	prep := service.preparePerson(person)

	assert.Equal(t, []int{3, 1, 0, 2}, waveIndexes(waves), "ingested histories are read-only")
	assert.Equal(t, []int{0, 1, 2, 3}, waveIndexes(prep.person.Waves))
}

func waveIndexes(waves []cohort.WaveRecord) []int {
	out := make([]int, len(waves))
	for i, w := range waves {
		out[i] = w.WaveIndex
	}
	return out
}

func TestFairnessReport(t *testing.T) {
	service := newTestService(t, testConfig())
	persons := testkit.GenerateCohort(testkit.DefaultOptions())

	result, err := service.Run(context.Background(), persons)
	require.NoError(t, err)

	report := FairnessReport(result.Predictions, testkit.GenerateDemographics(persons))
	assert.Equal(t, len(result.Predictions), report.Overall.N)
	assert.NotEmpty(t, report.ByGroup)
	for name, m := range report.ByGroup {
		assert.GreaterOrEqual(t, m.N, 10, "group %s below reporting floor", name)
	}
}
