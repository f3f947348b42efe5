// Package app wires the pipeline stages into the three-phase batch run:
// per-person extraction in parallel, one serial fit barrier, then
// per-person inference in parallel.
package app

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"driftwatch/domain/cohort"
	"driftwatch/domain/risk"
	"driftwatch/domain/signal"
	"driftwatch/internal"
	"driftwatch/internal/baseline"
	"driftwatch/internal/config"
	"driftwatch/internal/explain"
	"driftwatch/internal/fairness"
	"driftwatch/internal/followup"
	"driftwatch/internal/model"
	"driftwatch/internal/scoring"
	"driftwatch/internal/signals"
	"driftwatch/internal/target"
)

// PipelineService owns one configured pipeline: shared immutable config
// and polarity tables, plus the model store that phase 3 reads from
type PipelineService struct {
	cfg         *config.Config
	table       cohort.PolarityTable
	builder     *baseline.Builder
	extractor   *signals.Extractor
	targets     *target.Constructor
	trainer     *model.Trainer
	store       *scoring.ModelStore
	categorizer *scoring.Categorizer
	explainer   *explain.Engine
	followups   *followup.Generator
	log         *internal.Logger
}

// NewPipelineService validates the shared tables and builds the stage
// components once; everything here is read-only after construction
func NewPipelineService(cfg *config.Config, table cohort.PolarityTable) (*PipelineService, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	targets, err := target.NewConstructor(cfg.Target, table)
	if err != nil {
		return nil, err
	}
	followups, err := followup.NewGenerator()
	if err != nil {
		return nil, err
	}
	features := table.FeatureNames()
	return &PipelineService{
		cfg:         cfg,
		table:       table,
		builder:     baseline.NewBuilder(cfg.Baseline.Waves, features),
		extractor:   signals.NewExtractor(table, cfg.Signals.TrailingWindow, cfg.Signals.SlopeThreshold),
		targets:     targets,
		trainer:     model.NewTrainer(cfg.Model),
		store:       scoring.NewModelStore(),
		categorizer: scoring.NewCategorizer(table, cfg.Category),
		explainer:   explain.NewEngine(cfg.Explain.TopK),
		followups:   followups,
		log:         internal.DefaultLogger.With("pipeline"),
	}, nil
}

// Prediction pairs one person's terminal-wave label with the model's
// output, for evaluation and fairness stratification
type Prediction struct {
	PersonID    cohort.PersonID `json:"person_id"`
	Label       int             `json:"label"`
	Probability float64         `json:"probability"`
	Predicted   int             `json:"predicted"`
}

// BatchResult is the output of one full training + inference run
type BatchResult struct {
	RunID       string             `json:"run_id"`
	Model       *risk.TrainedModel `json:"model"`
	Assessments []risk.Assessment  `json:"assessments"`
	Predictions []Prediction       `json:"predictions"`
	Skipped     int                `json:"skipped"`
}

// personPrep is one person's phase-1 output
type personPrep struct {
	person      cohort.Person
	status      cohort.Status
	fullRecords []signal.DeviationRecord
	example     *signal.TrainingExample
}

// Run executes the full batch: phase 1 per-person preparation, phase 2
// leakage audit + fit, phase 3 per-person inference. Per-person data
// problems surface as statuses; leakage or a failed fit abort the run.
func (s *PipelineService) Run(ctx context.Context, persons []cohort.Person) (*BatchResult, error) {
	preps, err := s.prepare(ctx, persons)
	if err != nil {
		return nil, err
	}

	examples := make([]signal.TrainingExample, 0, len(preps))
	for _, p := range preps {
		if p.example != nil {
			examples = append(examples, *p.example)
		}
	}

	// The leakage audit gates the fit: no model is trained, and no
	// output produced, when future information reached any vector
	if err := s.targets.Audit(examples); err != nil {
		return nil, err
	}

	trained, err := s.trainer.Train(examples)
	if err != nil {
		return nil, err
	}
	s.store.Replace(trained)

	// Phase 3 reads the model back through the store, the same path any
	// later reader takes after a retrain
	current, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return s.infer(ctx, preps, current)
}

// CurrentModel returns the most recently trained model, or ModelNotTrained
// before the first completed run. Long-lived callers read through here so
// a retrain swaps their model atomically.
func (s *PipelineService) CurrentModel() (*risk.TrainedModel, error) {
	return s.store.Current()
}

// prepare is phase 1: baselines, weak signals and training examples per
// person, fanned out with no shared mutable state
func (s *PipelineService) prepare(ctx context.Context, persons []cohort.Person) ([]personPrep, error) {
	preps := make([]personPrep, len(persons))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range persons {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			preps[i] = s.preparePerson(persons[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return preps, nil
}

func (s *PipelineService) preparePerson(person cohort.Person) personPrep {
	// Sort a copied history: the caller's slice is ingested data and must
	// keep its order
	person.Waves = append([]cohort.WaveRecord(nil), person.Waves...)
	person.SortWaves()
	prep := personPrep{person: person, status: cohort.StatusOK}

	base := s.builder.Build(person)
	if !base.HasAnyObservation() {
		prep.status = cohort.StatusInsufficientData
		return prep
	}

	prep.fullRecords = s.extractor.Extract(person, base)
	if len(prep.fullRecords) == 0 {
		// Baseline consumed the whole history; nothing left to score
		prep.status = cohort.StatusInsufficientData
		return prep
	}

	// Training view stops one wave short of the terminal wave; the label
	// alone may see it
	label, terminalWave, ok := s.targets.Label(person)
	if !ok {
		return prep
	}
	trainingView := cohort.Person{ID: person.ID, Waves: person.Waves[:len(person.Waves)-1]}
	trainingRecords := s.extractor.Extract(trainingView, base)
	if len(trainingRecords) == 0 {
		return prep
	}
	vector := signals.BuildVector(person.ID, trainingRecords, s.table.FeatureNames())
	prep.example = &signal.TrainingExample{
		Vector:       vector,
		Label:        label,
		TerminalWave: terminalWave,
	}
	return prep
}

// infer is phase 3: pure functions of (trained model, config, one
// person's data), safe to parallelize without locks
func (s *PipelineService) infer(ctx context.Context, preps []personPrep, trained *risk.TrainedModel) (*BatchResult, error) {
	result := &BatchResult{
		RunID:       uuid.NewString(),
		Model:       trained,
		Assessments: make([]risk.Assessment, len(preps)),
	}
	predictions := make([]*Prediction, len(preps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range preps {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			assessment, pred, err := s.assessOne(preps[i], trained)
			if err != nil {
				return err
			}
			result.Assessments[i] = assessment
			predictions[i] = pred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range result.Assessments {
		if result.Assessments[i].Status == cohort.StatusInsufficientData {
			result.Skipped++
		}
	}
	for _, p := range predictions {
		if p != nil {
			result.Predictions = append(result.Predictions, *p)
		}
	}
	s.log.Info("run %s: %d assessed, %d skipped", result.RunID, len(result.Assessments)-result.Skipped, result.Skipped)
	return result, nil
}

func (s *PipelineService) assessOne(prep personPrep, trained *risk.TrainedModel) (risk.Assessment, *Prediction, error) {
	if prep.status != cohort.StatusOK {
		// Skipped persons stay visible in the batch output
		return risk.Assessment{PersonID: prep.person.ID, Status: prep.status}, nil, nil
	}

	vector := signals.BuildVector(prep.person.ID, prep.fullRecords, s.table.FeatureNames())
	prob, err := model.Probability(trained, vector)
	if err != nil {
		return risk.Assessment{}, nil, err
	}
	score := scoring.ScoreFromProbability(prob)
	latest := signals.LatestWave(prep.fullRecords)
	category := s.categorizer.Categorize(latest)

	contribs, err := model.Contributions(trained, vector)
	if err != nil {
		return risk.Assessment{}, nil, err
	}
	inputs := make([]explain.Contribution, len(contribs))
	for i, c := range contribs {
		inputs[i] = explain.Contribution{Column: c.Column, Score: c.Score}
	}
	top := s.explainer.TopFeatures(inputs, latest)

	dominant := ""
	if len(top) > 0 {
		dominant = top[0].Name
	}

	assessment := risk.Assessment{
		PersonID:         prep.person.ID,
		Status:           cohort.StatusOK,
		Score:            score,
		Band:             trained.Cutoffs.BandFor(score),
		Category:         category,
		TopFeatures:      top,
		FollowUpQuestion: s.followups.Question(prep.person.ID, score, category, dominant),
		Explanation:      s.explainer.Narrate(top, latest),
	}

	var pred *Prediction
	if prep.example != nil {
		// Evaluation uses the training-view probability so the label's
		// terminal wave stays out of the inputs
		trainProb, err := model.Probability(trained, prep.example.Vector)
		if err != nil {
			return risk.Assessment{}, nil, err
		}
		predicted := 0
		if trainProb >= trained.Threshold {
			predicted = 1
		}
		pred = &Prediction{
			PersonID:    prep.person.ID,
			Label:       prep.example.Label,
			Probability: trainProb,
			Predicted:   predicted,
		}
	}
	return assessment, pred, nil
}

// FairnessReport stratifies the run's predictions by out-of-band
// demographic groups. Persons without a group label are excluded.
func FairnessReport(predictions []Prediction, groups map[cohort.PersonID]string) fairness.Report {
	yTrue := make([]int, len(predictions))
	yPred := make([]int, len(predictions))
	probs := make([]float64, len(predictions))
	labels := make([]string, len(predictions))
	for i, p := range predictions {
		yTrue[i] = p.Label
		yPred[i] = p.Predicted
		probs[i] = p.Probability
		labels[i] = groups[p.PersonID]
	}
	return fairness.Stratify(yTrue, yPred, probs, labels)
}
