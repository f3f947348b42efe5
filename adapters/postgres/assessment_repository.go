// Package postgres persists batch outputs for downstream reporting. The
// pipeline core never reads these tables back; they exist for export
// collaborators only.
package postgres

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"driftwatch/internal/errors"
	"driftwatch/ports"
)

// assessmentRepository implements ports.AssessmentStore on Postgres
type assessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates the repository and ensures its schema
func NewAssessmentRepository(ctx context.Context, db *sqlx.DB) (ports.AssessmentStore, error) {
	repo := &assessmentRepository{db: db}
	if err := repo.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *assessmentRepository) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS batch_runs (
		run_id        TEXT PRIMARY KEY,
		model_version TEXT NOT NULL,
		f2            DOUBLE PRECISION NOT NULL,
		pr_auc        DOUBLE PRECISION NOT NULL,
		roc_auc       DOUBLE PRECISION NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS assessments (
		run_id             TEXT NOT NULL REFERENCES batch_runs(run_id),
		person_id          TEXT NOT NULL,
		status             TEXT NOT NULL,
		score              DOUBLE PRECISION NOT NULL,
		band               TEXT NOT NULL,
		category           TEXT NOT NULL,
		top_features       JSONB,
		follow_up_question TEXT,
		PRIMARY KEY (run_id, person_id)
	);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to ensure assessment schema")
	}
	return nil
}

// SaveBatch writes one run and its assessments in a single transaction
func (r *assessmentRepository) SaveBatch(ctx context.Context, batch ports.BatchExport) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin export transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batch_runs (run_id, model_version, f2, pr_auc, roc_auc)
		 VALUES ($1, $2, $3, $4, $5)`,
		batch.RunID, batch.ModelVersion, batch.Metrics.F2, batch.Metrics.PRAUC, batch.Metrics.ROCAUC,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert batch run")
	}

	for _, a := range batch.Assessments {
		topJSON, err := json.Marshal(a.TopFeatures)
		if err != nil {
			return errors.Wrap(err, "failed to marshal top features")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO assessments (run_id, person_id, status, score, band, category, top_features, follow_up_question)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			batch.RunID, a.PersonID, a.Status, a.Score, a.Band, a.Category, topJSON, a.FollowUpQuestion,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to insert assessment for %s", a.PersonID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit export transaction")
	}
	return nil
}
