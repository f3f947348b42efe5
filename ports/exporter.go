package ports

import (
	"context"

	"driftwatch/domain/risk"
)

// BatchExport is one completed batch run handed to export collaborators
type BatchExport struct {
	RunID        string
	ModelVersion string
	Metrics      risk.EvalMetrics
	Assessments  []risk.Assessment
}

// AssessmentStore persists batch outputs for downstream reporting. The
// core itself keeps nothing; persistence is an external concern.
type AssessmentStore interface {
	SaveBatch(ctx context.Context, batch BatchExport) error
}
