package ports

import (
	"context"

	"driftwatch/domain/cohort"
)

// WaveSource loads per-person wave histories from an ingestion
// collaborator. Implementations normalize missing-value sentinels to
// null and return histories sorted by wave index.
type WaveSource interface {
	Load(ctx context.Context) ([]cohort.Person, error)
}
