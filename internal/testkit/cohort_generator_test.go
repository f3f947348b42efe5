package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCohort_ShapeAndDeterminism(t *testing.T) {
	opts := DefaultOptions()
	first := GenerateCohort(opts)
	second := GenerateCohort(opts)

	require.Len(t, first, opts.Persons)
	for _, p := range first {
		assert.Len(t, p.Waves, opts.Waves)
		assert.NotEmpty(t, p.ID)
	}
	assert.Equal(t, first, second, "same seed must reproduce the same cohort")
}

func TestGenerateCohort_DriftersDecline(t *testing.T) {
	opts := DefaultOptions()
	opts.MissingRate = 0
	persons := GenerateCohort(opts)

	// First persons are drifters: terminal health rating sits below the
	// first-wave rating
	declined := 0
	nDrifters := int(float64(opts.Persons) * opts.DrifterShare)
	for _, p := range persons[:nDrifters] {
		firstWave := p.Waves[0].Features["health_rating"]
		lastWave := p.Waves[len(p.Waves)-1].Features["health_rating"]
		if lastWave.V < firstWave.V {
			declined++
		}
	}
	assert.Greater(t, declined, nDrifters/2)
}

func TestGenerateDemographics_CoversEveryPerson(t *testing.T) {
	persons := GenerateCohort(DefaultOptions())
	groups := GenerateDemographics(persons)

	require.Len(t, groups, len(persons))
	seen := map[string]int{}
	for _, g := range groups {
		seen[g]++
	}
	assert.Len(t, seen, 2)
}
