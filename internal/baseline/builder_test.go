package baseline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/domain/cohort"
)

func wave(idx int, features map[string]cohort.Value) cohort.WaveRecord {
	return cohort.WaveRecord{WaveIndex: idx, Features: features}
}

func TestBuild_MeanAndStdOverValidValues(t *testing.T) {
	person := cohort.Person{
		ID: "p1",
		Waves: []cohort.WaveRecord{
			wave(0, map[string]cohort.Value{"health_rating": cohort.Val(80)}),
			wave(1, map[string]cohort.Value{"health_rating": cohort.Val(78)}),
			wave(2, map[string]cohort.Value{"health_rating": cohort.Val(82)}),
			wave(3, map[string]cohort.Value{"health_rating": cohort.Val(60)}),
		},
	}

	b := NewBuilder(3, []string{"health_rating"})
	base := b.Build(person)

	fb := base.Features["health_rating"]
	require.True(t, fb.Mean.Valid)
	require.True(t, fb.Std.Valid)
	assert.Equal(t, 3, fb.Count)
	assert.InDelta(t, 80.0, fb.Mean.V, 1e-9)
	assert.InDelta(t, 1.6330, fb.Std.V, 1e-3)
	assert.Equal(t, 3, base.WindowEnd)
}

func TestBuild_NullsExcludedFromWindowStats(t *testing.T) {
	person := cohort.Person{
		ID: "p2",
		Waves: []cohort.WaveRecord{
			wave(0, map[string]cohort.Value{"stress_level": cohort.Val(2)}),
			wave(1, map[string]cohort.Value{"stress_level": cohort.Null()}),
			wave(2, map[string]cohort.Value{"stress_level": cohort.Val(4)}),
			wave(3, map[string]cohort.Value{"stress_level": cohort.Val(5)}),
		},
	}

	b := NewBuilder(3, []string{"stress_level"})
	base := b.Build(person)

	fb := base.Features["stress_level"]
	assert.Equal(t, 2, fb.Count)
	assert.InDelta(t, 3.0, fb.Mean.V, 1e-9)
	require.True(t, fb.Std.Valid)
}

func TestBuild_InsufficientVarianceSentinel(t *testing.T) {
	tests := []struct {
		name  string
		waves []cohort.WaveRecord
	}{
		{
			name: "single valid observation",
			waves: []cohort.WaveRecord{
				wave(0, map[string]cohort.Value{"bmi": cohort.Val(24)}),
				wave(1, map[string]cohort.Value{"bmi": cohort.Null()}),
				wave(2, map[string]cohort.Value{"bmi": cohort.Null()}),
			},
		},
		{
			name: "zero variance across the window",
			waves: []cohort.WaveRecord{
				wave(0, map[string]cohort.Value{"bmi": cohort.Val(24)}),
				wave(1, map[string]cohort.Value{"bmi": cohort.Val(24)}),
				wave(2, map[string]cohort.Value{"bmi": cohort.Val(24)}),
			},
		},
	}

	b := NewBuilder(3, []string{"bmi"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := b.Build(cohort.Person{ID: "p3", Waves: tt.waves})
			fb := base.Features["bmi"]
			assert.False(t, fb.Std.Valid, "std must stay the undefined sentinel")
			assert.True(t, fb.Mean.Valid, "mean is still defined")
		})
	}
}

func TestBuild_AllNullWindowHasNoObservations(t *testing.T) {
	person := cohort.Person{
		ID: "p4",
		Waves: []cohort.WaveRecord{
			wave(0, map[string]cohort.Value{"health_rating": cohort.Null(), "bmi": cohort.Null()}),
			wave(1, map[string]cohort.Value{"health_rating": cohort.Null(), "bmi": cohort.Null()}),
			wave(2, map[string]cohort.Value{"health_rating": cohort.Val(4), "bmi": cohort.Val(22)}),
			wave(3, map[string]cohort.Value{"health_rating": cohort.Val(4), "bmi": cohort.Val(22)}),
		},
	}

	b := NewBuilder(2, []string{"health_rating", "bmi"})
	base := b.Build(person)
	assert.False(t, base.HasAnyObservation())
}

func TestWindowEnd_FirstHalfDefault(t *testing.T) {
	b := NewBuilder(0, nil)
	assert.Equal(t, 3, b.WindowEnd(6))
	assert.Equal(t, 2, b.WindowEnd(5))
	assert.Equal(t, 1, b.WindowEnd(2))
	assert.Equal(t, 1, b.WindowEnd(1))
	assert.Equal(t, 0, b.WindowEnd(0))
}

func TestBuild_EmptyHistory(t *testing.T) {
	b := NewBuilder(0, []string{"health_rating"})
	base := b.Build(cohort.Person{ID: "p-empty"})

	assert.Equal(t, 0, base.WindowEnd)
	assert.False(t, base.HasAnyObservation())
	assert.Equal(t, 0, base.Features["health_rating"].Count)
}

func TestWindowEnd_FixedWavesClampedToHistory(t *testing.T) {
	b := NewBuilder(4, nil)
	assert.Equal(t, 4, b.WindowEnd(10))
	assert.Equal(t, 3, b.WindowEnd(3))
}

func TestBuild_IsPureAndDeterministic(t *testing.T) {
	person := cohort.Person{
		ID: "p5",
		Waves: []cohort.WaveRecord{
			wave(0, map[string]cohort.Value{"sleep_hours": cohort.Val(7.5)}),
			wave(1, map[string]cohort.Value{"sleep_hours": cohort.Val(6.5)}),
			wave(2, map[string]cohort.Value{"sleep_hours": cohort.Val(8)}),
		},
	}
	b := NewBuilder(2, []string{"sleep_hours"})
	first := b.Build(person)
	second := b.Build(person)
	assert.Equal(t, first, second)
}
