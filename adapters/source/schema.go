// Package source reads per-person wave histories from survey exports.
// Column mapping is an explicit, validated schema checked once at
// ingestion; nothing downstream ever infers a feature from a column
// position.
package source

import (
	"fmt"
	"strconv"
	"strings"

	"driftwatch/domain/cohort"
	"driftwatch/internal/errors"
)

// ColumnSchema declares how file columns map onto the data model
type ColumnSchema struct {
	IDColumn        string
	WaveColumn      string
	FeatureColumns  []string
	LifeEventColumn string // optional
	// MissingCodes are sentinel values the survey uses for refusals and
	// skips; normalized to null at ingestion
	MissingCodes []float64
}

// DefaultSchema uses the standard column names and the usual
// longitudinal-survey missing codes (-5..-1)
func DefaultSchema(features []string) ColumnSchema {
	return ColumnSchema{
		IDColumn:       "person_id",
		WaveColumn:     "wave_index",
		FeatureColumns: features,
		MissingCodes:   []float64{-5, -4, -3, -2, -1},
	}
}

// Validate resolves every declared column against the header exactly
// once, failing loudly on anything missing
func (s ColumnSchema) Validate(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.TrimSpace(h)] = i
	}

	required := append([]string{s.IDColumn, s.WaveColumn}, s.FeatureColumns...)
	for _, col := range required {
		if _, ok := positions[col]; !ok {
			return nil, errors.DataSourceError(
				fmt.Sprintf("required column %q not found in header", col), nil)
		}
	}
	if s.LifeEventColumn != "" {
		if _, ok := positions[s.LifeEventColumn]; !ok {
			return nil, errors.DataSourceError(
				fmt.Sprintf("life-event column %q not found in header", s.LifeEventColumn), nil)
		}
	}
	return positions, nil
}

// ParseValue turns one raw cell into a nullable observation. Empty cells,
// unparseable cells and survey missing codes all normalize to null.
func (s ColumnSchema) ParseValue(raw string) cohort.Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return cohort.Null()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return cohort.Null()
	}
	for _, code := range s.MissingCodes {
		if v == code {
			return cohort.Null()
		}
	}
	return cohort.Val(v)
}
