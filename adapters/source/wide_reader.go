package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"driftwatch/domain/cohort"
	"driftwatch/internal/errors"
	"driftwatch/ports"
)

// WideReader reshapes block-per-wave survey exports (one row per person,
// waves laid out as consecutive feature blocks) into long histories.
// Column zero is the person identifier; then Waves blocks of
// len(FeatureOrder) columns each.
type WideReader struct {
	filePath     string
	schema       ColumnSchema
	waves        int
	featureOrder []string
	maxRows      int
}

// NewWideReader creates a reader for a wide-format CSV export. maxRows
// bounds memory on very large files; 0 reads everything.
func NewWideReader(filePath string, schema ColumnSchema, waves int, featureOrder []string, maxRows int) ports.WaveSource {
	return &WideReader{
		filePath:     filePath,
		schema:       schema,
		waves:        waves,
		featureOrder: featureOrder,
		maxRows:      maxRows,
	}
}

// Load streams the file row by row, keeping only the columns the wave
// blocks need, and reshapes each row into one person's history
func (r *WideReader) Load(ctx context.Context) ([]cohort.Person, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.DataSourceError("failed to open wide CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // survey exports pad rows unevenly

	if _, err := reader.Read(); err != nil {
		return nil, errors.DataSourceError("failed to read wide CSV header", err)
	}

	needed := 1 + r.waves*len(r.featureOrder)
	persons := make([]cohort.Person, 0)
	rowNum := 0
	for {
		if r.maxRows > 0 && rowNum >= r.maxRows {
			break
		}
		row, err := reader.Read()
		if err != nil {
			break
		}
		rowNum++

		// Row position stands in for the survey's person code, which is
		// itself often a missing-code sentinel
		person := cohort.Person{ID: cohort.PersonID(fmt.Sprintf("row-%06d", rowNum))}
		for w := 0; w < r.waves; w++ {
			start := 1 + w*len(r.featureOrder)
			if start+len(r.featureOrder) > needed {
				break
			}
			features := make(map[string]cohort.Value, len(r.featureOrder))
			for j, feat := range r.featureOrder {
				pos := start + j
				if pos < len(row) {
					features[feat] = r.schema.ParseValue(row[pos])
				} else {
					features[feat] = cohort.Null()
				}
			}
			person.Waves = append(person.Waves, cohort.WaveRecord{
				WaveIndex: w,
				Features:  features,
			})
		}
		persons = append(persons, person)
	}

	log.Printf("[WideReader] %s reshaped %d persons x %d waves", r.filePath, len(persons), r.waves)
	return persons, nil
}
