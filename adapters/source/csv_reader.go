package source

import (
	"context"
	"encoding/csv"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"driftwatch/domain/cohort"
	"driftwatch/internal/errors"
	"driftwatch/ports"
)

// CSVReader loads long-format wave histories: one row per (person, wave)
type CSVReader struct {
	filePath string
	schema   ColumnSchema
}

// NewCSVReader creates a reader for a long-format CSV file
func NewCSVReader(filePath string, schema ColumnSchema) ports.WaveSource {
	return &CSVReader{filePath: filePath, schema: schema}
}

// Load reads the whole file into per-person histories sorted by wave index
func (r *CSVReader) Load(ctx context.Context) ([]cohort.Person, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.DataSourceError("failed to open CSV file", err)
	}
	defer file.Close()

	readStart := time.Now()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.DataSourceError("failed to read CSV file", err)
	}
	log.Printf("[CSVReader] %s read in %.2fms (%d rows)",
		r.filePath, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.DataSourceError("CSV file needs a header row and at least one data row", nil)
	}
	return rowsToPersons(rows, r.schema)
}

// rowsToPersons converts header + data rows into sorted person histories.
// Shared by the CSV and Excel readers.
func rowsToPersons(rows [][]string, schema ColumnSchema) ([]cohort.Person, error) {
	positions, err := schema.Validate(rows[0])
	if err != nil {
		return nil, err
	}

	byID := make(map[cohort.PersonID]*cohort.Person)
	order := make([]cohort.PersonID, 0)

	for _, row := range rows[1:] {
		if len(row) <= positions[schema.WaveColumn] {
			continue
		}
		id := cohort.PersonID(row[positions[schema.IDColumn]])
		if id == "" {
			continue
		}
		waveIdx, err := strconv.Atoi(row[positions[schema.WaveColumn]])
		if err != nil {
			continue
		}

		features := make(map[string]cohort.Value, len(schema.FeatureColumns))
		for _, feat := range schema.FeatureColumns {
			pos := positions[feat]
			if pos < len(row) {
				features[feat] = schema.ParseValue(row[pos])
			} else {
				features[feat] = cohort.Null()
			}
		}

		record := cohort.WaveRecord{WaveIndex: waveIdx, Features: features}
		if schema.LifeEventColumn != "" {
			pos := positions[schema.LifeEventColumn]
			if pos < len(row) {
				if v := schema.ParseValue(row[pos]); v.Valid && v.V != 0 {
					record.LifeEvent = true
				}
			}
		}

		person, ok := byID[id]
		if !ok {
			person = &cohort.Person{ID: id}
			byID[id] = person
			order = append(order, id)
		}
		person.Waves = append(person.Waves, record)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	persons := make([]cohort.Person, 0, len(order))
	for _, id := range order {
		p := byID[id]
		p.SortWaves()
		persons = append(persons, *p)
	}
	return persons, nil
}
