package source

import (
	"context"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"driftwatch/domain/cohort"
	"driftwatch/internal/errors"
	"driftwatch/ports"
)

// ExcelReader loads long-format wave histories from Sheet1 of an xlsx file
type ExcelReader struct {
	filePath string
	schema   ColumnSchema
}

// NewExcelReader creates a reader for a long-format Excel workbook
func NewExcelReader(filePath string, schema ColumnSchema) ports.WaveSource {
	return &ExcelReader{filePath: filePath, schema: schema}
}

// Load reads Sheet1 into per-person histories sorted by wave index
func (r *ExcelReader) Load(ctx context.Context) ([]cohort.Person, error) {
	openStart := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.DataSourceError("failed to open Excel file", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, errors.DataSourceError("failed to read Sheet1", err)
	}
	log.Printf("[ExcelReader] %s read in %.2fms (%d rows)",
		r.filePath, float64(time.Since(openStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.DataSourceError("Excel file needs a header row and at least one data row", nil)
	}
	return rowsToPersons(rows, r.schema)
}
