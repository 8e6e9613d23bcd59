package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/seenimoa/healthscatter/pkg/models"
)

// ParseCSV reads a header row followed by data rows. The header must name
// the state, abbr, poverty and healthcare columns; other columns are kept
// in Record.Fields. Rows may be ragged: a missing numeric field becomes NaN,
// a missing text field becomes "". Input with no header at all is an empty
// dataset.
func ParseCSV(r io.Reader) (models.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return models.Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, col := range models.RequiredColumns() {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	var ds models.Dataset
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(ds)+1, err)
		}
		ds = append(ds, toRecord(header, idx, row))
	}
	return ds, nil
}

func toRecord(header []string, idx map[string]int, row []string) models.Record {
	fields := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			fields[h] = row[i]
		}
	}

	text := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	number := func(col string) float64 {
		i := idx[col]
		if i >= len(row) {
			return math.NaN()
		}
		return models.Coerce(row[i])
	}

	return models.Record{
		State:      text(models.ColState),
		Abbr:       text(models.ColAbbr),
		Poverty:    number(models.ColPoverty),
		Healthcare: number(models.ColHealthcare),
		Fields:     fields,
	}
}
