// Package tabular reads and writes hazard indicator tables.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mres-project/mres/core/rrl"
	"github.com/mres-project/mres/schema"
)

const utf8BOM = "\ufeff"

// ReadIndicators reads a delimited indicator table and returns one record per data row
// in source order. Duplicate ids are kept as separate records. A row of blank cells
// fails on its id like any other unparsable row; empty lines are not rows.
func ReadIndicators(h schema.Hazard, r io.Reader) ([]rrl.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &rrl.SchemaError{Hazard: h, Reason: "no header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", h, err)
	}
	headers = normalizeHeaders(headers)

	if err := rrl.ValidateHeaders(h, headers); err != nil {
		return nil, err
	}
	fields, _ := rrl.IndicatorFields(h)

	columns := make(map[string]int, len(headers))
	for i, header := range headers {
		// first occurrence wins for repeated headers
		if _, seen := columns[header]; !seen {
			columns[header] = i
		}
	}

	var records []rrl.Record
	for row := 1; ; row++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s row %d: %w", h, row, err)
		}
		record, err := parseRow(h, row, fields, columns, cells)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadIndicatorsFile opens path and reads it with ReadIndicators.
func ReadIndicatorsFile(h schema.Hazard, path string) ([]rrl.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := ReadIndicators(h, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func parseRow(h schema.Hazard, row int, fields []string, columns map[string]int, cells []string) (rrl.Record, error) {
	cell := func(field string) string {
		i := columns[field]
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	rawID := cell(rrl.IDField)
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, &rrl.ParseError{Hazard: h, Row: row, Field: rrl.IDField, Value: rawID, Err: unwrapNum(err)}
	}

	values := make(map[string]float64, len(fields))
	for _, field := range fields {
		raw := cell(field)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &rrl.ParseError{Hazard: h, Row: row, Field: field, Value: raw, Err: unwrapNum(err)}
		}
		values[field] = v
	}

	record, err := rrl.NewRecord(h, id, values)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", row, err)
	}
	return record, nil
}

// unwrapNum drops the strconv prefix, which repeats the raw value.
func unwrapNum(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err
	}
	return err
}

func normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, utf8BOM)
		}
		out[i] = strings.TrimSpace(header)
	}
	return out
}
