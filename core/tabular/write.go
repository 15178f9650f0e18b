package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mres-project/mres/core/rrl"
	"github.com/mres-project/mres/schema"
)

// WriteIndicators writes a header row and one row per record in canonical field order.
// Values are written with the shortest representation that parses back exactly.
func WriteIndicators(w io.Writer, h schema.Hazard, records []rrl.Record) error {
	fields, err := rrl.RequiredFields(h)
	if err != nil {
		return err
	}
	return writeTable(w, fields, func(cw *csv.Writer) error {
		for _, r := range records {
			if r.Hazard() != h {
				return fmt.Errorf("record %d is %s, table is %s", r.BuildingID(), r.Hazard(), h)
			}
			values := rrl.Values(r)
			row := make([]string, len(fields))
			row[0] = strconv.Itoa(r.BuildingID())
			for i, field := range fields[1:] {
				row[i+1] = strconv.FormatFloat(values[field], 'g', -1, 64)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTemplate writes a header row and one row per id with empty indicator cells.
func WriteTemplate(w io.Writer, h schema.Hazard, ids []string) error {
	fields, err := rrl.RequiredFields(h)
	if err != nil {
		return err
	}
	return writeTable(w, fields, func(cw *csv.Writer) error {
		for _, id := range ids {
			row := make([]string, len(fields))
			row[0] = id
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeTable(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writeRows(cw); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
