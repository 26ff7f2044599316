package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV decodes a CSV document with a header row into a Frame. Empty
// cells become nil so they render as NULL literals downstream.
func ReadCSV(r io.Reader) (Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Frame{}, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return Frame{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) == 0 {
		return Frame{}, fmt.Errorf("csv header has no columns")
	}

	frame := Frame{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Frame{}, fmt.Errorf("read csv row %d: %w", len(frame.Rows)+2, err)
		}

		row := make([]any, len(header))
		for i := range header {
			if i >= len(record) || record[i] == "" {
				continue
			}
			row[i] = record[i]
		}
		frame.Rows = append(frame.Rows, row)
	}

	return frame, nil
}
