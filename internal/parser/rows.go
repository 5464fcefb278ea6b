package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"junos-ppsm/internal/model"
)

// Columns a policy row source must carry for address expansion.
var RequiredRowColumns = []string{
	model.FieldSourceAddress,
	model.FieldDestinationAddress,
	"source-ip",
	"destination-ip",
}

// MissingColumnsError reports a row source without the columns needed for
// expansion.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ReadPolicyRows reads a delimited policy table. An empty source yields an
// empty RowSet and no error.
func ReadPolicyRows(r io.Reader, delimiter rune) (*model.RowSet, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &model.RowSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	var missing []string
	for _, col := range RequiredRowColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	rows := &model.RowSet{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				rec[col] = record[i]
			} else {
				rec[col] = ""
			}
		}
		rows.Records = append(rows.Records, rec)
	}
	return rows, nil
}
