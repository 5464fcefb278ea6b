// Package report renders resolved policies and expanded rows into the
// delimited tables consumed downstream.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"junos-ppsm/internal/model"
)

var PolicyHeaders = []string{
	"VSYS", "from-zone", "to-zone", "policy-name",
	"source-address", "destination-address", "application",
	"source-identity", "global-from-zone", "global-to-zone",
	"action", "source-ip", "destination-ip", "ports",
}

// FormatList renders items as a bracketed list literal, e.g. ['a', 'b'].
func FormatList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		q := "'"
		if strings.Contains(item, "'") {
			q = `"`
		}
		quoted[i] = q + item + q
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func policyRecord(row model.PolicyRow) []string {
	return []string{
		row.Key.Scope,
		row.Key.FromZone,
		row.Key.ToZone,
		row.Key.Name,
		FormatList(row.SourceAddress),
		FormatList(row.DestinationAddress),
		row.Application,
		FormatList(row.SourceIdentity),
		FormatList(row.GlobalFromZone),
		FormatList(row.GlobalToZone),
		FormatList(row.Action),
		FormatList(row.SourceIP),
		FormatList(row.DestinationIP),
		strings.Join(row.Ports, ", "),
	}
}

// WritePolicies writes a header line followed by one line per row.
func WritePolicies(w io.Writer, rows []model.PolicyRow, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter
	if err := writer.Write(PolicyHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(policyRecord(row)); err != nil {
			return fmt.Errorf("failed to write policy %s: %w", row.Key.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTable writes headers and rows with the given delimiter.
func WriteTable(w io.Writer, headers []string, rows [][]string, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
