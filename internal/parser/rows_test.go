package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestReadPolicyRowsParsesRecords(t *testing.T) {
	input := strings.Join([]string{
		"VSYS;from-zone;to-zone;policy-name;source-address;destination-address;application;source-ip;destination-ip",
		"GLOBAL;trust;untrust;P1;['web'];['any'];app1;['10.0.0.1/32'];['any']",
		"GLOBAL;trust;untrust;P2;['h1']",
	}, "\n")

	rows, err := ReadPolicyRows(strings.NewReader(input), ';')
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(rows.Header) != 9 {
		t.Fatalf("expected 9 header columns, got %d", len(rows.Header))
	}
	if len(rows.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rows.Records))
	}
	if rows.Records[0]["source-address"] != "['web']" || rows.Records[0]["application"] != "app1" {
		t.Errorf("unexpected first record %#v", rows.Records[0])
	}
	if rows.Records[1]["destination-ip"] != "" {
		t.Errorf("expected short row to be padded, got %#v", rows.Records[1])
	}
}

func TestReadPolicyRowsMissingColumns(t *testing.T) {
	input := "policy-name;source-address\nP1;x\n"
	_, err := ReadPolicyRows(strings.NewReader(input), ';')

	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if len(missing.Missing) != 3 {
		t.Fatalf("expected 3 missing columns, got %v", missing.Missing)
	}
}

func TestReadPolicyRowsEmptyInput(t *testing.T) {
	rows, err := ReadPolicyRows(strings.NewReader(""), ';')
	if err != nil {
		t.Fatalf("expected no error for empty input, got %v", err)
	}
	if len(rows.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(rows.Records))
	}
}

func TestReadPolicyRowsStripsBOM(t *testing.T) {
	input := "\ufeffsource-address,destination-address,source-ip,destination-ip\na,b,c,d\n"
	rows, err := ReadPolicyRows(strings.NewReader(input), ',')
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rows.Records[0]["source-address"] != "a" {
		t.Fatalf("expected BOM to be stripped from header, got %#v", rows.Header)
	}
}
