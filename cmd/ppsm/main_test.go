package main

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"junos-ppsm/internal/batch"
)

const setconfFixture = `set system host-name fw01
set security address-book global address web-1 10.0.0.1/32
set security address-book global address web-2 10.0.0.2/32
set security address-book global address-set web-servers address web-1
set security address-book global address-set web-servers address web-2
set applications application app-http protocol tcp
set applications application app-http destination-port 80
set security policies from-zone trust to-zone untrust policy P1 match source-address web-servers
set security policies from-zone trust to-zone untrust policy P1 match destination-address any
set security policies from-zone trust to-zone untrust policy P1 match application app-http
set security policies from-zone trust to-zone untrust policy P1 match application junos-https
set security policies from-zone trust to-zone untrust policy P1 then permit
`

const confFixture = `security {
    address-book {
        global {
            address web-1 10.0.0.1/32;
            address web-2 10.0.0.2/32;
            address-set web-servers {
                address web-1;
                address web-2;
            }
        }
    }
}
applications {
    application app-http {
        protocol tcp;
        destination-port 80;
    }
}
`

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	if cmd == nil {
		t.Fatal("newRootCmd returned nil")
	}
	if cmd.Use != "junos-ppsm" {
		t.Errorf("Expected use 'junos-ppsm', got '%s'", cmd.Use)
	}
	for _, name := range []string{"policies", "expand"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("Expected subcommand %s, got %v (%v)", name, sub, err)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	levels := []string{"DEBUG", "INFO", "WARN", "ERROR", "UNKNOWN"}
	for _, lvl := range levels {
		l := setupLogger(lvl, "")
		if l == nil {
			t.Errorf("setupLogger returned nil for level %s", lvl)
		}
	}

	tmpFile := filepath.Join(t.TempDir(), "test.log")
	l := setupLogger("INFO", tmpFile)
	l.Info("hello")
	if _, err := os.Stat(tmpFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestPoliciesCommand(t *testing.T) {
	root := t.TempDir()
	in, out := filepath.Join(root, "in"), filepath.Join(root, "out")
	writeFile(t, in, "fw01-setconf.txt", setconfFixture)
	writeFile(t, in, "fw01-setconf.docx", "")
	metricsFile := filepath.Join(root, "ppsm.prom")

	err := execute(t, root, "policies", "--directory", in, "--output", out, "--metrics-file", metricsFile)
	if err != nil {
		t.Fatalf("policies failed: %v", err)
	}

	rows := readTable(t, filepath.Join(out, "fw01-setconf.txt.csv"), ';')
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	rec := record(rows, 1)
	if rec["application"] != "app-http" || rec["ports"] != "80" {
		t.Errorf("unexpected first row %#v", rec)
	}
	if rec["source-address"] != "['web-1', 'web-2']" || rec["source-ip"] != "['10.0.0.1/32', '10.0.0.2/32']" {
		t.Errorf("expected expanded addresses, got %#v", rec)
	}
	if rec["action"] != "['permit']" || rec["from-zone"] != "trust" || rec["VSYS"] != "GLOBAL" {
		t.Errorf("unexpected policy key or action %#v", rec)
	}
	if got := record(rows, 2); got["application"] != "junos-https" || got["ports"] != "" {
		t.Errorf("expected predefined application to stay without ports, got %#v", got)
	}

	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), "ppsm_policies_parsed_total 1") {
		t.Errorf("unexpected metrics:\n%s", data)
	}
}

func TestPoliciesCommandPredefinedApps(t *testing.T) {
	root := t.TempDir()
	in, out := filepath.Join(root, "in"), filepath.Join(root, "out")
	writeFile(t, in, "fw01-setconf.txt", setconfFixture)

	if err := execute(t, root, "policies", "--directory", in, "--output", out, "--predefined-apps"); err != nil {
		t.Fatalf("policies failed: %v", err)
	}
	rows := readTable(t, filepath.Join(out, "fw01-setconf.txt.csv"), ';')
	if got := record(rows, 2); got["ports"] != "443" {
		t.Errorf("expected junos-https to resolve to 443, got %#v", got)
	}
}

func TestPoliciesCommandNoInputs(t *testing.T) {
	root := t.TempDir()
	err := execute(t, root, "policies", "--directory", root, "--output", filepath.Join(root, "out"))
	if !errors.Is(err, batch.ErrNoInputs) {
		t.Fatalf("expected ErrNoInputs, got %v", err)
	}
}

func TestPoliciesCommandUnknownProvider(t *testing.T) {
	root := t.TempDir()
	if err := execute(t, root, "policies", "--provider", "ftp", "--output", root); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}

func TestExpandCommand(t *testing.T) {
	root := t.TempDir()
	in, tables, confs, out := filepath.Join(root, "in"), filepath.Join(root, "tables"), filepath.Join(root, "confs"), filepath.Join(root, "out")
	writeFile(t, in, "fw01-setconf.txt", setconfFixture)
	writeFile(t, confs, "fw01-conf.txt", confFixture)

	if err := execute(t, root, "policies", "--directory", in, "--output", tables); err != nil {
		t.Fatalf("policies failed: %v", err)
	}
	if err := execute(t, root, "expand", "--setconf-dir", tables, "--conf-dir", confs, "--output-dir", out); err != nil {
		t.Fatalf("expand failed: %v", err)
	}

	limited := readTable(t, filepath.Join(out, "fw01_ppsm.csv"), ';')
	if len(limited) != 3 || len(limited[0]) != 20 {
		t.Fatalf("expected 20-column table with 2 rows, got %d rows", len(limited))
	}
	rec := record(limited, 1)
	if rec["Boundary"] != "trust : untrust" || rec["Port"] != "80" || rec["Protocol"] != "tcp" {
		t.Errorf("unexpected PPSM row %#v", rec)
	}
	if rec["Source Device or Server Name"] != "web-1, web-2" || rec["Source IP Address"] != "10.0.0.1/32, 10.0.0.2/32" {
		t.Errorf("unexpected source columns %#v", rec)
	}
	if rec["Purpose"] != "P1" || rec["Application/Software Record Name"] != "app-http" {
		t.Errorf("unexpected purpose or record name %#v", rec)
	}

	full := readTable(t, filepath.Join(out, "fw01_ppsm_full.csv"), ';')
	if len(full) != 3 {
		t.Fatalf("expected full table with 2 rows, got %d", len(full))
	}
}

func TestExpandCommandIsolatesFailures(t *testing.T) {
	root := t.TempDir()
	tables, confs, out := filepath.Join(root, "tables"), filepath.Join(root, "confs"), filepath.Join(root, "out")
	writeFile(t, tables, "fw01-setconf.txt.csv",
		"policy-name;source-address;destination-address;application;source-ip;destination-ip\nP1;['web-servers'];['any'];app-http;['web-servers'];['any']\n")
	writeFile(t, tables, "fw02-setconf.txt.csv", "policy-name;application\nP1;app-http\n")
	writeFile(t, confs, "fw01-conf.txt", confFixture)
	writeFile(t, confs, "fw02-conf.txt", confFixture)

	err := execute(t, root, "expand", "--setconf-dir", tables, "--conf-dir", confs, "--output-dir", out)
	if err == nil {
		t.Fatal("expected the run to report the failed pair")
	}

	rows := readTable(t, filepath.Join(out, "fw01_ppsm.csv"), ';')
	rec := record(rows, 1)
	if rec["Source Device or Server Name"] != "web-1, web-2" || rec["Source IP Address"] != "10.0.0.1/32, 10.0.0.2/32" {
		t.Errorf("expected address-set expansion in the good pair, got %#v", rec)
	}
	if _, err := os.Stat(filepath.Join(out, "fw02_ppsm.csv")); !os.IsNotExist(err) {
		t.Errorf("expected no output for the failed pair")
	}
}

func TestExpandCommandConfigFile(t *testing.T) {
	root := t.TempDir()
	tables, confs, out := filepath.Join(root, "tables"), filepath.Join(root, "confs"), filepath.Join(root, "out")
	long := strings.Repeat("p", 30)
	writeFile(t, tables, "fw01-setconf.txt.csv",
		"policy-name,source-address,destination-address,application,source-ip,destination-ip\n"+long+",h1,h2,app-http,1.1.1.1,2.2.2.2\n")
	writeFile(t, confs, "fw01-conf.txt", confFixture)
	writeFile(t, root, "ppsm.yaml", "delimiter: \",\"\nchar_limits:\n  Purpose: 10\n")

	err := execute(t, root, "--config", filepath.Join(root, "ppsm.yaml"),
		"expand", "--setconf-dir", tables, "--conf-dir", confs, "--output-dir", out)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}

	rec := record(readTable(t, filepath.Join(out, "fw01_ppsm.csv"), ','), 1)
	if rec["Purpose"] != "See fw01-setconf.txt.csv" {
		t.Errorf("expected configured limit to replace the purpose, got %q", rec["Purpose"])
	}
	full := record(readTable(t, filepath.Join(out, "fw01_ppsm_full.csv"), ','), 1)
	if full["Purpose"] != long {
		t.Errorf("expected full table to keep the purpose, got %q", full["Purpose"])
	}
}

func TestExpandCommandNoPairs(t *testing.T) {
	root := t.TempDir()
	err := execute(t, root, "expand", "--setconf-dir", root, "--conf-dir", root, "--output-dir", filepath.Join(root, "out"))
	if !errors.Is(err, batch.ErrNoPairs) {
		t.Fatalf("expected ErrNoPairs, got %v", err)
	}
}

func execute(t *testing.T, logDir string, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--log-file", filepath.Join(logDir, "run.log")))
	cmd.SilenceErrors = true
	return cmd.Execute()
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func readTable(t *testing.T, path string, delimiter rune) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return rows
}

// record maps row i onto the header; a repeated header keeps its first value.
func record(rows [][]string, i int) map[string]string {
	m := make(map[string]string)
	for j, h := range rows[0] {
		if _, ok := m[h]; !ok && j < len(rows[i]) {
			m[h] = rows[i][j]
		}
	}
	return m
}
