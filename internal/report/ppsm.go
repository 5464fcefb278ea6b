package report

import (
	"strings"
	"unicode/utf8"

	"junos-ppsm/internal/engine"
	"junos-ppsm/internal/model"
)

const (
	colRecordName = "Application/Software Record Name"
	colProtocol   = "Protocol"
	colPort       = "Port"
	colBoundary   = "Boundary"
	colSourceName = "Source Device or Server Name"
	colSourceIP   = "Source IP Address"
	colDestName   = "Destination Device or Server Name"
	colDestIP     = "Destination IP Address"
	colPurpose    = "Purpose"
)

var PPSMHeaders = []string{
	"#", "Type", colRecordName, colProtocol, "Data Service",
	colPort, colBoundary, colSourceName, "Source Physical Location or Cloud Service Provider",
	colSourceIP, "Source FQDN", "Connection Logical Tunnel Type", colDestName,
	"Destination Physical Location or Cloud Service Provider", colDestIP, "Destination FQDN",
	"Connection Logical Tunnel Type", "VPN / Encrypted Tunnel Traffic", "VPN Tunnel Type", colPurpose,
}

// DefaultCharLimits caps the length of selected PPSM columns.
var DefaultCharLimits = map[string]int{
	colRecordName: 40,
	colSourceName: 200,
	colDestName:   200,
	"Source FQDN": 1000,
	colSourceIP:   1000,
	colDestIP:     1000,
	colPurpose:    750,
}

// policy table column -> PPSM column
var ppsmMapping = []struct {
	from string
	to   string
}{
	{"policy-name", colPurpose},
	{model.FieldSourceAddress, colSourceName},
	{model.FieldDestinationAddress, colDestName},
	{model.FieldApplication, colRecordName},
	{"source-ip", colSourceIP},
	{"destination-ip", colDestIP},
}

// ApplicationLookup is the read-only view of the application book the PPSM
// mapping needs.
type ApplicationLookup interface {
	Ports(app string) []string
	Protocols(app string) []string
	IsApplicationSet(name string) bool
	SetMembers(name string) []string
	SetPorts(name string) []string
}

var _ ApplicationLookup = (*engine.Expander)(nil)

type PPSMOptions struct {
	// Pointer replaces any value longer than its column limit.
	Pointer string
	Limits  map[string]int
	// OnLimit is called for every replaced value.
	OnLimit func(row int, column string, length, limit int)
}

type PPSMTables struct {
	Limited [][]string
	Full    [][]string
}

// BuildPPSM maps expanded policy records to the character-limited PPSM table
// and to the full table. In the full table an application-set lists its
// member applications and the union of their ports.
func BuildPPSM(records []map[string]string, apps ApplicationLookup, opts PPSMOptions) PPSMTables {
	limits := opts.Limits
	if limits == nil {
		limits = DefaultCharLimits
	}

	var tables PPSMTables
	for i, rec := range records {
		rowNum := i + 1
		app := rec[model.FieldApplication]

		limited := baseRow(rec)
		if app != "" {
			limited[colPort] = strings.Join(apps.Ports(app), ", ")
			limited[colProtocol] = strings.Join(apps.Protocols(app), ", ")
		}
		for _, m := range ppsmMapping {
			value := rec[m.from]
			if limit, ok := limits[m.to]; ok && limit > 0 {
				if n := utf8.RuneCountInString(value); n > limit {
					if opts.OnLimit != nil {
						opts.OnLimit(rowNum, m.to, n, limit)
					}
					value = opts.Pointer
				}
			}
			limited[m.to] = value
		}
		tables.Limited = append(tables.Limited, render(limited))

		full := baseRow(rec)
		for _, m := range ppsmMapping {
			full[m.to] = rec[m.from]
		}
		if app != "" {
			if apps.IsApplicationSet(app) {
				full[colRecordName] = strings.Join(apps.SetMembers(app), ", ")
				full[colPort] = strings.Join(apps.SetPorts(app), ", ")
			} else {
				full[colPort] = strings.Join(apps.Ports(app), ", ")
			}
			full[colProtocol] = strings.Join(apps.Protocols(app), ", ")
		}
		tables.Full = append(tables.Full, render(full))
	}
	return tables
}

func baseRow(rec map[string]string) map[string]string {
	return map[string]string{colBoundary: boundary(rec)}
}

// boundary joins the zone pair, falling back to the global zone criteria for
// global-to-global policies.
func boundary(rec map[string]string) string {
	from, to := rec["from-zone"], rec["to-zone"]
	if from == "" && to == "" {
		from = strings.Join(engine.ParseListCell(rec["global-from-zone"]), ", ")
		to = strings.Join(engine.ParseListCell(rec["global-to-zone"]), ", ")
	}
	return from + " : " + to
}

func render(values map[string]string) []string {
	out := make([]string, len(PPSMHeaders))
	for i, h := range PPSMHeaders {
		out[i] = values[h]
	}
	return out
}
