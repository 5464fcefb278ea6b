package wellknown

import (
	"bytes"
	"encoding/csv"
	"io"
	"log"
	"strings"

	_ "embed"
)

//go:embed junos_applications.csv
var junosApplicationsData string

// DNSAlias bundles the tcp and udp DNS applications under one name.
const DNSAlias = "junos-dns"

type Entry struct {
	Protocol string
	Port     string // single port or "low-high"; empty for port-less protocols
}

var applicationRegistry map[string][]Entry

func init() {
	applicationRegistry = make(map[string][]Entry)
	reader := csv.NewReader(bytes.NewBufferString(junosApplicationsData))
	reader.TrimLeadingSpace = true
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Fatalf("Failed to read header from embedded junos_applications.csv: %v", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to parse embedded junos_applications.csv: %v", err)
		}
		if len(record) < 3 {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(record[0]))
		if name == "" {
			continue
		}
		entry := Entry{
			Protocol: strings.TrimSpace(record[1]),
			Port:     strings.TrimSpace(record[2]),
		}
		applicationRegistry[name] = append(applicationRegistry[name], entry)
		if name == "junos-dns-udp" || name == "junos-dns-tcp" {
			applicationRegistry[DNSAlias] = append(applicationRegistry[DNSAlias], entry)
		}
	}
}

// GetApplication returns the protocol/port entries of a predefined Junos
// application. Lookup is case-insensitive.
func GetApplication(name string) ([]Entry, bool) {
	entry, ok := applicationRegistry[strings.ToLower(name)]
	return entry, ok
}
