package parser

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"junos-ppsm/internal/model"
)

const maxLineSize = 4 * 1024 * 1024

// JunosParser reads a whole configuration and exposes the address book,
// application book and policies built from it. One JunosParser serves one
// file; nothing is shared between instances.
type JunosParser struct {
	scanner *bufio.Scanner
	logger  *slog.Logger

	Lines        []string
	Addresses    *model.AddressBook
	Applications *model.ApplicationBook
	Policies     []*model.Policy
}

func NewJunosParser(reader io.Reader, logger *slog.Logger) *JunosParser {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	if logger == nil {
		logger = slog.Default()
	}
	return &JunosParser{
		scanner: scanner,
		logger:  logger,
	}
}

// NewJunosParserFromLines builds a parser over lines that were already loaded,
// e.g. from the MariaDB provider.
func NewJunosParserFromLines(lines []string, logger *slog.Logger) *JunosParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &JunosParser{Lines: lines, logger: logger}
}

func (p *JunosParser) Parse() error {
	if p.scanner != nil {
		for p.scanner.Scan() {
			p.Lines = append(p.Lines, p.scanner.Text())
		}
		if err := p.scanner.Err(); err != nil {
			return fmt.Errorf("error reading config: %w", err)
		}
	}

	p.Addresses, p.Applications = BuildBooks(p.Lines)
	p.Policies = ParsePolicies(p.Lines, p.logger)

	p.logger.Debug("Configuration parsed",
		"lines", len(p.Lines),
		"address_objects", len(p.Addresses.Objects),
		"hostnames", len(p.Addresses.HostnameToIP),
		"address_sets", len(p.Addresses.Sets),
		"applications", len(p.Applications.Ports),
		"application_sets", len(p.Applications.Sets),
		"policies", len(p.Policies),
	)
	return nil
}
