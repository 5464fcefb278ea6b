// Package batch finds configuration exports on disk and processes them one
// unit of work at a time, isolating per-file failures.
package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"junos-ppsm/internal/utils"
)

var (
	ErrNoInputs = errors.New("no set-style configuration files found")
	ErrNoPairs  = errors.New("no policy table and configuration pairs found")
)

const (
	setconfPattern      = "*-setconf*.txt"
	setconfDocxPattern  = "*-setconf*.docx"
	policyTablePattern  = "*-setconf*.txt.csv"
	blockConfigPattern  = "*-conf*.txt"
	blockConfigDocxGlob = "*-conf*.docx"

	ppsmSuffix = "_ppsm.csv"
)

// Pair joins a policy table produced from a set-style export with the
// block-style configuration of the same device. Output is the PPSM file name
// for the pair, unique within one discovery.
type Pair struct {
	Base   string
	Table  string
	Config string
	Output string
}

// Discovery lists what was found in the input directories. Skipped holds
// word-processor exports that are never parsed.
type Discovery struct {
	Files     []string
	Pairs     []Pair
	Unmatched []string
	Skipped   []string
}

// FindSetconfFiles returns every set-style export in dir, sorted by name.
func FindSetconfFiles(dir string) (*Discovery, error) {
	files, err := glob(dir, setconfPattern)
	if err != nil {
		return nil, err
	}
	skipped, err := glob(dir, setconfDocxPattern)
	if err != nil {
		return nil, err
	}
	d := &Discovery{Files: files, Skipped: skipped}
	if len(files) == 0 {
		return d, fmt.Errorf("%s: %w", dir, ErrNoInputs)
	}
	return d, nil
}

// FindFilePairs matches each policy table in tableDir with the block-style
// configuration in confDir that has the same base name. Several tables can
// share one configuration. Tables without a configuration are Unmatched.
func FindFilePairs(tableDir, confDir string) (*Discovery, error) {
	tables, err := glob(tableDir, policyTablePattern)
	if err != nil {
		return nil, err
	}
	configs, err := glob(confDir, blockConfigPattern)
	if err != nil {
		return nil, err
	}
	skipped, err := glob(confDir, blockConfigDocxGlob)
	if err != nil {
		return nil, err
	}

	byBase := make(map[string]string, len(configs))
	for _, c := range configs {
		base := utils.ExtractBaseName(c)
		if _, dup := byBase[base]; !dup {
			byBase[base] = c
		}
	}

	d := &Discovery{Skipped: skipped}
	outputs := make(map[string]bool)
	for _, table := range tables {
		base := utils.ExtractBaseName(table)
		conf, ok := byBase[base]
		if !ok {
			d.Unmatched = append(d.Unmatched, table)
			continue
		}
		output := base + ppsmSuffix
		if outputs[output] {
			output = strings.TrimSuffix(filepath.Base(table), ".txt.csv") + ppsmSuffix
		}
		outputs[output] = true
		d.Pairs = append(d.Pairs, Pair{Base: base, Table: table, Config: conf, Output: output})
	}
	if len(d.Pairs) == 0 {
		return d, fmt.Errorf("%s and %s: %w", tableDir, confDir, ErrNoPairs)
	}
	return d, nil
}

func glob(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
