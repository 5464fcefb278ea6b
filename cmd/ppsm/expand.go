package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"junos-ppsm/internal/batch"
	"junos-ppsm/internal/engine"
	"junos-ppsm/internal/parser"
	"junos-ppsm/internal/report"
)

const workflowExpand = "expand"

type expandOptions struct {
	setconfDir string
	confDir    string
	outputDir  string
	predefined bool
}

func newExpandCmd(root *rootOptions) *cobra.Command {
	opts := &expandOptions{}
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Build PPSM tables from policy tables and block-style configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := root.setup(cmd, workflowExpand)
			if err != nil {
				return err
			}
			defer e.close()
			return runExpand(e, opts)
		},
	}

	cmd.Flags().StringVar(&opts.setconfDir, "setconf-dir", "", "Directory holding *-setconf*.txt.csv policy tables (required)")
	cmd.Flags().StringVar(&opts.confDir, "conf-dir", "", "Directory holding *-conf*.txt block-style configurations (required)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "Directory for the PPSM tables (required)")
	cmd.Flags().BoolVar(&opts.predefined, "predefined-apps", false, "Fill ports of predefined junos-* applications")
	cmd.MarkFlagRequired("setconf-dir")
	cmd.MarkFlagRequired("conf-dir")
	cmd.MarkFlagRequired("output-dir")
	return cmd
}

func runExpand(e *env, opts *expandOptions) error {
	d, err := batch.FindFilePairs(opts.setconfDir, opts.confDir)
	if d != nil {
		for _, s := range d.Skipped {
			e.logger.Warn("Skipping word-processor export", "file", s)
		}
		for _, u := range d.Unmatched {
			e.logger.Warn("No configuration found for policy table", "file", u)
		}
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	limits := charLimits(e.cfg.CharLimits)
	var jobs []batch.Job
	for _, pair := range d.Pairs {
		jobs = append(jobs, batch.Job{Name: pair.Table, Run: func() (int, error) {
			return expandPair(e, pair, filepath.Join(opts.outputDir, pair.Output), limits, opts.predefined)
		}})
	}
	return summaryError(e.runner(workflowExpand).Run(jobs))
}

// expandPair writes the limited and the full PPSM table for one pair and
// returns the number of rows in each.
func expandPair(e *env, pair batch.Pair, out string, limits map[string]int, predefined bool) (int, error) {
	tf, err := os.Open(pair.Table)
	if err != nil {
		return 0, err
	}
	defer tf.Close()
	rows, err := parser.ReadPolicyRows(tf, e.delimiter)
	if err != nil {
		return 0, err
	}

	cf, err := os.Open(pair.Config)
	if err != nil {
		return 0, err
	}
	defer cf.Close()
	p := parser.NewJunosParser(cf, e.logger)
	if err := p.Parse(); err != nil {
		return 0, err
	}

	var eopts []engine.Option
	if predefined {
		eopts = append(eopts, engine.WithPredefinedApplications())
	}
	expander := engine.NewExpander(p.Addresses, p.Applications, eopts...)

	records := make([]map[string]string, 0, len(rows.Records))
	for _, rec := range rows.Records {
		records = append(records, expander.ExpandRecord(rec))
	}

	tables := report.BuildPPSM(records, expander, report.PPSMOptions{
		Pointer: "See " + filepath.Base(pair.Table),
		Limits:  limits,
		OnLimit: func(row int, column string, length, limit int) {
			e.logger.Debug("Value exceeds column limit", "file", pair.Table, "row", row, "column", column, "length", length, "limit", limit)
		},
	})

	if err := writeTable(out, tables.Limited, e.delimiter); err != nil {
		return 0, err
	}
	full := strings.TrimSuffix(out, ".csv") + "_full.csv"
	if err := writeTable(full, tables.Full, e.delimiter); err != nil {
		return 0, err
	}
	return len(tables.Limited), nil
}

func writeTable(path string, rows [][]string, delimiter rune) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	if err := report.WriteTable(f, report.PPSMHeaders, rows, delimiter); err != nil {
		return err
	}
	return f.Close()
}

// charLimits layers configured limits over the defaults. A limit of 0
// disables the column's limit.
func charLimits(configured map[string]int) map[string]int {
	limits := make(map[string]int, len(report.DefaultCharLimits)+len(configured))
	for k, v := range report.DefaultCharLimits {
		limits[k] = v
	}
	for k, v := range configured {
		limits[k] = v
	}
	return limits
}
