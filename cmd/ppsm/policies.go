package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"junos-ppsm/internal/batch"
	"junos-ppsm/internal/engine"
	"junos-ppsm/internal/parser"
	"junos-ppsm/internal/report"
	"junos-ppsm/internal/store"
)

const workflowPolicies = "policies"

type policiesOptions struct {
	directory  string
	output     string
	provider   string
	dbDSN      string
	device     string
	predefined bool
}

func newPoliciesCmd(root *rootOptions) *cobra.Command {
	opts := &policiesOptions{}
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Extract resolved security policies from set-style exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := root.setup(cmd, workflowPolicies)
			if err != nil {
				return err
			}
			defer e.close()
			return runPolicies(cmd, e, opts)
		},
	}

	cmd.Flags().StringVar(&opts.directory, "directory", "", "Directory holding *-setconf*.txt exports (for 'file' provider)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Directory for the policy tables (required)")
	cmd.Flags().StringVar(&opts.provider, "provider", "file", "Config provider type: 'file' or 'mariadb'")
	cmd.Flags().StringVar(&opts.dbDSN, "db", "", "Database connection string (for 'mariadb' provider)")
	cmd.Flags().StringVar(&opts.device, "device", "", "Only load this device (for 'mariadb' provider)")
	cmd.Flags().BoolVar(&opts.predefined, "predefined-apps", false, "Fill ports of predefined junos-* applications")
	cmd.MarkFlagRequired("output")
	return cmd
}

func runPolicies(cmd *cobra.Command, e *env, opts *policiesOptions) error {
	if err := os.MkdirAll(opts.output, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var jobs []batch.Job
	switch opts.provider {
	case "file":
		if opts.directory == "" {
			return fmt.Errorf("directory must be provided for file provider")
		}
		d, err := batch.FindSetconfFiles(opts.directory)
		if d != nil {
			for _, s := range d.Skipped {
				e.logger.Warn("Skipping word-processor export", "file", s)
			}
		}
		if err != nil {
			return err
		}
		for _, path := range d.Files {
			out := filepath.Join(opts.output, filepath.Base(path)+".csv")
			jobs = append(jobs, batch.Job{Name: path, Run: func() (int, error) {
				f, err := os.Open(path)
				if err != nil {
					return 0, err
				}
				defer f.Close()
				return writePolicyTable(e, parser.NewJunosParser(f, e.logger), out, opts.predefined)
			}})
		}
	case "mariadb":
		dsn := opts.dbDSN
		if !cmd.Flags().Changed("db") {
			dsn = e.cfg.MariaDB.DSN
		}
		device := opts.device
		if !cmd.Flags().Changed("device") {
			device = e.cfg.MariaDB.Device
		}
		if dsn == "" {
			return fmt.Errorf("database connection string must be provided for mariadb provider")
		}
		src, err := store.NewMariaDBSource(dsn)
		if err != nil {
			return err
		}
		defer src.Close()

		devices := []string{device}
		if device == "" {
			if devices, err = src.Devices(); err != nil {
				return err
			}
		}
		if len(devices) == 0 {
			return fmt.Errorf("cfg_setconf: %w", batch.ErrNoInputs)
		}
		for _, name := range devices {
			out := filepath.Join(opts.output, name+"-setconf.txt.csv")
			jobs = append(jobs, batch.Job{Name: name, Run: func() (int, error) {
				lines, err := src.Lines(name)
				if err != nil {
					return 0, err
				}
				return writePolicyTable(e, parser.NewJunosParserFromLines(lines, e.logger), out, opts.predefined)
			}})
		}
	default:
		return fmt.Errorf("unknown config provider: %s", opts.provider)
	}

	return summaryError(e.runner(workflowPolicies).Run(jobs))
}

// writePolicyTable parses one configuration and writes its expanded policy
// rows to out. It returns the number of rows written.
func writePolicyTable(e *env, p *parser.JunosParser, out string, predefined bool) (int, error) {
	if err := p.Parse(); err != nil {
		return 0, err
	}
	e.metrics.PoliciesParsed(len(p.Policies))

	var opts []engine.Option
	if predefined {
		opts = append(opts, engine.WithPredefinedApplications())
	}
	rows := engine.NewExpander(p.Addresses, p.Applications, opts...).ExpandPolicies(p.Policies)

	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	if err := report.WritePolicies(f, rows, e.delimiter); err != nil {
		return 0, err
	}
	e.logger.Debug("Policy table written", slog.String("path", out), slog.Int("policies", len(p.Policies)), slog.Int("rows", len(rows)))
	return len(rows), f.Close()
}
