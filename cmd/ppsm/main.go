package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"junos-ppsm/internal/batch"
	"junos-ppsm/internal/config"
	"junos-ppsm/internal/metrics"
)

const version = "1.0-go"

// sentryTransport replaces the HTTP transport when set.
var sentryTransport sentry.Transport

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile  string
	logLevel    string
	logFile     string
	metricsFile string
	sentryDSN   string
	delimiter   string
}

// env is the per-run state built from flags and the YAML config.
type env struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Recorder
	delimiter rune
	sentry    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "junos-ppsm",
		Short: "Junos security policy extractor and PPSM report builder",
		Long: `junos-ppsm reconstructs security policies from set-style Junos
configuration exports and maps them, together with the block-style
configuration of the same device, to PPSM compliance tables.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Log file path (default: stderr)")
	rootCmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "Write run counters to this node-exporter textfile")
	rootCmd.PersistentFlags().StringVar(&opts.sentryDSN, "sentry-dsn", "", "Report per-file failures to this Sentry DSN")
	rootCmd.PersistentFlags().StringVar(&opts.delimiter, "delimiter", ";", "Field delimiter of policy and PPSM tables")

	rootCmd.AddCommand(newPoliciesCmd(opts))
	rootCmd.AddCommand(newExpandCmd(opts))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup merges the YAML config under the flags. A flag wins only when it was
// set explicitly on the command line.
func (o *rootOptions) setup(cmd *cobra.Command, workflow string) (*env, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("log-level", &cfg.LogLevel, o.logLevel)
	override("log-file", &cfg.LogFile, o.logFile)
	override("metrics-file", &cfg.MetricsFile, o.metricsFile)
	override("sentry-dsn", &cfg.SentryDSN, o.sentryDSN)
	override("delimiter", &cfg.Delimiter, o.delimiter)

	delim, err := cfg.DelimiterRune()
	if err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFile).With("run_id", uuid.New().String())
	slog.SetDefault(logger)
	logger.Info("Starting junos-ppsm", "version", version, "workflow", workflow)

	e := &env{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics.NewRecorder(),
		delimiter: delim,
	}
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Transport: sentryTransport}); err != nil {
			return nil, fmt.Errorf("sentry.Init: %w", err)
		}
		e.sentry = true
	}
	return e, nil
}

// close writes the metrics textfile and flushes pending Sentry events.
func (e *env) close() {
	if err := e.metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
		e.logger.Error("Failed to write metrics", "path", e.cfg.MetricsFile, "error", err)
	}
	if e.sentry {
		sentry.Flush(2 * time.Second)
	}
}

func (e *env) runner(workflow string) *batch.Runner {
	r := &batch.Runner{
		Workflow: workflow,
		Logger:   e.logger,
		Metrics:  e.metrics,
	}
	if e.sentry {
		r.OnFailure = func(fe *batch.FileError) {
			sentry.CaptureException(fe)
		}
	}
	return r
}

// summaryError turns a batch summary into the command result.
func summaryError(s batch.Summary) error {
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", s.Failed, s.Failed+s.Processed)
	}
	return nil
}

func setupLogger(level, logFilePath string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logWriter = f
		}
		// The logger does not exist yet, so a bad path silently falls back
		// to stderr.
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}
