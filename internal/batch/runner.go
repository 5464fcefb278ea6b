package batch

import (
	"fmt"
	"log/slog"

	"junos-ppsm/internal/metrics"
)

// FileError is the failure of a single unit of work.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Job is one unit of work. Run returns the number of records it wrote.
type Job struct {
	Name string
	Run  func() (int, error)
}

type Summary struct {
	Processed int
	Failed    int
	Records   int
	Failures  []*FileError
}

// Runner executes jobs strictly in order. A failing or panicking job is
// recorded and the next one still runs.
type Runner struct {
	Workflow  string
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
	OnFailure func(*FileError)
}

func (r *Runner) Run(jobs []Job) Summary {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var s Summary
	for _, job := range jobs {
		n, err := runJob(job)
		r.Metrics.FileProcessed(r.Workflow, err)
		if err != nil {
			fe := &FileError{Path: job.Name, Err: err}
			s.Failed++
			s.Failures = append(s.Failures, fe)
			logger.Error("Failed to process file", "file", job.Name, "error", err)
			if r.OnFailure != nil {
				r.OnFailure(fe)
			}
			continue
		}
		s.Processed++
		s.Records += n
		r.Metrics.RecordsWritten(r.Workflow, n)
		logger.Info("Processed file", "file", job.Name, "records", n)
	}
	logger.Info("Batch complete", "workflow", r.Workflow, "processed", s.Processed, "failed", s.Failed, "records", s.Records)
	return s
}

func runJob(job Job) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return job.Run()
}
