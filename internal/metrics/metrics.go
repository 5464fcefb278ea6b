// Package metrics counts batch outcomes and writes them in the node
// exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK     = "ok"
	resultFailed = "failed"
)

// Recorder owns a private registry so repeated runs in one process, as in
// tests, never collide on the default registerer. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	filesTotal    *prometheus.CounterVec
	recordsTotal  *prometheus.CounterVec
	policiesTotal prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppsm_files_total",
			Help: "Units of work processed, by workflow and result.",
		}, []string{"workflow", "result"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppsm_records_total",
			Help: "Output records written, by workflow.",
		}, []string{"workflow"}),
		policiesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppsm_policies_parsed_total",
			Help: "Policies reconstructed from set-style configuration.",
		}),
	}
	r.registry.MustRegister(r.filesTotal, r.recordsTotal, r.policiesTotal)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// FileProcessed counts one unit of work as ok or failed depending on err.
func (r *Recorder) FileProcessed(workflow string, err error) {
	if r == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultFailed
	}
	r.filesTotal.WithLabelValues(workflow, result).Inc()
}

func (r *Recorder) RecordsWritten(workflow string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.recordsTotal.WithLabelValues(workflow).Add(float64(n))
}

func (r *Recorder) PoliciesParsed(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.policiesTotal.Add(float64(n))
}

// WriteTextfile atomically replaces path with the current counter values.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
