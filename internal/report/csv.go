// Package report persists run results as a CSV report with a stable column
// contract consumed by downstream tooling.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"crudprobe/internal/exerciser"
	"crudprobe/internal/logging"

	"go.uber.org/zap"
)

// header is the column contract. Order and names are stable; do not reorder.
var header = []string{
	"type", "source_url", "target_url", "label",
	"status", "response_time", "error_message", "timestamp",
}

// Sink accumulates results and writes them out at the end of a run.
type Sink struct {
	results []exerciser.TestResult
	log     *zap.Logger
}

// NewSink returns an empty report sink.
func NewSink() *Sink {
	return &Sink{log: logging.Get(logging.CategoryReport)}
}

// Add records one result.
func (s *Sink) Add(result exerciser.TestResult) {
	s.results = append(s.results, result)
}

// AddAll records a batch of results.
func (s *Sink) AddAll(results []exerciser.TestResult) {
	s.results = append(s.results, results...)
}

// Len reports the number of accumulated results.
func (s *Sink) Len() int {
	return len(s.results)
}

// WriteCSV writes the report to path, creating parent directories as needed.
// An empty run still produces a header-only file so downstream consumers can
// tell "ran and found nothing" from "never ran".
func (s *Sink) WriteCSV(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, r := range s.results {
		row := []string{
			r.Type,
			r.SourceURL,
			r.TargetURL,
			r.Label,
			string(r.Status),
			formatResponseTime(r.ResponseTime),
			r.ErrorMessage,
			r.Timestamp.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	s.log.Info("report written", zap.String("path", path), zap.Int("rows", len(s.results)))
	return nil
}

// formatResponseTime renders a duration as fractional seconds, empty when the
// stage never measured one.
func formatResponseTime(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// Summary is the end-of-run rollup printed to the operator.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Errored int
	Unknown int
}

// Summarize tallies the accumulated results.
func (s *Sink) Summarize() Summary {
	var sum Summary
	for _, r := range s.results {
		sum.Total++
		switch r.Status {
		case exerciser.StatusPass:
			sum.Passed++
		case exerciser.StatusFail:
			sum.Failed++
		case exerciser.StatusError:
			sum.Errored++
		default:
			sum.Unknown++
		}
	}
	return sum
}
