package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/calder-labs/motorcore/internal/metrics"
)

// WriteTraceCSV streams a trace with a header row.
func WriteTraceCSV(w io.Writer, trace []metrics.Sample) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(traceHeader); err != nil {
		return err
	}
	for _, s := range trace {
		row := []string{
			strconv.FormatFloat(s.T, 'f', 6, 64),
			strconv.FormatFloat(s.TargetRPM, 'f', 6, 64),
			strconv.FormatFloat(s.RPM, 'f', 6, 64),
			strconv.FormatFloat(s.CommandMv, 'f', 6, 64),
			strconv.FormatFloat(s.CurrentMa, 'f', 6, 64),
			strconv.FormatFloat(s.TemperatureC, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type exportData struct {
	Meta  RunMetadata      `json:"meta"`
	Steps int              `json:"steps"`
	Trace []metrics.Sample `json:"trace"`
}

// ExportJSON writes one stored run as a single self-contained document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	trace, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData{Meta: *meta, Steps: len(trace), Trace: trace})
}

// ExportCSV copies one stored run's trace to a standalone file.
func (s *Store) ExportCSV(runID, path string) error {
	trace, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteTraceCSV(file, trace)
}
