package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/calder-labs/motorcore/internal/metrics"
)

func sampleTrace() []metrics.Sample {
	return []metrics.Sample{
		{T: 0, TargetRPM: 300, RPM: 0, CommandMv: 6090, CurrentMa: 20, TemperatureC: 25},
		{T: 0.01, TargetRPM: 300, RPM: 120, CommandMv: 6050, CurrentMa: 18, TemperatureC: 25.1},
		{T: 0.02, TargetRPM: 300, RPM: 250, CommandMv: 6010, CurrentMa: 15, TemperatureC: 25.2},
	}
}

func sampleMeta() RunMetadata {
	return RunMetadata{
		Profile:    "bench",
		Gearset:    "blue",
		TargetRPM:  300,
		Dt:         0.01,
		Duration:   2,
		Integrator: "rk4",
		Metrics:    map[string]float64{"settling_time": 0.4},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := s.Save(sampleMeta(), sampleTrace())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(runID, "bench_") {
		t.Errorf("run ID should carry the profile name, got %s", runID)
	}

	meta, err := s.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ID != runID || meta.Gearset != "blue" || meta.Metrics["settling_time"] != 0.4 {
		t.Errorf("metadata did not round-trip: %+v", meta)
	}

	trace, err := s.LoadTrace(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(trace))
	}
	if math.Abs(trace[1].RPM-120) > 1e-6 || math.Abs(trace[2].T-0.02) > 1e-6 {
		t.Errorf("trace did not round-trip: %+v", trace)
	}
}

func TestListRuns(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("fresh store should list nothing, got %d", len(runs))
	}

	if _, err := s.Save(sampleMeta(), sampleTrace()); err != nil {
		t.Fatal(err)
	}
	runs, err = s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Profile != "bench" {
		t.Errorf("expected the saved run, got %+v", runs)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	s := New(t.TempDir() + "/never-created")
	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Error("missing base dir should list nothing")
	}
}

func TestLoadUnknownRun(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Load("nope"); err == nil {
		t.Error("expected error for unknown run")
	}
	if _, err := s.LoadTrace("nope"); err == nil {
		t.Error("expected error for unknown trace")
	}
}

func TestExportJSON(t *testing.T) {
	s := New(t.TempDir())
	runID, err := s.Save(sampleMeta(), sampleTrace())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.ExportJSON(runID, &buf); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Meta  RunMetadata      `json:"meta"`
		Steps int              `json:"steps"`
		Trace []metrics.Sample `json:"trace"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Steps != 3 || doc.Meta.ID != runID {
		t.Errorf("export mismatch: steps=%d id=%s", doc.Steps, doc.Meta.ID)
	}
	if doc.Trace[2].RPM != 250 {
		t.Errorf("trace mismatch: %+v", doc.Trace[2])
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	runID, err := s.Save(sampleMeta(), sampleTrace())
	if err != nil {
		t.Fatal(err)
	}

	out := dir + "/out.csv"
	if err := s.ExportCSV(runID, out); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "time,target_rpm,rpm") {
		t.Errorf("unexpected header: %s", strings.SplitN(string(data), "\n", 2)[0])
	}
	if len(strings.Split(strings.TrimSpace(string(data)), "\n")) != 4 {
		t.Error("expected header plus 3 rows")
	}
}
