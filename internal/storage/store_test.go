package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/relclock/internal/config"
	"github.com/san-kum/relclock/internal/experiment"
)

func testSeries() *experiment.Series {
	return &experiment.Series{
		Experiment: "offset",
		Title:      "Satellite clock offset",
		X:          experiment.Column{Name: "time", Unit: "h", Values: []float64{0, 12, 24}},
		Y: []experiment.Column{
			{Name: "offset", Unit: "µs", Values: []float64{0, 20.401234567891234, 40.8}},
		},
		Summary: map[string]float64{"offset_per_day_us": 40.8},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Orbit.E = 0.05
	runID, err := st.Save(testSeries(), cfg, 150*time.Millisecond)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "offset_") {
		t.Errorf("run id = %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Experiment != "offset" || meta.Samples != 3 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Summary["offset_per_day_us"] != 40.8 {
		t.Errorf("summary = %v", meta.Summary)
	}
	if len(meta.Columns) != 2 || meta.Columns[1].Unit != "µs" {
		t.Errorf("columns = %+v", meta.Columns)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	off, ok := series.Column("offset")
	if !ok {
		t.Fatal("offset column missing")
	}
	if off.Values[1] != 20.401234567891234 {
		t.Errorf("value lost precision: %v", off.Values[1])
	}
	if series.X.Unit != "h" || series.X.Values[2] != 24 {
		t.Errorf("x column = %+v", series.X)
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if loaded.Orbit.E != 0.05 {
		t.Errorf("stored eccentricity = %v", loaded.Orbit.E)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := New(filepath.Join(dir, "missing")).List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("missing dir: runs=%v err=%v", runs, err)
	}

	first, err := st.Save(testSeries(), nil, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	s := testSeries()
	s.Experiment = "broadcast"
	second, err := st.Save(s, nil, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadSeries("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSaveRejectsMalformedSeries(t *testing.T) {
	s := testSeries()
	s.Y[0].Values = s.Y[0].Values[:1]
	if _, err := New(t.TempDir()).Save(s, nil, 0); !errors.Is(err, experiment.ErrMalformedSeries) {
		t.Errorf("expected ErrMalformedSeries, got %v", err)
	}
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, testSeries()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || lines[0] != "time,offset" || lines[3] != "24,40.8" {
		t.Errorf("csv output:\n%s", buf.String())
	}

	buf.Reset()
	if err := ExportJSON(&buf, testSeries()); err != nil {
		t.Fatal(err)
	}
	var decoded experiment.Series
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Title != "Satellite clock offset" || decoded.Y[0].Unit != "µs" {
		t.Errorf("decoded = %+v", decoded)
	}
}
