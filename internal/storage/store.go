package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/relclock/internal/config"
	"github.com/san-kum/relclock/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
	configFile   = "config.yaml"
)

var ErrRunNotFound = errors.New("run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// ColumnMeta records a stored column's name and unit.
type ColumnMeta struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Experiment string             `json:"experiment"`
	Title      string             `json:"title"`
	Timestamp  time.Time          `json:"timestamp"`
	Elapsed    float64            `json:"elapsed_seconds"`
	Samples    int                `json:"samples"`
	Columns    []ColumnMeta       `json:"columns"`
	Summary    map[string]float64 `json:"summary"`
}

// Save writes a run directory holding metadata.json, series.csv and the
// configuration that produced it, and returns the run ID.
func (s *Store) Save(series *experiment.Series, cfg *config.Config, elapsed time.Duration) (string, error) {
	if err := series.Validate(); err != nil {
		return "", err
	}

	now := time.Now()
	runID := fmt.Sprintf("%s_%d", series.Experiment, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	cols := make([]ColumnMeta, 0, len(series.Y)+1)
	cols = append(cols, ColumnMeta{Name: series.X.Name, Unit: series.X.Unit})
	for _, c := range series.Y {
		cols = append(cols, ColumnMeta{Name: c.Name, Unit: c.Unit})
	}

	meta := RunMetadata{
		ID:         runID,
		Experiment: series.Experiment,
		Title:      series.Title,
		Timestamp:  now,
		Elapsed:    elapsed.Seconds(),
		Samples:    series.Len(),
		Columns:    cols,
		Summary:    series.Summary,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := ExportCSV(csvFile, series); err != nil {
		return "", err
	}

	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig reads the configuration a run was produced with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	path := filepath.Join(s.baseDir, runID, configFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s has no stored config", ErrRunNotFound, runID)
	}
	return config.Load(path)
}

// LoadSeries rebuilds the series of a stored run.
func (s *Store) LoadSeries(runID string) (*experiment.Series, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s series: %w", runID, err)
	}
	if len(records) == 0 || len(meta.Columns) == 0 {
		return nil, fmt.Errorf("run %s series: empty", runID)
	}
	if len(records[0]) != len(meta.Columns) {
		return nil, fmt.Errorf("run %s series: %d csv columns, metadata lists %d", runID, len(records[0]), len(meta.Columns))
	}

	cols := make([][]float64, len(meta.Columns))
	for i := range cols {
		cols[i] = make([]float64, 0, len(records)-1)
	}
	for line, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s series line %d: %w", runID, line+2, err)
			}
			cols[j] = append(cols[j], v)
		}
	}

	series := &experiment.Series{
		Experiment: meta.Experiment,
		Title:      meta.Title,
		X:          experiment.Column{Name: meta.Columns[0].Name, Unit: meta.Columns[0].Unit, Values: cols[0]},
		Summary:    meta.Summary,
	}
	for j, c := range meta.Columns[1:] {
		series.Y = append(series.Y, experiment.Column{Name: c.Name, Unit: c.Unit, Values: cols[j+1]})
	}
	return series, nil
}
