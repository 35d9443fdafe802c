package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/cgsolve/internal/experiment"
)

// ErrNonFinite is returned by Save for runs whose norms are NaN or Inf,
// which JSON cannot represent.
var ErrNonFinite = errors.New("storage: non-finite report")

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Report    *experiment.Report `json:"report"`
}

// Save writes metadata.json and residuals.csv under a new run directory and
// returns the run ID.
func (s *Store) Save(report *experiment.Report) (string, error) {
	if !finite(report.ResidualNorm) || !finite(report.ErrorNorm) {
		return "", fmt.Errorf("%w: residual %g, error %g", ErrNonFinite, report.ResidualNorm, report.ErrorNorm)
	}
	ts := s.now()
	runID := fmt.Sprintf("cg_n%d_%s_%d", report.N, report.Backend, ts.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{ID: runID, Timestamp: ts, Report: report}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeResiduals(filepath.Join(runDir, "residuals.csv"), report.Residuals); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResiduals(path string, residuals []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"iteration", "residual"}); err != nil {
		return err
	}
	for k, r := range residuals {
		if err := w.Write([]string{strconv.Itoa(k), strconv.FormatFloat(r, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Latest returns the most recent run, or os.ErrNotExist when the store is
// empty.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs in %s: %w", s.baseDir, os.ErrNotExist)
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	if meta.Report == nil {
		return nil, fmt.Errorf("run %s: missing report", runID)
	}
	return &meta, nil
}

// LoadResiduals reads the residual history of a run, indexed by iteration.
func (s *Store) LoadResiduals(runID string) ([]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "residuals.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []float64{}, nil
	}

	residuals := make([]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 2 {
			return nil, fmt.Errorf("residuals.csv line %d: expected 2 fields, got %d", i+2, len(record))
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("residuals.csv line %d: %w", i+2, err)
		}
		residuals = append(residuals, v)
	}
	return residuals, nil
}
