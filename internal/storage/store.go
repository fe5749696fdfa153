package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/model"
)

const (
	metadataFile   = "metadata.json"
	scenarioFile   = "scenario.yaml"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir is the root the store writes into.
func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	Integrator   string             `json:"integrator"`
	Time         float64            `json:"time"`
	Power        float64            `json:"power"`
	ChannelScale float64            `json:"channel_scale"`
	Samples      int                `json:"samples"`
	Steps        int                `json:"steps"`
	Rejected     int                `json:"rejected"`
	Evaluations  int                `json:"evaluations"`
	Initial      []float64          `json:"initial"`
	Final        []float64          `json:"final"`
	TotalLoss    float64            `json:"total_loss"`
	Metrics      map[string]float64 `json:"metrics"`
}

// NewMetadata fills the descriptive fields of a run from its scenario and
// trajectory. ID and Timestamp are assigned by Save.
func NewMetadata(cfg *config.Config, tr *model.Trajectory, totalLoss float64) RunMetadata {
	meta := RunMetadata{
		Name:         cfg.Name,
		Integrator:   cfg.Integrator,
		Time:         cfg.Time,
		Power:        cfg.Power,
		ChannelScale: cfg.ChannelScale,
		Samples:      len(tr.States),
		Steps:        tr.Stats.Steps,
		Rejected:     tr.Stats.Rejected,
		Evaluations:  tr.Stats.Evaluations,
		Initial:      append([]float64(nil), cfg.Initial...),
		TotalLoss:    totalLoss,
		Metrics:      tr.Metrics,
	}
	if final := tr.Final(); final != nil {
		meta.Final = append([]float64(nil), final...)
	}
	return meta
}

// Save writes metadata.json, scenario.yaml and trajectory.csv under a fresh
// run directory and returns the run id.
func (s *Store) Save(meta RunMetadata, cfg *config.Config, tr *model.Trajectory) (string, error) {
	meta.ID = uuid.New().String()
	meta.Timestamp = time.Now().UTC()
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), cfg); err != nil {
		return "", fmt.Errorf("write scenario: %w", err)
	}

	f, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, tr.Concentration, tr.Matrix()); err != nil {
		return "", fmt.Errorf("write trajectory: %w", err)
	}

	return meta.ID, nil
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

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadScenario reads back the scenario a run was produced from.
func (s *Store) LoadScenario(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

// LoadTrajectory returns the stored rows and their concentrations.
func (s *Store) LoadTrajectory(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	conc := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		c, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		conc = append(conc, c)

		state := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		states = append(states, state)
	}

	return states, conc, nil
}
