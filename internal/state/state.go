// Package state keeps the plans produced by `lineloom balance` on disk so
// later commands can show the last balance and the run history.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joshharrison/lineloom/internal/planner"
)

// DefaultDir is the state directory used when none is configured.
const DefaultDir = ".lineloom"

const (
	historyFile = "history.json"
	plansDir    = "plans"
)

// ErrNoRuns is returned when the store holds no plan yet.
var ErrNoRuns = errors.New("no balance runs recorded")

// RunRecord is the history entry of one balance run.
type RunRecord struct {
	PlanID      string    `json:"plan_id"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source"` // task table the plan was built from
	Heuristic   string    `json:"heuristic"`
	Beat        int       `json:"beat"`
	Stations    int       `json:"stations"`
	BalanceRate float64   `json:"balance_rate"`
	Smoothing   float64   `json:"smoothing_index"`
	Moves       int       `json:"moves"`
	Converged   bool      `json:"converged"`
}

// Store is a directory of saved plans plus a history index. It is safe for
// concurrent use within one process.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(filepath.Join(dir, plansDir), 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes plan and appends it to the history.
func (s *Store) Save(plan *planner.BalancePlan, sourcePath string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	if err := os.WriteFile(s.planPath(plan.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("write plan: %w", err)
	}

	history, err := s.readHistory()
	if err != nil {
		return nil, err
	}
	rec := RunRecord{
		PlanID:      plan.ID,
		CreatedAt:   plan.CreatedAt,
		Source:      sourcePath,
		Heuristic:   plan.Heuristic,
		Beat:        plan.Config.Beat,
		Stations:    plan.StationCount(),
		BalanceRate: plan.Final.BalanceRate,
		Smoothing:   plan.Final.Smoothing,
		Moves:       len(plan.Moves),
		Converged:   plan.Converged,
	}
	history = append(history, rec)
	if err := s.writeHistory(history); err != nil {
		return nil, err
	}
	return &rec, nil
}

// History returns every recorded run, oldest first.
func (s *Store) History() ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readHistory()
}

// Load reads the saved plan with the given id.
func (s *Store) Load(planID string) (*planner.BalancePlan, error) {
	data, err := os.ReadFile(s.planPath(planID))
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var plan planner.BalancePlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &plan, nil
}

// Last returns the most recent run and its plan.
func (s *Store) Last() (*RunRecord, *planner.BalancePlan, error) {
	history, err := s.History()
	if err != nil {
		return nil, nil, err
	}
	if len(history) == 0 {
		return nil, nil, ErrNoRuns
	}
	rec := history[len(history)-1]
	plan, err := s.Load(rec.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return &rec, plan, nil
}

// Clean removes the state directory.
func (s *Store) Clean() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.RemoveAll(s.dir)
}

func (s *Store) planPath(planID string) string {
	return filepath.Join(s.dir, plansDir, planID+".json")
}

func (s *Store) readHistory() ([]RunRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, historyFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var history []RunRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return history, nil
}

func (s *Store) writeHistory(history []RunRecord) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, historyFile), data, 0644)
}
