package clientstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/smith3v/meowfacts/pkg/logger"
)

// CurrentVersion is the schema version written by Save.
const CurrentVersion = 1

const DateLayout = "2006-01-02"

type WeeklyBatch struct {
	StartDate string   `json:"startDate"`
	Facts     []string `json:"facts"`
}

// State is everything the client remembers between runs.
type State struct {
	Version       int            `json:"version"`
	Weekly        *WeeklyBatch   `json:"weekly,omitempty"`
	Encountered   map[int]string `json:"encountered"`
	NewIDs        []int          `json:"newIds"`
	LastShownDate string         `json:"lastShownDate,omitempty"`
}

func Empty() State {
	return State{Version: CurrentVersion, Encountered: map[int]string{}}
}

// AddEncountered remembers a fact and flags it as new when it was not known.
func (s *State) AddEncountered(id int, text string) {
	if s.Encountered == nil {
		s.Encountered = map[int]string{}
	}
	if _, known := s.Encountered[id]; known {
		return
	}
	s.Encountered[id] = text
	s.NewIDs = append(s.NewIDs, id)
	sort.Ints(s.NewIDs)
}

// Remember records a fact that was already seen elsewhere, such as on
// another device, without flagging it as new.
func (s *State) Remember(id int, text string) {
	if s.Encountered == nil {
		s.Encountered = map[int]string{}
	}
	if _, known := s.Encountered[id]; !known {
		s.Encountered[id] = text
	}
}

// Store keeps State in a single JSON file.
type Store struct {
	path string
}

func Open(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the saved state. A missing file gives an empty state, and so
// does a file that cannot be parsed; the latter is logged.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return Empty(), fmt.Errorf("read client state: %w", err)
	}

	state, err := decode(data)
	if err != nil {
		logger.Warn("discarding unreadable client state", "path", s.path, "error", err)
		return Empty(), nil
	}
	return state, nil
}

func (s *Store) Save(state State) error {
	state.Version = CurrentVersion
	if state.Encountered == nil {
		state.Encountered = map[int]string{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write client state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Update loads, applies fn and saves.
func (s *Store) Update(fn func(*State) error) (State, error) {
	state, err := s.Load()
	if err != nil {
		return state, err
	}
	if err := fn(&state); err != nil {
		return state, err
	}
	return state, s.Save(state)
}

func decode(data []byte) (State, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return State{}, err
	}

	switch probe.Version {
	case 0:
		return migrateV0(data)
	case CurrentVersion:
		var state State
		if err := json.Unmarshal(data, &state); err != nil {
			return State{}, err
		}
		if state.Encountered == nil {
			state.Encountered = map[int]string{}
		}
		return state, nil
	default:
		return State{}, fmt.Errorf("unsupported client state version %d", probe.Version)
	}
}
