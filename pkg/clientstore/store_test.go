package clientstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "state.json"))
	state, err := s.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if state.Version != CurrentVersion || state.Weekly != nil || len(state.Encountered) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "nested", "state.json"))
	state := Empty()
	state.Weekly = &WeeklyBatch{StartDate: "2025-06-01", Facts: []string{"a", "b"}}
	state.AddEncountered(12, "Cats purr.")
	state.AddEncountered(12, "Cats purr.")
	state.LastShownDate = "2025-06-02"

	if err := s.Save(state); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.Weekly == nil || got.Weekly.StartDate != "2025-06-01" || len(got.Weekly.Facts) != 2 {
		t.Fatalf("unexpected weekly batch: %+v", got.Weekly)
	}
	if got.Encountered[12] != "Cats purr." || len(got.NewIDs) != 1 {
		t.Fatalf("unexpected encountered state: %+v", got)
	}
	if got.LastShownDate != "2025-06-02" {
		t.Fatalf("unexpected last shown date %q", got.LastShownDate)
	}
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	state, err := Open(path).Load()
	if err != nil {
		t.Fatalf("expected corrupt state to be ignored, got %v", err)
	}
	if state.Weekly != nil || len(state.Encountered) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}

func TestLoadUnknownVersionIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	state, err := Open(path).Load()
	if err != nil || state.Version != CurrentVersion {
		t.Fatalf("expected empty current state, got %+v, %v", state, err)
	}
}

func TestLoadMigratesLegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	legacy := `{
		"weeklyFactMap": "{\"startDate\":\"2025-06-01\",\"facts\":{\"2025-06-02\":\"second\",\"2025-06-01\":\"first\"}}",
		"encounteredFacts": "{\"5\":\"five\",\"oops\":\"skip\"}",
		"newFactIds": "[9,5]",
		"lastDailyFactDate": "2025-06-02"
	}`
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	state, err := Open(path).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if state.Weekly == nil || state.Weekly.Facts[0] != "first" || state.Weekly.Facts[1] != "second" {
		t.Fatalf("expected weekly facts ordered by date, got %+v", state.Weekly)
	}
	if len(state.Encountered) != 1 || state.Encountered[5] != "five" {
		t.Fatalf("unexpected encountered map: %v", state.Encountered)
	}
	if len(state.NewIDs) != 2 || state.NewIDs[0] != 5 {
		t.Fatalf("unexpected new ids: %v", state.NewIDs)
	}
	if state.LastShownDate != "2025-06-02" {
		t.Fatalf("unexpected last shown date %q", state.LastShownDate)
	}
}

func TestUpdate(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "state.json"))
	if _, err := s.Update(func(st *State) error {
		st.LastShownDate = "2025-01-01"
		return nil
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	got, _ := s.Load()
	if got.LastShownDate != "2025-01-01" {
		t.Fatalf("expected update to persist, got %+v", got)
	}
}

func TestRememberDoesNotFlagNew(t *testing.T) {
	var state State
	state.Remember(7, "Cats have 32 ear muscles.")
	state.Remember(7, "ignored duplicate")
	if state.Encountered[7] != "Cats have 32 ear muscles." {
		t.Fatalf("unexpected encountered map: %+v", state.Encountered)
	}
	if len(state.NewIDs) != 0 {
		t.Fatalf("remembered facts should not be new, got %v", state.NewIDs)
	}

	state.AddEncountered(7, "Cats have 32 ear muscles.")
	if len(state.NewIDs) != 0 {
		t.Fatalf("already known fact flagged as new: %v", state.NewIDs)
	}
	state.AddEncountered(8, "Cats sweat through their paws.")
	if len(state.NewIDs) != 1 || state.NewIDs[0] != 8 {
		t.Fatalf("expected only fact 8 to be new, got %v", state.NewIDs)
	}
}
