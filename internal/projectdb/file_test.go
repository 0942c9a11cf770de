package projectdb

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFile_FreshDirectory(t *testing.T) {
	s, err := OpenFile(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer s.Close()

	records, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty store, got %d records", len(records))
	}
}

func TestFile_PutSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := OpenFile(dir, testLogger())
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	if err := s1.Put(ctx, testRecord("p1")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	s2, err := OpenFile(dir, testLogger())
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Tool != "synth" {
		t.Errorf("unexpected record after reopen: %+v", got)
	}
	if len(got.Trials) != 1 {
		t.Errorf("expected 1 archived trial, got %d", len(got.Trials))
	}
}

func TestFile_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(dir, testLogger())
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer s.Close()

	if err := s.Put(context.Background(), testRecord("p1")); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, dataFileName)); err != nil {
		t.Errorf("expected data file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, dataFileName+".tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestFile_CorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, dataFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	s, err := OpenFile(dir, testLogger())
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer s.Close()

	records, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected fresh store after corrupt file, got %d records", len(records))
	}
}

func TestFile_NewerVersionStartsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, dataFileName)
	payload := []byte(`{"version": 99, "projects": {"p1": {"id": "p1", "tool": "synth"}}}`)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	s, err := OpenFile(dir, testLogger())
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(context.Background(), "p1"); !IsNotFound(err) {
		t.Errorf("expected fresh store for newer file version, got %v", err)
	}
}

func TestFile_FindSimilar(t *testing.T) {
	s, err := OpenFile(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, testRecord("p1")); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	matches, err := s.FindSimilar(ctx, "synth", map[string]any{"chip_type": "asic"}, 3)
	if err != nil {
		t.Fatalf("FindSimilar error: %v", err)
	}
	if len(matches) != 1 || matches[0].Record.ID != "p1" {
		t.Errorf("unexpected matches: %+v", matches)
	}
}
