package projectdb

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	currentVersion = 1
	dataFileName   = "projects.json"
)

// fileData is the persisted payload.
type fileData struct {
	Version   int                       `json:"version"`
	UpdatedAt time.Time                 `json:"updated_at"`
	Projects  map[string]*ProjectRecord `json:"projects"`
}

// File persists project records as a JSON file in a data directory.
// Every Put writes through a temp file and an atomic rename, so a crash
// never leaves a torn file behind. An unreadable or newer-versioned file
// is logged and replaced rather than failing startup.
type File struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]*ProjectRecord
}

// OpenFile loads the store from dir, starting fresh when no usable data
// file exists.
func OpenFile(dir string, logger *slog.Logger) (*File, error) {
	s := &File{
		dir:     dir,
		logger:  logger,
		records: make(map[string]*ProjectRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *File) load() error {
	path := filepath.Join(s.dir, dataFileName)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no existing project file, starting fresh", "path", path)
			return nil
		}
		return err
	}
	defer file.Close()

	var data fileData
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		s.logger.Warn("failed to decode project file, starting fresh", "error", err)
		return nil
	}
	if data.Version > currentVersion {
		s.logger.Warn("project file version is newer than supported, starting fresh",
			"file_version", data.Version,
			"supported_version", currentVersion,
		)
		return nil
	}
	if data.Projects != nil {
		s.records = data.Projects
	}
	s.logger.Info("loaded project records", "path", path, "projects", len(s.records))
	return nil
}

func (s *File) saveLocked() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(s.dir, dataFileName)
	tempPath := path + ".tmp"

	data := fileData{
		Version:   currentVersion,
		UpdatedAt: time.Now(),
		Projects:  s.records,
	}

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}

	s.logger.Debug("saved project records", "path", path, "projects", len(s.records))
	return nil
}

// Put inserts or replaces a record and writes the file.
func (s *File) Put(_ context.Context, rec *ProjectRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	stored := rec.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[stored.ID] = stored
	return s.saveLocked()
}

// Get returns a record by project id.
func (s *File) Get(_ context.Context, id string) (*ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return rec.Clone(), nil
}

// List returns all records, newest first.
func (s *File) List(_ context.Context) ([]*ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

func (s *File) snapshotLocked() []*ProjectRecord {
	mem := Memory{records: s.records}
	return mem.listLocked()
}

// FindSimilar ranks same-tool records by context similarity.
func (s *File) FindSimilar(_ context.Context, tool string, attrs map[string]any, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankSimilar(s.snapshotLocked(), tool, attrs, k), nil
}

// Close writes the final state.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}
