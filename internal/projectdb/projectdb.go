package projectdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/param"
)

// TrialRecord is one archived evaluation from a past tuning run.
type TrialRecord struct {
	ID        string              `json:"id"`
	Config    param.Configuration `json:"config"`
	Metrics   objective.Metrics   `json:"metrics,omitempty"`
	Objective float64             `json:"objective"`
	Rejected  bool                `json:"rejected,omitempty"`
	At        time.Time           `json:"at"`
}

// ProjectRecord archives the outcome of tuning one project.
type ProjectRecord struct {
	ID            string              `json:"id"`
	Tool          string              `json:"tool"`
	Context       map[string]any      `json:"context,omitempty"`
	Best          param.Configuration `json:"best,omitempty"`
	BestObjective float64             `json:"best_objective"`
	Target        objective.Metrics   `json:"target,omitempty"`
	Trials        []TrialRecord       `json:"trials,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Validate checks the record's identity fields.
func (r *ProjectRecord) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}
	if r.ID == "" {
		return errors.New("record has no project id")
	}
	if r.Tool == "" {
		return errors.New("record has no tool")
	}
	return nil
}

// Clone returns a deep-enough copy: maps and the trial slice are copied,
// values inside them are shared.
func (r *ProjectRecord) Clone() *ProjectRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Context != nil {
		out.Context = make(map[string]any, len(r.Context))
		for k, v := range r.Context {
			out.Context[k] = v
		}
	}
	if r.Best != nil {
		out.Best = r.Best.Clone()
	}
	if r.Target != nil {
		out.Target = r.Target.Clone()
	}
	if r.Trials != nil {
		out.Trials = make([]TrialRecord, len(r.Trials))
		copy(out.Trials, r.Trials)
	}
	return &out
}

// Match couples a record with its similarity to a query.
type Match struct {
	Record     *ProjectRecord
	Similarity float64
}

// ErrNotFound is returned when a project id does not exist.
var ErrNotFound = errors.New("project not found")

// IsNotFound checks if err reports a missing project.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(id string) error {
	return fmt.Errorf("project %q: %w", id, ErrNotFound)
}

func sortNewestFirst(records []*ProjectRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.After(records[j].UpdatedAt)
		}
		return records[i].ID < records[j].ID
	})
}

// Store archives project records. Put upserts by project id with
// last-writer-wins semantics; records are never merged. Implementations
// are safe for concurrent use.
type Store interface {
	// Put inserts or replaces a record.
	Put(ctx context.Context, rec *ProjectRecord) error

	// Get returns a record by project id, or ErrNotFound.
	Get(ctx context.Context, id string) (*ProjectRecord, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]*ProjectRecord, error)

	// FindSimilar ranks same-tool records by context similarity and
	// returns at most k matches. An empty result is valid; an empty
	// attribute set always yields an empty result.
	FindSimilar(ctx context.Context, tool string, attrs map[string]any, k int) ([]Match, error)

	// Close releases the backend.
	Close() error
}
