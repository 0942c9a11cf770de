package learning

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// defaultWeight is the neutral reliability assigned to strategies that
// have no history yet.
const defaultWeight = 1.0

// WeightSet is a versioned snapshot of per-strategy reliability weights.
type WeightSet struct {
	Version   int64              `json:"version"`
	Weights   map[string]float64 `json:"weights"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Ledger tracks how reliable each optimization strategy has been.
// Weights move toward new evidence by exponential decay:
// new = alpha*closeness + (1-alpha)*old. The ledger is explicit shared
// state: callers inject it and read versioned snapshots back.
type Ledger struct {
	mu        sync.RWMutex
	alpha     float64
	version   int64
	weights   map[string]float64
	updatedAt time.Time
}

// NewLedger creates a ledger. Alpha is the smoothing factor: higher
// values give more weight to recent runs. Typical values are 0.2-0.4.
func NewLedger(alpha float64) *Ledger {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}
	return &Ledger{
		alpha:   alpha,
		weights: make(map[string]float64),
	}
}

// Weight returns the reliability weight for a strategy. Unknown
// strategies start neutral.
func (l *Ledger) Weight(strategy string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if w, ok := l.weights[strategy]; ok {
		return w
	}
	return defaultWeight
}

// Update folds a run outcome into the strategy's weight. Closeness is
// clamped to [0,1], with 1 meaning the run hit its target exactly.
func (l *Ledger) Update(strategy string, closeness float64) {
	if strategy == "" {
		return
	}
	if closeness < 0 {
		closeness = 0
	}
	if closeness > 1 {
		closeness = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	old, ok := l.weights[strategy]
	if !ok {
		old = defaultWeight
	}
	l.weights[strategy] = l.alpha*closeness + (1-l.alpha)*old
	l.version++
	l.updatedAt = time.Now()
}

// Version returns the current state version.
func (l *Ledger) Version() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Snapshot returns a copy of the current state.
func (l *Ledger) Snapshot() WeightSet {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := WeightSet{
		Version:   l.version,
		UpdatedAt: l.updatedAt,
		Weights:   make(map[string]float64, len(l.weights)),
	}
	for k, v := range l.weights {
		out.Weights[k] = v
	}
	return out
}

// Restore replaces the ledger state with a snapshot.
func (l *Ledger) Restore(ws WeightSet) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.version = ws.Version
	l.updatedAt = ws.UpdatedAt
	l.weights = make(map[string]float64, len(ws.Weights))
	for k, v := range ws.Weights {
		l.weights[k] = v
	}
}

// Save writes the ledger state as JSON.
func (l *Ledger) Save(w io.Writer) error {
	snapshot := l.Snapshot()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("encoding weights: %w", err)
	}
	return nil
}

// Load replaces the ledger state from JSON.
func (l *Ledger) Load(r io.Reader) error {
	var ws WeightSet
	if err := json.NewDecoder(r).Decode(&ws); err != nil {
		return fmt.Errorf("decoding weights: %w", err)
	}
	l.Restore(ws)
	return nil
}
