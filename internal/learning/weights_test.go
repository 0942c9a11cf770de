package learning

import (
	"bytes"
	"math"
	"sync"
	"testing"
)

func TestNewLedger_InvalidAlpha(t *testing.T) {
	// Out-of-range alpha falls back to the default.
	for _, alpha := range []float64{0, -0.5, 1.5} {
		l := NewLedger(alpha)
		if l.alpha != 0.3 {
			t.Errorf("alpha %f: expected default 0.3, got %f", alpha, l.alpha)
		}
	}
}

func TestLedger_DefaultWeight(t *testing.T) {
	l := NewLedger(0.3)
	if w := l.Weight("bayesian"); w != 1.0 {
		t.Errorf("expected neutral weight 1.0, got %f", w)
	}
}

func TestLedger_UpdateDecay(t *testing.T) {
	l := NewLedger(0.5)

	// First update decays from the neutral prior:
	// 0.5*0.4 + 0.5*1.0 = 0.7
	l.Update("bayesian", 0.4)
	if w := l.Weight("bayesian"); math.Abs(w-0.7) > 1e-9 {
		t.Errorf("expected 0.7, got %f", w)
	}

	// Second update decays from the stored weight:
	// 0.5*0.9 + 0.5*0.7 = 0.8
	l.Update("bayesian", 0.9)
	if w := l.Weight("bayesian"); math.Abs(w-0.8) > 1e-9 {
		t.Errorf("expected 0.8, got %f", w)
	}
}

func TestLedger_UpdateClampsCloseness(t *testing.T) {
	l := NewLedger(0.5)
	l.Update("a", 7)
	if w := l.Weight("a"); w > 1.0 {
		t.Errorf("expected clamped weight <= 1, got %f", w)
	}
	l.Update("b", -3)
	// 0.5*0 + 0.5*1 = 0.5
	if w := l.Weight("b"); math.Abs(w-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got %f", w)
	}
}

func TestLedger_VersionMonotonic(t *testing.T) {
	l := NewLedger(0.3)
	if l.Version() != 0 {
		t.Errorf("expected version 0, got %d", l.Version())
	}
	l.Update("a", 0.5)
	l.Update("b", 0.5)
	l.Update("a", 0.6)
	if l.Version() != 3 {
		t.Errorf("expected version 3, got %d", l.Version())
	}

	// Empty strategy names are ignored.
	l.Update("", 0.5)
	if l.Version() != 3 {
		t.Errorf("expected version unchanged, got %d", l.Version())
	}
}

func TestLedger_SnapshotIsolated(t *testing.T) {
	l := NewLedger(0.3)
	l.Update("a", 0.2)

	snap := l.Snapshot()
	snap.Weights["a"] = 42

	if w := l.Weight("a"); w == 42 {
		t.Error("mutating a snapshot leaked into the ledger")
	}
}

func TestLedger_SaveLoad(t *testing.T) {
	l1 := NewLedger(0.3)
	l1.Update("bayesian", 0.8)
	l1.Update("transfer_learning", 0.3)

	var buf bytes.Buffer
	if err := l1.Save(&buf); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	l2 := NewLedger(0.3)
	if err := l2.Load(&buf); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if l2.Version() != l1.Version() {
		t.Errorf("version mismatch: %d vs %d", l2.Version(), l1.Version())
	}
	if math.Abs(l2.Weight("bayesian")-l1.Weight("bayesian")) > 1e-12 {
		t.Errorf("weight mismatch after load")
	}
}

func TestLedger_LoadInvalid(t *testing.T) {
	l := NewLedger(0.3)
	if err := l.Load(bytes.NewBufferString("{broken")); err == nil {
		t.Error("expected error for malformed json")
	}
}

func TestLedger_ConcurrentUpdates(t *testing.T) {
	l := NewLedger(0.3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Update("bayesian", 0.5)
				l.Weight("bayesian")
			}
		}()
	}
	wg.Wait()

	if l.Version() != 800 {
		t.Errorf("expected 800 updates, got %d", l.Version())
	}
}
