package acquisition

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Type identifies an acquisition function.
type Type string

const (
	TypeEI  Type = "ei"
	TypeUCB Type = "ucb"
)

// IsValid checks if the acquisition type is valid.
func (t Type) IsValid() bool {
	switch t {
	case TypeEI, TypeUCB:
		return true
	}
	return false
}

// String returns string representation.
func (t Type) String() string {
	return string(t)
}

// Func scores a candidate from its posterior mean and variance against the
// best objective observed so far. Objectives are minimized; higher scores
// mean more promising candidates.
type Func func(mean, variance, best float64) float64

// ExpectedImprovement returns the closed-form EI acquisition. xi shifts
// the improvement threshold toward exploration.
func ExpectedImprovement(xi float64) Func {
	norm := distuv.UnitNormal
	return func(mean, variance, best float64) float64 {
		imp := best - mean - xi
		sigma := math.Sqrt(variance)
		if sigma < 1e-12 {
			// Deterministic prediction: improvement is either certain
			// or impossible.
			if imp > 0 {
				return imp
			}
			return 0
		}
		z := imp / sigma
		ei := imp*norm.CDF(z) + sigma*norm.Prob(z)
		if ei < 0 {
			return 0
		}
		return ei
	}
}

// UpperConfidenceBound returns a lower-confidence-bound acquisition for
// minimization: candidates with low mean or high uncertainty score higher.
func UpperConfidenceBound(beta float64) Func {
	return func(mean, variance, _ float64) float64 {
		return beta*math.Sqrt(variance) - mean
	}
}

// New returns the acquisition function for a type.
func New(t Type, xi, beta float64) (Func, bool) {
	switch t {
	case TypeEI:
		return ExpectedImprovement(xi), true
	case TypeUCB:
		return UpperConfidenceBound(beta), true
	}
	return nil, false
}
