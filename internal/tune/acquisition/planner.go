package acquisition

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/optimize"
)

// Predictor is the slice of the surrogate the planner needs.
type Predictor interface {
	Predict(x []float64) (mean, variance float64)
}

// Config holds planner configuration.
type Config struct {
	Acquisition Type
	Xi          float64
	Beta        float64
	Candidates  int
	Restarts    int
}

// DefaultConfig returns default planner configuration.
func DefaultConfig() Config {
	return Config{
		Acquisition: TypeEI,
		Xi:          0.01,
		Beta:        2.0,
		Candidates:  256,
		Restarts:    4,
	}
}

// Planner proposes the next point to evaluate: a random candidate sweep
// followed by local refinement of the best seeds.
type Planner struct {
	cfg Config
	acq Func
	rng *rand.Rand
}

// NewPlanner creates a planner. The random source drives the candidate
// sweep and the degenerate-surface fallback.
func NewPlanner(cfg Config, rng *rand.Rand) (*Planner, error) {
	def := DefaultConfig()
	if cfg.Acquisition == "" {
		cfg.Acquisition = def.Acquisition
	}
	if cfg.Xi <= 0 {
		cfg.Xi = def.Xi
	}
	if cfg.Beta <= 0 {
		cfg.Beta = def.Beta
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = def.Candidates
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = def.Restarts
	}
	acq, ok := New(cfg.Acquisition, cfg.Xi, cfg.Beta)
	if !ok {
		return nil, fmt.Errorf("unknown acquisition type: %s", cfg.Acquisition)
	}
	return &Planner{cfg: cfg, acq: acq, rng: rng}, nil
}

type candidate struct {
	x        []float64
	score    float64
	variance float64
}

const tieEps = 1e-12

// Propose returns the next point in [0,1]^dim and its acquisition score.
// Ties are broken toward higher predictive variance. If the acquisition
// surface is flat at zero, a boundary-weighted random point is returned
// so the optimization always makes progress.
func (p *Planner) Propose(m Predictor, dim int, best float64) ([]float64, float64) {
	if dim <= 0 {
		return nil, 0
	}

	cands := make([]candidate, 0, p.cfg.Candidates)
	for i := 0; i < p.cfg.Candidates; i++ {
		x := p.randomPoint(dim)
		mean, variance := m.Predict(x)
		cands = append(cands, candidate{x: x, score: p.acq(mean, variance, best), variance: variance})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].variance > cands[j].variance
	})

	top := cands[0]
	seeds := p.cfg.Restarts
	if seeds > len(cands) {
		seeds = len(cands)
	}
	for i := 0; i < seeds; i++ {
		refined := p.refine(m, cands[i].x, best)
		if refined.score > top.score+tieEps {
			top = refined
		} else if refined.score > top.score-tieEps && refined.variance > top.variance {
			top = refined
		}
	}

	if top.score <= tieEps {
		return p.boundaryPoint(dim), 0
	}
	return top.x, top.score
}

// refine runs a local Nelder-Mead search from a seed, clamping every
// probe into the unit cube.
func (p *Planner) refine(m Predictor, seed []float64, best float64) candidate {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			mean, variance := m.Predict(clampUnit(x))
			return -p.acq(mean, variance, best)
		},
	}
	start := append([]float64(nil), seed...)
	settings := &optimize.Settings{MajorIterations: 100}
	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})

	x := seed
	if err == nil && result != nil {
		x = clampUnit(result.X)
	}
	mean, variance := m.Predict(x)
	return candidate{x: x, score: p.acq(mean, variance, best), variance: variance}
}

func (p *Planner) randomPoint(dim int) []float64 {
	x := make([]float64, dim)
	for i := range x {
		x[i] = p.rng.Float64()
	}
	return x
}

// boundaryPoint draws a random point with roughly half its coordinates
// pushed near the cube faces, where a flat surrogate has seen no data.
func (p *Planner) boundaryPoint(dim int) []float64 {
	x := make([]float64, dim)
	for i := range x {
		if p.rng.Intn(2) == 0 {
			x[i] = p.rng.Float64()
			continue
		}
		edge := p.rng.Float64() * 0.1
		if p.rng.Intn(2) == 0 {
			x[i] = edge
		} else {
			x[i] = 1 - edge
		}
	}
	return x
}

func clampUnit(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		switch {
		case v < 0:
			out[i] = 0
		case v > 1:
			out[i] = 1
		default:
			out[i] = v
		}
	}
	return out
}
