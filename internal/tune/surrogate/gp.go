package surrogate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const maxJitterTries = 6

// GP is a Gaussian-process surrogate. Targets are centered around their
// mean, the covariance matrix carries the configured noise on its
// diagonal, and predictions use the standard posterior equations.
type GP struct {
	cfg    Config
	kernel Kernel

	lengthScale  float64
	signal       float64
	lastEstimate int

	obs   []Observation
	meanY float64
	chol  *mat.Cholesky
	alpha *mat.VecDense
}

// NewGP creates a GP surrogate from configuration.
func NewGP(cfg Config) (*GP, error) {
	if cfg.Kernel == "" {
		cfg.Kernel = KernelRBF
	}
	if !cfg.Kernel.IsValid() {
		return nil, fmt.Errorf("unknown kernel type: %s", cfg.Kernel)
	}
	if cfg.Noise <= 0 {
		cfg.Noise = DefaultConfig().Noise
	}
	if cfg.RefitEvery <= 0 {
		cfg.RefitEvery = DefaultConfig().RefitEvery
	}

	g := &GP{cfg: cfg, lengthScale: cfg.LengthScale, signal: cfg.Signal}
	if g.lengthScale <= 0 {
		g.lengthScale = 0.5
	}
	if g.signal <= 0 {
		g.signal = 1
	}
	kernel, err := newKernel(cfg.Kernel, g.lengthScale, g.signal)
	if err != nil {
		return nil, err
	}
	g.kernel = kernel
	return g, nil
}

// Name returns the model name.
func (g *GP) Name() string {
	return "gp_" + g.kernel.Name()
}

// Len returns the number of fitted observations.
func (g *GP) Len() int {
	return len(g.obs)
}

// Hyperparams reports the kernel hyperparameters in use.
type Hyperparams struct {
	LengthScale float64 `json:"length_scale"`
	Signal      float64 `json:"signal"`
	Noise       float64 `json:"noise"`
}

// Hyperparams returns the current hyperparameters.
func (g *GP) Hyperparams() Hyperparams {
	return Hyperparams{LengthScale: g.lengthScale, Signal: g.signal, Noise: g.cfg.Noise}
}

// Fit replaces the training set and refreshes the factorization.
func (g *GP) Fit(obs []Observation) error {
	if len(obs) == 0 {
		g.obs, g.chol, g.alpha, g.meanY = nil, nil, nil, 0
		return nil
	}
	dim := len(obs[0].X)
	for i := range obs {
		if len(obs[i].X) != dim {
			return fmt.Errorf("observation %d has dimension %d, want %d", i, len(obs[i].X), dim)
		}
		if math.IsNaN(obs[i].Y) || math.IsInf(obs[i].Y, 0) {
			return fmt.Errorf("observation %d has non-finite value", i)
		}
	}
	g.obs = make([]Observation, len(obs))
	copy(g.obs, obs)

	if g.needsEstimate() {
		g.estimateHyperparams()
	}
	return g.factorize()
}

// needsEstimate reports whether enough observations arrived since the
// last hyperparameter estimation.
func (g *GP) needsEstimate() bool {
	if g.cfg.LengthScale > 0 && g.cfg.Signal > 0 {
		return false
	}
	if g.lastEstimate == 0 {
		return len(g.obs) >= 2
	}
	return len(g.obs)-g.lastEstimate >= g.cfg.RefitEvery
}

func (g *GP) estimateHyperparams() {
	if g.cfg.LengthScale <= 0 {
		if ls := medianPairwiseDistance(g.obs); ls > 0 {
			g.lengthScale = ls
		}
	}
	if g.cfg.Signal <= 0 {
		if v := targetVariance(g.obs); v > 1e-12 {
			g.signal = v
		} else {
			g.signal = 1
		}
	}
	g.kernel, _ = newKernel(g.cfg.Kernel, g.lengthScale, g.signal)
	g.lastEstimate = len(g.obs)
}

func (g *GP) factorize() error {
	n := len(g.obs)
	var sum float64
	for i := range g.obs {
		sum += g.obs[i].Y
	}
	g.meanY = sum / float64(n)

	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := g.kernel.Eval(g.obs[i].X, g.obs[j].X)
			if i == j {
				v += g.cfg.Noise
			}
			K.SetSym(i, j, v)
		}
	}
	y := mat.NewVecDense(n, nil)
	for i := range g.obs {
		y.SetVec(i, g.obs[i].Y-g.meanY)
	}

	jitter := 0.0
	for try := 0; try < maxJitterTries; try++ {
		kj := K
		if jitter > 0 {
			kj = mat.NewSymDense(n, nil)
			kj.CopySym(K)
			for i := 0; i < n; i++ {
				kj.SetSym(i, i, K.At(i, i)+jitter)
			}
		}
		var chol mat.Cholesky
		if chol.Factorize(kj) {
			alpha := mat.NewVecDense(n, nil)
			if err := chol.SolveVecTo(alpha, y); err != nil {
				return fmt.Errorf("solving for surrogate weights: %w", err)
			}
			g.chol, g.alpha = &chol, alpha
			return nil
		}
		if jitter == 0 {
			jitter = 1e-10
		} else {
			jitter *= 100
		}
	}
	return fmt.Errorf("covariance matrix not positive definite after %d jitter attempts", maxJitterTries)
}

// Predict returns the posterior mean and variance at x. With no fitted
// observations it returns the prior. Variance never goes below zero.
func (g *GP) Predict(x []float64) (float64, float64) {
	prior := g.kernel.Eval(x, x)
	if len(g.obs) == 0 || g.chol == nil {
		return g.meanY, prior
	}
	n := len(g.obs)
	k := mat.NewVecDense(n, nil)
	for i := range g.obs {
		k.SetVec(i, g.kernel.Eval(x, g.obs[i].X))
	}
	mean := g.meanY + mat.Dot(k, g.alpha)

	v := mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(v, k); err != nil {
		return mean, prior
	}
	variance := prior - mat.Dot(k, v)
	if variance < 0 {
		variance = 0
	}
	return mean, variance
}

func medianPairwiseDistance(obs []Observation) float64 {
	var dists []float64
	for i := 0; i < len(obs); i++ {
		for j := i + 1; j < len(obs); j++ {
			if d := math.Sqrt(sqDist(obs[i].X, obs[j].X)); d > 0 {
				dists = append(dists, d)
			}
		}
	}
	if len(dists) == 0 {
		return 0
	}
	sort.Float64s(dists)
	return dists[len(dists)/2]
}

func targetVariance(obs []Observation) float64 {
	if len(obs) < 2 {
		return 0
	}
	var mean float64
	for i := range obs {
		mean += obs[i].Y
	}
	mean /= float64(len(obs))
	var ss float64
	for i := range obs {
		d := obs[i].Y - mean
		ss += d * d
	}
	return ss / float64(len(obs)-1)
}
