package surrogate

// Observation couples a normalized point with its objective value.
type Observation struct {
	X []float64
	Y float64
}

// Model is a probabilistic surrogate over the unit cube.
type Model interface {
	// Name returns the model name.
	Name() string

	// Fit replaces the training set. Hyperparameters are re-estimated
	// only when the observation count crosses the refit threshold.
	Fit(obs []Observation) error

	// Predict returns the posterior mean and variance at x. With no
	// fitted observations it returns the prior.
	Predict(x []float64) (mean, variance float64)

	// Len returns the number of fitted observations.
	Len() int
}

// Config holds surrogate configuration.
type Config struct {
	Kernel KernelType

	// LengthScale and Signal are estimated from data when zero.
	LengthScale float64
	Signal      float64
	Noise       float64

	// RefitEvery gates hyperparameter re-estimation: estimates are
	// refreshed when at least this many observations arrived since the
	// previous estimation.
	RefitEvery int
}

// DefaultConfig returns default surrogate configuration.
func DefaultConfig() Config {
	return Config{
		Kernel:     KernelRBF,
		Noise:      1e-4,
		RefitEvery: 5,
	}
}

// New creates a surrogate model from configuration.
func New(cfg Config) (Model, error) {
	return NewGP(cfg)
}
