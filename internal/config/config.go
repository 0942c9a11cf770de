package config

import "time"

type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Store     StoreConfig     `yaml:"store"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Surrogate SurrogateConfig `yaml:"surrogate"`
	Transfer  TransferConfig  `yaml:"transfer"`
	Ensemble  EnsembleConfig  `yaml:"ensemble"`
	Weights   WeightsConfig   `yaml:"weights"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects the project database backend.
type StoreConfig struct {
	// Backend type: memory, file, redis
	Backend string `yaml:"backend"`

	// DataDir holds the data file of the file backend.
	DataDir string `yaml:"data_dir"`

	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`
}

// OptimizerConfig holds the optimization loop settings.
type OptimizerConfig struct {
	// Strategy type: bayesian, transfer_learning, ensemble, random_search
	Strategy string `yaml:"strategy"`

	// MaxIterations is the default evaluation budget per run.
	MaxIterations int `yaml:"max_iterations"`

	// EvalTimeoutSec bounds a single tool evaluation; 0 disables the
	// limit.
	EvalTimeoutSec int `yaml:"eval_timeout_sec"`

	// InitialSamples is the size of the randomized initial design.
	InitialSamples int `yaml:"initial_samples"`

	// MinFitTrials is the minimum number of successful trials before
	// the surrogate is fitted.
	MinFitTrials int `yaml:"min_fit_trials"`

	// Tolerance is the convergence threshold on the objective.
	Tolerance float64 `yaml:"tolerance"`

	// MaxConsecutiveFailures aborts the run when that many evaluations
	// fail back to back.
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`

	// Seed fixes the random source; 0 derives one from the clock.
	Seed int64 `yaml:"seed"`

	Acquisition AcquisitionConfig `yaml:"acquisition"`
}

type AcquisitionConfig struct {
	// Type: ei, ucb
	Type       string  `yaml:"type"`
	Xi         float64 `yaml:"xi"`
	Beta       float64 `yaml:"beta"`
	Candidates int     `yaml:"candidates"`
	Restarts   int     `yaml:"restarts"`
}

type SurrogateConfig struct {
	// Kernel: rbf, matern52
	Kernel string `yaml:"kernel"`

	// LengthScale and Signal are estimated from data when zero.
	LengthScale float64 `yaml:"length_scale"`
	Signal      float64 `yaml:"signal"`
	Noise       float64 `yaml:"noise"`

	// RefitEvery gates hyperparameter re-estimation.
	RefitEvery int `yaml:"refit_every"`
}

type TransferConfig struct {
	MaxSources     int     `yaml:"max_sources"`
	MinSimilarity  float64 `yaml:"min_similarity"`
	BudgetFraction float64 `yaml:"budget_fraction"`
}

type EnsembleConfig struct {
	// Members name the strategies the ensemble combines; empty uses
	// the built-in default set.
	Members []string `yaml:"members"`

	// JoinTimeoutSec bounds the wait for members; 0 waits for all.
	JoinTimeoutSec int `yaml:"join_timeout_sec"`
}

// WeightsConfig controls the strategy reliability ledger.
type WeightsConfig struct {
	// Alpha is the smoothing factor for weight updates.
	Alpha float64 `yaml:"alpha"`

	// Path persists ledger state between runs; empty keeps it in
	// memory only.
	Path string `yaml:"path"`
}

type EvaluatorConfig struct {
	Tools         map[string]ToolConfig `yaml:"tools"`
	SampleEveryMS int                   `yaml:"sample_every_ms"`
	ParseStdout   bool                  `yaml:"parse_stdout"`
}

type ToolConfig struct {
	Argv    []string `yaml:"argv"`
	WorkDir string   `yaml:"work_dir"`
	Env     []string `yaml:"env"`
}

func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.Optimizer.EvalTimeoutSec) * time.Second
}

func (c *Config) JoinTimeout() time.Duration {
	return time.Duration(c.Ensemble.JoinTimeoutSec) * time.Second
}

func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Evaluator.SampleEveryMS) * time.Millisecond
}
