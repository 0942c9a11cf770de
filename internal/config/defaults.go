package config

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Backend: "memory",
			DataDir: "/var/lib/edatune",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				DB:        0,
				Namespace: "edatune",
			},
		},
		Optimizer: OptimizerConfig{
			Strategy:               "bayesian",
			MaxIterations:          20,
			EvalTimeoutSec:         0,
			InitialSamples:         4,
			MinFitTrials:           2,
			Tolerance:              0.001,
			MaxConsecutiveFailures: 3,
			Seed:                   0,
			Acquisition: AcquisitionConfig{
				Type:       "ei",
				Xi:         0.01,
				Beta:       2.0,
				Candidates: 256,
				Restarts:   4,
			},
		},
		Surrogate: SurrogateConfig{
			Kernel:     "rbf",
			Noise:      1e-4,
			RefitEvery: 5,
		},
		Transfer: TransferConfig{
			MaxSources:     3,
			MinSimilarity:  0.3,
			BudgetFraction: 0.3,
		},
		Ensemble: EnsembleConfig{
			Members:        []string{"bayesian", "transfer_learning", "random_search"},
			JoinTimeoutSec: 0,
		},
		Weights: WeightsConfig{
			Alpha: 0.3,
			Path:  "",
		},
		Evaluator: EvaluatorConfig{
			SampleEveryMS: 100,
			ParseStdout:   true,
		},
	}
}
