package config

import (
	"github.com/striep/edatune/internal/evaluator"
	"github.com/striep/edatune/internal/tune/acquisition"
	"github.com/striep/edatune/internal/tune/strategy"
	"github.com/striep/edatune/internal/tune/surrogate"
)

// StrategyConfig maps the file sections onto the strategy factory
// configuration.
func (c *Config) StrategyConfig() strategy.Config {
	bayes := strategy.BayesianConfig{
		InitialSamples:         c.Optimizer.InitialSamples,
		MinFitTrials:           c.Optimizer.MinFitTrials,
		Tolerance:              c.Optimizer.Tolerance,
		MaxConsecutiveFailures: c.Optimizer.MaxConsecutiveFailures,
		Seed:                   c.Optimizer.Seed,
		Surrogate:              c.surrogateConfig(),
		Acquisition:            c.acquisitionConfig(),
	}

	members := make([]strategy.Type, 0, len(c.Ensemble.Members))
	for _, m := range c.Ensemble.Members {
		members = append(members, strategy.Type(m))
	}

	return strategy.Config{
		Default:  strategy.Type(c.Optimizer.Strategy),
		Bayesian: bayes,
		Transfer: strategy.TransferConfig{
			MaxSources:     c.Transfer.MaxSources,
			MinSimilarity:  c.Transfer.MinSimilarity,
			BudgetFraction: c.Transfer.BudgetFraction,
			Bayesian:       bayes,
		},
		Ensemble: strategy.EnsembleConfig{
			Members:     members,
			JoinTimeout: c.JoinTimeout(),
		},
		Random: strategy.RandomConfig{
			Tolerance:              c.Optimizer.Tolerance,
			MaxConsecutiveFailures: c.Optimizer.MaxConsecutiveFailures,
			Seed:                   c.Optimizer.Seed,
		},
	}
}

// EvaluatorConfig maps the evaluator section onto the command evaluator
// configuration.
func (c *Config) EvaluatorConfig() evaluator.Config {
	tools := make(map[string]evaluator.ToolCommand, len(c.Evaluator.Tools))
	for name, t := range c.Evaluator.Tools {
		tools[name] = evaluator.ToolCommand{
			Argv:    t.Argv,
			WorkDir: t.WorkDir,
			Env:     t.Env,
		}
	}
	return evaluator.Config{
		Tools:       tools,
		SampleEvery: c.SampleInterval(),
		ParseStdout: c.Evaluator.ParseStdout,
	}
}

func (c *Config) surrogateConfig() surrogate.Config {
	return surrogate.Config{
		Kernel:      surrogate.KernelType(c.Surrogate.Kernel),
		LengthScale: c.Surrogate.LengthScale,
		Signal:      c.Surrogate.Signal,
		Noise:       c.Surrogate.Noise,
		RefitEvery:  c.Surrogate.RefitEvery,
	}
}

func (c *Config) acquisitionConfig() acquisition.Config {
	return acquisition.Config{
		Acquisition: acquisition.Type(c.Optimizer.Acquisition.Type),
		Xi:          c.Optimizer.Acquisition.Xi,
		Beta:        c.Optimizer.Acquisition.Beta,
		Candidates:  c.Optimizer.Acquisition.Candidates,
		Restarts:    c.Optimizer.Acquisition.Restarts,
	}
}
