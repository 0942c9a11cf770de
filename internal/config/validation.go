package config

import (
	"errors"
	"fmt"

	"github.com/striep/edatune/internal/tune/acquisition"
	"github.com/striep/edatune/internal/tune/strategy"
	"github.com/striep/edatune/internal/tune/surrogate"
)

func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}

	if err := c.Optimizer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("optimizer: %w", err))
	}

	if err := c.Surrogate.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("surrogate: %w", err))
	}

	if err := c.Transfer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("transfer: %w", err))
	}

	if err := c.Ensemble.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ensemble: %w", err))
	}

	if err := c.Weights.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("weights: %w", err))
	}

	if err := c.Evaluator.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("evaluator: %w", err))
	}

	return errors.Join(errs...)
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", l.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[l.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", l.Format)
	}

	return nil
}

func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case "memory":
	case "file":
		if s.DataDir == "" {
			return fmt.Errorf("data_dir cannot be empty for the file backend")
		}
	case "redis":
		if s.Redis.Addr == "" {
			return fmt.Errorf("redis.addr cannot be empty for the redis backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (valid: memory, file, redis)", s.Backend)
	}
	return nil
}

func (o *OptimizerConfig) Validate() error {
	var errs []error

	if !strategy.Type(o.Strategy).IsValid() {
		errs = append(errs, fmt.Errorf("invalid strategy: %s (valid: bayesian, transfer_learning, ensemble, random_search)", o.Strategy))
	}

	if o.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("max_iterations must be at least 1, got %d", o.MaxIterations))
	}

	if o.EvalTimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("eval_timeout_sec must be non-negative"))
	}

	if o.InitialSamples < 1 {
		errs = append(errs, fmt.Errorf("initial_samples must be at least 1, got %d", o.InitialSamples))
	}

	if o.MinFitTrials < 2 {
		errs = append(errs, fmt.Errorf("min_fit_trials must be at least 2, got %d", o.MinFitTrials))
	}

	if o.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("tolerance must be non-negative"))
	}

	if o.MaxConsecutiveFailures < 1 {
		errs = append(errs, fmt.Errorf("max_consecutive_failures must be at least 1"))
	}

	if !acquisition.Type(o.Acquisition.Type).IsValid() {
		errs = append(errs, fmt.Errorf("invalid acquisition type: %s (valid: ei, ucb)", o.Acquisition.Type))
	}

	if o.Acquisition.Xi < 0 {
		errs = append(errs, fmt.Errorf("acquisition.xi must be non-negative"))
	}

	if o.Acquisition.Beta < 0 {
		errs = append(errs, fmt.Errorf("acquisition.beta must be non-negative"))
	}

	if o.Acquisition.Candidates < 1 {
		errs = append(errs, fmt.Errorf("acquisition.candidates must be at least 1"))
	}

	if o.Acquisition.Restarts < 1 {
		errs = append(errs, fmt.Errorf("acquisition.restarts must be at least 1"))
	}

	return errors.Join(errs...)
}

func (s *SurrogateConfig) Validate() error {
	var errs []error

	if !surrogate.KernelType(s.Kernel).IsValid() {
		errs = append(errs, fmt.Errorf("invalid kernel: %s (valid: rbf, matern52)", s.Kernel))
	}

	if s.LengthScale < 0 {
		errs = append(errs, fmt.Errorf("length_scale must be non-negative"))
	}

	if s.Signal < 0 {
		errs = append(errs, fmt.Errorf("signal must be non-negative"))
	}

	if s.Noise <= 0 {
		errs = append(errs, fmt.Errorf("noise must be positive"))
	}

	if s.RefitEvery < 1 {
		errs = append(errs, fmt.Errorf("refit_every must be at least 1"))
	}

	return errors.Join(errs...)
}

func (t *TransferConfig) Validate() error {
	var errs []error

	if t.MaxSources < 1 {
		errs = append(errs, fmt.Errorf("max_sources must be at least 1"))
	}

	if t.MinSimilarity < 0 || t.MinSimilarity > 1 {
		errs = append(errs, fmt.Errorf("min_similarity must be between 0 and 1"))
	}

	if t.BudgetFraction <= 0 || t.BudgetFraction > 1 {
		errs = append(errs, fmt.Errorf("budget_fraction must be in (0, 1]"))
	}

	return errors.Join(errs...)
}

func (e *EnsembleConfig) Validate() error {
	var errs []error

	for _, m := range e.Members {
		if !strategy.Type(m).IsValid() {
			errs = append(errs, fmt.Errorf("invalid ensemble member: %s", m))
			continue
		}
		if strategy.Type(m) == strategy.TypeEnsemble {
			errs = append(errs, fmt.Errorf("ensemble cannot contain itself as a member"))
		}
	}

	if e.JoinTimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("join_timeout_sec must be non-negative"))
	}

	return errors.Join(errs...)
}

func (w *WeightsConfig) Validate() error {
	if w.Alpha <= 0 || w.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1], got %g", w.Alpha)
	}
	return nil
}

func (e *EvaluatorConfig) Validate() error {
	var errs []error

	for name, t := range e.Tools {
		if len(t.Argv) == 0 {
			errs = append(errs, fmt.Errorf("tool %s has an empty command", name))
		}
	}

	if e.SampleEveryMS < 0 {
		errs = append(errs, fmt.Errorf("sample_every_ms must be non-negative"))
	}

	return errors.Join(errs...)
}
