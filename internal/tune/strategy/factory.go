package strategy

import (
	"fmt"
	"log/slog"

	"github.com/striep/edatune/internal/learning"
	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/projectdb"
	"github.com/striep/edatune/internal/tune"
)

// Config holds strategy factory configuration.
type Config struct {
	// Default strategy used when a request names none.
	Default Type

	Bayesian BayesianConfig
	Transfer TransferConfig
	Ensemble EnsembleConfig
	Random   RandomConfig
}

// DefaultConfig returns default factory configuration.
func DefaultConfig() Config {
	return Config{
		Default:  TypeBayesian,
		Bayesian: DefaultBayesianConfig(),
		Transfer: DefaultTransferConfig(),
		Ensemble: DefaultEnsembleConfig(),
		Random:   DefaultRandomConfig(),
	}
}

// Factory creates optimization strategies wired to shared
// collaborators. It implements the tuner's strategy resolver.
type Factory struct {
	cfg       Config
	store     projectdb.Store
	evaluator tune.Evaluator
	ledger    *learning.Ledger
	agg       objective.Aggregator
	logger    *slog.Logger
}

// NewFactory creates a strategy factory.
func NewFactory(cfg Config, store projectdb.Store, ev tune.Evaluator, ledger *learning.Ledger, agg objective.Aggregator, logger *slog.Logger) *Factory {
	if cfg.Default == "" {
		cfg.Default = TypeBayesian
	}
	if agg == nil {
		agg = objective.NewWeightedDistance(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		cfg:       cfg,
		store:     store,
		evaluator: ev,
		ledger:    ledger,
		agg:       agg,
		logger:    logger,
	}
}

// Resolve maps a strategy name to an implementation; an empty name
// selects the configured default.
func (f *Factory) Resolve(name string) (tune.Strategy, error) {
	if name == "" {
		return f.CreateByType(f.cfg.Default)
	}
	return f.CreateByType(Type(name))
}

// CreateByType creates a strategy of the specified type.
func (f *Factory) CreateByType(t Type) (tune.Strategy, error) {
	switch t {
	case TypeBayesian:
		return NewBayesian(f.cfg.Bayesian, f.evaluator, f.agg, f.logger)

	case TypeTransfer:
		return NewTransfer(f.cfg.Transfer, f.store, f.evaluator, f.agg, f.logger)

	case TypeRandomSearch:
		return NewRandomSearch(f.cfg.Random, f.evaluator, f.agg, f.logger)

	case TypeEnsemble:
		return f.createEnsemble()

	default:
		return nil, fmt.Errorf("unknown strategy type: %s", t)
	}
}

// createEnsemble builds the ensemble with its member strategies. An
// ensemble nested in itself is rejected.
func (f *Factory) createEnsemble() (tune.Strategy, error) {
	memberTypes := f.cfg.Ensemble.Members
	if len(memberTypes) == 0 {
		memberTypes = DefaultEnsembleConfig().Members
	}
	members := make([]tune.Strategy, 0, len(memberTypes))
	for _, mt := range memberTypes {
		if mt == TypeEnsemble {
			return nil, fmt.Errorf("ensemble cannot contain itself as a member")
		}
		m, err := f.CreateByType(mt)
		if err != nil {
			return nil, fmt.Errorf("creating ensemble member %s: %w", mt, err)
		}
		members = append(members, m)
	}
	return NewEnsemble(f.cfg.Ensemble, members, f.ledger, f.evaluator, f.agg, f.logger)
}
