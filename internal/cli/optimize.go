package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/striep/edatune/internal/evaluator"
	"github.com/striep/edatune/internal/learning"
	"github.com/striep/edatune/internal/param"
	"github.com/striep/edatune/internal/tune"
	"github.com/striep/edatune/internal/tune/strategy"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search a parameter space for a target-hitting configuration",
	Long: `Run an optimization: evaluate tool configurations from the parameter
space until the target metrics are reached or the budget runs out.

The tool command comes from the evaluator section of the config file;
the parameter space from a YAML file.

Examples:
  edatune optimize --space space.yaml --tool synth --target execution_time=30
  edatune optimize --space space.yaml --tool synth --project cpu_core \
    --context chip_type=asic --context node_nm=28 \
    --strategy transfer_learning --target quality_score=0.95
  edatune optimize --space space.yaml --tool pnr --strategy ensemble \
    --param effort=0.5 --target wirelength=120000 --max-iterations 40`,
	RunE: runOptimize,
}

var (
	optSpace         string
	optTool          string
	optProject       string
	optStrategy      string
	optParams        []string
	optTargets       []string
	optContext       []string
	optMaxIterations int
	optTimeout       int
	optSeed          int64
)

func init() {
	optimizeCmd.Flags().StringVar(&optSpace, "space", "", "parameter space YAML file (required)")
	optimizeCmd.Flags().StringVar(&optTool, "tool", "", "tool name from the evaluator config (required)")
	optimizeCmd.Flags().StringVar(&optProject, "project", "", "project id for archiving and transfer learning")
	optimizeCmd.Flags().StringVar(&optStrategy, "strategy", "", "strategy: bayesian, transfer_learning, ensemble, random_search")
	optimizeCmd.Flags().StringArrayVar(&optParams, "param", nil, "initial configuration value as name=value")
	optimizeCmd.Flags().StringArrayVar(&optTargets, "target", nil, "target metric as name=value (required)")
	optimizeCmd.Flags().StringArrayVar(&optContext, "context", nil, "project attribute as name=value, used for similarity search")
	optimizeCmd.Flags().IntVar(&optMaxIterations, "max-iterations", 0, "evaluation budget (default from config)")
	optimizeCmd.Flags().IntVar(&optTimeout, "timeout", 0, "per-evaluation timeout in seconds")
	optimizeCmd.Flags().Int64Var(&optSeed, "seed", 0, "random seed, 0 derives one from the clock")

	optimizeCmd.MarkFlagRequired("space")
	optimizeCmd.MarkFlagRequired("tool")
	optimizeCmd.MarkFlagRequired("target")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flag overrides
	if cmd.Flags().Changed("max-iterations") {
		cfg.Optimizer.MaxIterations = optMaxIterations
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Optimizer.EvalTimeoutSec = optTimeout
	}
	if cmd.Flags().Changed("seed") {
		cfg.Optimizer.Seed = optSeed
	}

	log := newLogger(cfg)

	space, err := param.LoadFile(optSpace)
	if err != nil {
		return err
	}

	target, err := parseMetrics(optTargets)
	if err != nil {
		return err
	}
	initialValues, err := parseValues(optParams)
	if err != nil {
		return err
	}
	projectCtx, err := parseValues(optContext)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("opening project store: %w", err)
	}
	defer store.Close()

	ev, err := evaluator.NewCommand(cfg.EvaluatorConfig(), log)
	if err != nil {
		return fmt.Errorf("configuring evaluator: %w", err)
	}

	ledger := learning.NewLedger(cfg.Weights.Alpha)
	if err := loadLedger(cfg, ledger); err != nil {
		return err
	}

	factory := strategy.NewFactory(cfg.StrategyConfig(), store, ev, ledger, nil, log)
	tuner, err := tune.NewTuner(factory, store, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := &tune.Request{
		Tool:          optTool,
		ProjectID:     optProject,
		Space:         space,
		Initial:       param.Configuration(initialValues),
		Target:        target,
		Context:       projectCtx,
		Strategy:      optStrategy,
		MaxIterations: cfg.Optimizer.MaxIterations,
		EvalTimeout:   cfg.EvalTimeout(),
	}

	if !jsonOut {
		step("optimizing %s over %d parameters, budget %d evaluations\n",
			optTool, space.Len(), req.MaxIterations)
	}

	res, err := tuner.Optimize(ctx, req)
	if err != nil {
		return err
	}

	if err := saveLedger(cfg, ledger); err != nil {
		log.Warn("failed to save strategy weights", "error", err)
	}

	if jsonOut {
		return printJSON(res)
	}
	printResult(res)
	return nil
}

func printResult(res *tune.Result) {
	fmt.Println()
	switch res.TerminalReason {
	case tune.ReasonConverged:
		success("converged after %d iterations\n", res.IterationsUsed)
	case tune.ReasonBudgetExhausted:
		warning("budget exhausted after %d iterations\n", res.IterationsUsed)
	default:
		fail("run failed after %d iterations\n", res.IterationsUsed)
	}

	plain("Strategy: %s\n", res.Strategy)
	plain("Trials:   %d\n", len(res.Trials))

	if res.BestConfig != nil {
		plain("Best objective: %.6g\n", res.BestObjective)
		plain("Best configuration:\n")
		printSorted(res.BestConfig)
	}
	if len(res.AchievedMetrics) > 0 {
		plain("Achieved metrics:\n")
		m := make(map[string]any, len(res.AchievedMetrics))
		for k, v := range res.AchievedMetrics {
			m[k] = v
		}
		printSorted(m)
	}

	if len(res.Breakdown) > 0 {
		plain("Strategy breakdown:\n")
		for _, b := range res.Breakdown {
			plain("  %-18s objective=%-10.6g weight=%-7.3f %s\n", b.Strategy, b.Objective, b.Weight, b.Note)
		}
	}
	if len(res.SeedSources) > 0 {
		plain("Seeded from:\n")
		for _, s := range res.SeedSources {
			plain("  %-18s similarity=%.2f weight=%.2f\n", s.ProjectID, s.Similarity, s.Weight)
		}
	}
	for _, n := range res.Notes {
		plain("note: %s\n", n)
	}
}

func printSorted(m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		plain("  %s: %v\n", k, m[k])
	}
}
