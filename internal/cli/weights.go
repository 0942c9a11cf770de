package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/striep/edatune/internal/learning"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect ensemble strategy weights",
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the learned reliability weight of each strategy",
	RunE:  runWeightsShow,
}

var weightsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all strategy weights to neutral",
	RunE:  runWeightsReset,
}

func init() {
	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsResetCmd)
	rootCmd.AddCommand(weightsCmd)
}

func runWeightsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ledger := learning.NewLedger(cfg.Weights.Alpha)
	if err := loadLedger(cfg, ledger); err != nil {
		return err
	}

	snapshot := ledger.Snapshot()
	if jsonOut {
		return printJSON(snapshot)
	}

	plain("Version: %d\n", snapshot.Version)
	if len(snapshot.Weights) == 0 {
		plain("No strategy history yet; every strategy starts at weight 1.0.\n")
		return nil
	}

	names := make([]string, 0, len(snapshot.Weights))
	for name := range snapshot.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		plain("  %-20s %.4f\n", name, snapshot.Weights[name])
	}
	return nil
}

func runWeightsReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Weights.Path == "" {
		return fmt.Errorf("weights.path is not configured, nothing to reset")
	}

	if err := os.Remove(cfg.Weights.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing weights file: %w", err)
	}

	success("strategy weights reset\n")
	return nil
}
