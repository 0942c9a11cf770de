package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/striep/edatune/internal/learning"
	"github.com/striep/edatune/internal/projectdb"
	"github.com/striep/edatune/internal/tune"
	"github.com/striep/edatune/internal/tune/strategy"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage the project database",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived projects",
	RunE:  runProjectsList,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show one archived project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsShow,
}

var projectsRegisterCmd = &cobra.Command{
	Use:   "register <record.json>",
	Short: "Register a project record from a JSON file",
	Long: `Register a completed tuning outcome so later runs can seed from it.
The file holds one project record: id, tool, context attributes and the
best known configuration. An existing record with the same id is
replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsRegister,
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsRegisterCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	if jsonOut {
		return printJSON(records)
	}

	if len(records) == 0 {
		plain("No projects recorded yet.\n")
		return nil
	}

	plain("%-24s %-12s %-12s %s\n", "PROJECT", "TOOL", "OBJECTIVE", "UPDATED")
	for _, r := range records {
		plain("%-24s %-12s %-12.4g %s\n", r.ID, r.Tool, r.BestObjective, r.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runProjectsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(context.Background(), args[0])
	if err != nil {
		if projectdb.IsNotFound(err) {
			return fmt.Errorf("project not found: %s", args[0])
		}
		return err
	}

	if jsonOut {
		return printJSON(rec)
	}

	plain("Project: %s\n", rec.ID)
	plain("Tool:    %s\n", rec.Tool)
	plain("Updated: %s\n", rec.UpdatedAt.Format(time.RFC3339))
	if len(rec.Context) > 0 {
		plain("Context:\n")
		printSorted(rec.Context)
	}
	if rec.Best != nil {
		plain("Best objective: %.6g\n", rec.BestObjective)
		plain("Best configuration:\n")
		printSorted(rec.Best)
	}
	if len(rec.Trials) > 0 {
		plain("Archived trials: %d\n", len(rec.Trials))
	}
	return nil
}

func runProjectsRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading record file: %w", err)
	}
	var rec projectdb.ProjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parsing record file: %w", err)
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	factory := strategy.NewFactory(cfg.StrategyConfig(), store, nil, learning.NewLedger(cfg.Weights.Alpha), nil, log)
	tuner, err := tune.NewTuner(factory, store, log)
	if err != nil {
		return err
	}

	if err := tuner.RegisterProject(context.Background(), &rec); err != nil {
		return err
	}

	success("registered project %s for tool %s\n", rec.ID, rec.Tool)
	return nil
}
