package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/striep/edatune/internal/config"
	"github.com/striep/edatune/internal/learning"
	"github.com/striep/edatune/internal/logger"
	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/projectdb"
)

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logger.New(level, cfg.Logging.Format)
}

// openStore opens the configured project database backend. The memory
// backend starts empty on every invocation; configure the file or redis
// backend to keep history across runs.
func openStore(cfg *config.Config, log *slog.Logger) (projectdb.Store, error) {
	switch cfg.Store.Backend {
	case "file":
		return projectdb.OpenFile(cfg.Store.DataDir, log)
	case "redis":
		s, err := projectdb.NewRedis(projectdb.RedisConfig{
			Addr:      cfg.Store.Redis.Addr,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			Namespace: cfg.Store.Redis.Namespace,
		})
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
		return s, nil
	default:
		return projectdb.NewMemory(), nil
	}
}

// loadLedger restores persisted strategy weights into the ledger. A
// missing weights file is not an error.
func loadLedger(cfg *config.Config, ledger *learning.Ledger) error {
	if cfg.Weights.Path == "" {
		return nil
	}
	f, err := os.Open(cfg.Weights.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening weights file: %w", err)
	}
	defer f.Close()
	if err := ledger.Load(f); err != nil {
		return fmt.Errorf("loading weights from %s: %w", cfg.Weights.Path, err)
	}
	return nil
}

func saveLedger(cfg *config.Config, ledger *learning.Ledger) error {
	if cfg.Weights.Path == "" {
		return nil
	}
	f, err := os.Create(cfg.Weights.Path)
	if err != nil {
		return fmt.Errorf("creating weights file: %w", err)
	}
	if err := ledger.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseValues parses key=value pairs into typed values: true/false
// become bool, integers int64, decimals float64, everything else stays
// a string.
func parseValues(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[k] = parseValue(v)
	}
	return out, nil
}

func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseMetrics parses metric=value pairs; values must be numbers.
func parseMetrics(pairs []string) (objective.Metrics, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(objective.Metrics, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected metric=value, got %q", p)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("metric %s needs a numeric value, got %q", k, v)
		}
		out[k] = f
	}
	return out, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
