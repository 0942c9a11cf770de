package evaluator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/param"
)

const defaultSampleEvery = 100 * time.Millisecond

// ToolCommand describes how to invoke one external tool.
type ToolCommand struct {
	// Argv is the command template. ${name} placeholders are replaced
	// with the configuration value of that parameter.
	Argv []string `yaml:"argv"`

	// WorkDir is the working directory; empty inherits the caller's.
	WorkDir string `yaml:"work_dir"`

	// Env lists extra KEY=VALUE entries appended to the environment.
	Env []string `yaml:"env"`
}

// Config holds command evaluator configuration.
type Config struct {
	// Tools maps a tool name to its command template.
	Tools map[string]ToolCommand `yaml:"tools"`

	// SampleEvery is the resource sampling interval for the child
	// process.
	SampleEvery time.Duration `yaml:"sample_every"`

	// ParseStdout merges JSON object lines printed by the tool into
	// the reported metrics.
	ParseStdout bool `yaml:"parse_stdout"`
}

// Command evaluates configurations by running the real tool binary.
// Every run reports execution_time; peak_memory_mb and cpu_time are
// sampled from the child process, and tools can publish their own
// metrics as a JSON object line on stdout.
type Command struct {
	cfg    Config
	logger *slog.Logger
}

// NewCommand creates a command evaluator.
func NewCommand(cfg Config, logger *slog.Logger) (*Command, error) {
	if len(cfg.Tools) == 0 {
		return nil, fmt.Errorf("command evaluator needs at least one tool")
	}
	for name, tc := range cfg.Tools {
		if len(tc.Argv) == 0 {
			return nil, fmt.Errorf("tool %s has an empty command", name)
		}
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = defaultSampleEvery
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Command{cfg: cfg, logger: logger}, nil
}

// Evaluate runs the tool with the configuration substituted into its
// argv template and returns the measured metrics.
func (c *Command) Evaluate(ctx context.Context, tool string, cfg param.Configuration) (objective.Metrics, error) {
	tc, ok := c.cfg.Tools[tool]
	if !ok {
		return nil, fmt.Errorf("no command registered for tool %q", tool)
	}
	argv, err := renderArgv(tc.Argv, cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering command for %s: %w", tool, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = tc.WorkDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(tc.Env) > 0 {
		cmd.Env = append(os.Environ(), tc.Env...)
	}

	c.logger.Debug("running tool", "tool", tool, "argv", argv)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", tool, err)
	}

	done := make(chan struct{})
	usagec := sampleUsage(done, int32(cmd.Process.Pid), c.cfg.SampleEvery)

	err = cmd.Wait()
	elapsed := time.Since(start)
	close(done)
	u := <-usagec

	if err != nil {
		// The context kill surfaces as a plain exit error, so the
		// context has to be consulted to report the timeout.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("running %s: %w", tool, ctxErr)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.TrimSpace(stdout.String())
			}
			if msg != "" {
				return nil, fmt.Errorf("%s exited with code %d: %s", tool, exitErr.ExitCode(), msg)
			}
			return nil, fmt.Errorf("%s exited with code %d", tool, exitErr.ExitCode())
		}
		return nil, fmt.Errorf("running %s: %w", tool, err)
	}

	metrics := objective.Metrics{"execution_time": elapsed.Seconds()}
	if u.peakRSS > 0 {
		metrics["peak_memory_mb"] = float64(u.peakRSS) / (1 << 20)
	}
	if u.cpuSecs > 0 {
		metrics["cpu_time"] = u.cpuSecs
	}
	if c.cfg.ParseStdout {
		mergeStdoutMetrics(metrics, stdout.Bytes())
	}
	return metrics, nil
}

type usage struct {
	peakRSS uint64
	cpuSecs float64
}

// sampleUsage polls the child process until done is closed and delivers
// the collected usage on the returned channel. Sampling errors are
// ignored: a short-lived process simply reports less.
func sampleUsage(done <-chan struct{}, pid int32, every time.Duration) <-chan usage {
	out := make(chan usage, 1)
	go func() {
		var u usage
		p, err := process.NewProcess(pid)
		if err != nil {
			out <- u
			return
		}
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			if mi, err := p.MemoryInfo(); err == nil && mi.RSS > u.peakRSS {
				u.peakRSS = mi.RSS
			}
			if ts, err := p.Times(); err == nil {
				u.cpuSecs = ts.User + ts.System
			}
			select {
			case <-done:
				out <- u
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}

// renderArgv substitutes ${name} placeholders with configuration
// values. Referencing a parameter the configuration does not carry is
// an error so template typos fail loudly.
func renderArgv(argv []string, cfg param.Configuration) ([]string, error) {
	out := make([]string, len(argv))
	var missing []string
	for i, a := range argv {
		out[i] = os.Expand(a, func(name string) string {
			v, ok := cfg[name]
			if !ok {
				missing = append(missing, name)
				return ""
			}
			return formatValue(v)
		})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("argv template references unknown parameters: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// mergeStdoutMetrics folds numeric values from JSON object lines on
// stdout into the metrics. Later lines win on key collisions.
func mergeStdoutMetrics(m objective.Metrics, out []byte) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var vals map[string]any
		if err := json.Unmarshal([]byte(line), &vals); err != nil {
			continue
		}
		for k, v := range vals {
			if f, ok := v.(float64); ok {
				m[k] = f
			}
		}
	}
}
