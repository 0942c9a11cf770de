package config

import (
	"strings"
	"testing"
)

func TestValidateDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"info", "text", false},
		{"debug", "json", false},
		{"verbose", "text", true},
		{"info", "xml", true},
		{"", "", true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Logging.Level = tt.level
		cfg.Logging.Format = tt.format
		err := cfg.Logging.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("level %q format %q: wantErr=%v, got %v", tt.level, tt.format, tt.wantErr, err)
		}
	}
}

func TestValidateStore(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*StoreConfig)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(s *StoreConfig) {},
			wantErr: false,
		},
		{
			name: "unknown backend",
			modify: func(s *StoreConfig) {
				s.Backend = "mongodb"
			},
			wantErr: true,
		},
		{
			name: "file backend without data dir",
			modify: func(s *StoreConfig) {
				s.Backend = "file"
				s.DataDir = ""
			},
			wantErr: true,
		},
		{
			name: "redis backend without addr",
			modify: func(s *StoreConfig) {
				s.Backend = "redis"
				s.Redis.Addr = ""
			},
			wantErr: true,
		},
		{
			name: "redis backend with addr",
			modify: func(s *StoreConfig) {
				s.Backend = "redis"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Store)
			err := cfg.Store.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateOptimizer(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*OptimizerConfig)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(o *OptimizerConfig) {},
			wantErr: false,
		},
		{
			name: "unknown strategy",
			modify: func(o *OptimizerConfig) {
				o.Strategy = "quantum"
			},
			wantErr: true,
		},
		{
			name: "zero budget",
			modify: func(o *OptimizerConfig) {
				o.MaxIterations = 0
			},
			wantErr: true,
		},
		{
			name: "single fit trial",
			modify: func(o *OptimizerConfig) {
				o.MinFitTrials = 1
			},
			wantErr: true,
		},
		{
			name: "negative tolerance",
			modify: func(o *OptimizerConfig) {
				o.Tolerance = -0.1
			},
			wantErr: true,
		},
		{
			name: "zero tolerance is exact match",
			modify: func(o *OptimizerConfig) {
				o.Tolerance = 0
			},
			wantErr: false,
		},
		{
			name: "unknown acquisition",
			modify: func(o *OptimizerConfig) {
				o.Acquisition.Type = "thompson"
			},
			wantErr: true,
		},
		{
			name: "zero candidates",
			modify: func(o *OptimizerConfig) {
				o.Acquisition.Candidates = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Optimizer)
			err := cfg.Optimizer.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSurrogate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SurrogateConfig)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(s *SurrogateConfig) {},
			wantErr: false,
		},
		{
			name: "matern52 kernel",
			modify: func(s *SurrogateConfig) {
				s.Kernel = "matern52"
			},
			wantErr: false,
		},
		{
			name: "unknown kernel",
			modify: func(s *SurrogateConfig) {
				s.Kernel = "periodic"
			},
			wantErr: true,
		},
		{
			name: "zero noise",
			modify: func(s *SurrogateConfig) {
				s.Noise = 0
			},
			wantErr: true,
		},
		{
			name: "negative length scale",
			modify: func(s *SurrogateConfig) {
				s.LengthScale = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Surrogate)
			err := cfg.Surrogate.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateTransfer(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*TransferConfig)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(tc *TransferConfig) {},
			wantErr: false,
		},
		{
			name: "zero sources",
			modify: func(tc *TransferConfig) {
				tc.MaxSources = 0
			},
			wantErr: true,
		},
		{
			name: "similarity above one",
			modify: func(tc *TransferConfig) {
				tc.MinSimilarity = 1.5
			},
			wantErr: true,
		},
		{
			name: "zero budget fraction",
			modify: func(tc *TransferConfig) {
				tc.BudgetFraction = 0
			},
			wantErr: true,
		},
		{
			name: "full budget fraction",
			modify: func(tc *TransferConfig) {
				tc.BudgetFraction = 1
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Transfer)
			err := cfg.Transfer.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateEnsemble(t *testing.T) {
	cfg := Default()
	cfg.Ensemble.Members = []string{"bayesian", "ensemble"}
	err := cfg.Ensemble.Validate()
	if err == nil {
		t.Fatal("expected an error for a self-nested ensemble")
	}
	if !strings.Contains(err.Error(), "itself") {
		t.Errorf("unexpected error: %v", err)
	}

	cfg = Default()
	cfg.Ensemble.Members = []string{"bayesian", "grid_search"}
	if err := cfg.Ensemble.Validate(); err == nil {
		t.Error("expected an error for an unknown member")
	}

	cfg = Default()
	cfg.Ensemble.Members = nil
	if err := cfg.Ensemble.Validate(); err != nil {
		t.Errorf("empty members should fall back to defaults: %v", err)
	}
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		alpha   float64
		wantErr bool
	}{
		{0.3, false},
		{1.0, false},
		{0, true},
		{-0.1, true},
		{1.1, true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Weights.Alpha = tt.alpha
		err := cfg.Weights.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("alpha %g: wantErr=%v, got %v", tt.alpha, tt.wantErr, err)
		}
	}
}

func TestValidateEvaluator(t *testing.T) {
	cfg := Default()
	cfg.Evaluator.Tools = map[string]ToolConfig{
		"synth": {},
	}
	if err := cfg.Evaluator.Validate(); err == nil {
		t.Error("expected an error for a tool without a command")
	}

	cfg = Default()
	cfg.Evaluator.Tools = map[string]ToolConfig{
		"synth": {Argv: []string{"./synth"}},
	}
	if err := cfg.Evaluator.Validate(); err != nil {
		t.Errorf("expected a valid evaluator config: %v", err)
	}
}

func TestValidateJoinsAllSections(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	cfg.Optimizer.MaxIterations = 0
	cfg.Weights.Alpha = 2

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{"logging", "optimizer", "weights"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %s in the joined error, got %v", want, err)
		}
	}
}
