package strategy

import (
	"math"

	"github.com/striep/edatune/internal/param"
)

// weightedConfig pairs a configuration with its blending weight.
type weightedConfig struct {
	config param.Configuration
	weight float64
}

// blendConfigs merges configurations into one: weighted mean for
// continuous and integer parameters, weighted vote for categorical and
// boolean ones. A source missing a parameter, or carrying a value
// outside the current domain, does not vote for it; a parameter nobody
// votes for falls back to the caller's value or the center of its
// range.
func blendConfigs(space *param.Space, sources []weightedConfig, fallback param.Configuration) param.Configuration {
	merged := make(param.Configuration, space.Len())
	for _, sp := range space.Specs() {
		if v, ok := blendParam(sp, sources); ok {
			merged[sp.Name] = v
			continue
		}
		if fallback != nil {
			if v, ok := fallback[sp.Name]; ok {
				merged[sp.Name] = v
				continue
			}
		}
		merged[sp.Name] = centerValue(sp)
	}
	return merged
}

func blendParam(sp param.Spec, sources []weightedConfig) (any, bool) {
	switch sp.Kind {
	case param.KindContinuous, param.KindInteger:
		sum, wsum := 0.0, 0.0
		for _, src := range sources {
			v, ok := numericValue(src.config[sp.Name])
			if !ok {
				continue
			}
			// Sources recorded against wider bounds are clipped in.
			v = math.Min(math.Max(v, sp.Min), sp.Max)
			sum += src.weight * v
			wsum += src.weight
		}
		if wsum <= 0 {
			return nil, false
		}
		mean := sum / wsum
		if sp.Kind == param.KindInteger {
			return int64(math.Round(mean)), true
		}
		return mean, true

	case param.KindBoolean:
		var yes, no float64
		voted := false
		for _, src := range sources {
			b, ok := src.config[sp.Name].(bool)
			if !ok {
				continue
			}
			voted = true
			if b {
				yes += src.weight
			} else {
				no += src.weight
			}
		}
		if !voted {
			return nil, false
		}
		return yes > no, true

	case param.KindCategorical:
		votes := make(map[string]float64)
		for _, src := range sources {
			v, ok := src.config[sp.Name].(string)
			if !ok || !allowedValue(sp, v) {
				continue
			}
			votes[v] += src.weight
		}
		if len(votes) == 0 {
			return nil, false
		}
		// Walking the declared values keeps ties deterministic.
		winner, top := "", math.Inf(-1)
		for _, val := range sp.Values {
			if w, ok := votes[val]; ok && w > top {
				winner, top = val, w
			}
		}
		return winner, true
	}
	return nil, false
}

func allowedValue(sp param.Spec, v string) bool {
	for _, val := range sp.Values {
		if val == v {
			return true
		}
	}
	return false
}

// centerValue is the midpoint fallback for a parameter nobody voted on.
func centerValue(sp param.Spec) any {
	switch sp.Kind {
	case param.KindContinuous:
		return (sp.Min + sp.Max) / 2
	case param.KindInteger:
		return int64(math.Round((sp.Min + sp.Max) / 2))
	case param.KindBoolean:
		return false
	case param.KindCategorical:
		return sp.Values[len(sp.Values)/2]
	}
	return nil
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
