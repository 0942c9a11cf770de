package param

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the value domain of a parameter.
type Kind string

const (
	KindContinuous  Kind = "continuous"
	KindInteger     Kind = "integer"
	KindCategorical Kind = "categorical"
	KindBoolean     Kind = "boolean"
)

// IsValid checks if the kind is valid.
func (k Kind) IsValid() bool {
	switch k {
	case KindContinuous, KindInteger, KindCategorical, KindBoolean:
		return true
	}
	return false
}

// String returns string representation.
func (k Kind) String() string {
	return string(k)
}

// Encoding selects how a categorical parameter maps onto unit-cube dimensions.
// It is fixed when the space is constructed.
type Encoding string

const (
	// EncodingOrdinal - one dimension, category index scaled into [0,1].
	EncodingOrdinal Encoding = "ordinal"
	// EncodingOneHot - one dimension per category, argmax on the way back.
	EncodingOneHot Encoding = "one_hot"
)

// IsValid checks if the encoding is valid.
func (e Encoding) IsValid() bool {
	switch e {
	case EncodingOrdinal, EncodingOneHot:
		return true
	}
	return false
}

// Spec describes a single tunable parameter.
type Spec struct {
	Name     string   `yaml:"name" json:"name"`
	Kind     Kind     `yaml:"kind" json:"kind"`
	Min      float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max      float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Values   []string `yaml:"values,omitempty" json:"values,omitempty"`
	Encoding Encoding `yaml:"encoding,omitempty" json:"encoding,omitempty"`
}

// dims returns how many unit-cube dimensions this parameter occupies.
func (s *Spec) dims() int {
	if s.Kind == KindCategorical && s.Encoding == EncodingOneHot {
		return len(s.Values)
	}
	return 1
}

func (s *Spec) span() float64 {
	return s.Max - s.Min
}

func (s *Spec) valueIndex(v string) int {
	for i, val := range s.Values {
		if val == v {
			return i
		}
	}
	return -1
}

// Configuration is one concrete assignment of values to all parameters
// in a space. Canonical value types are float64, int64, string and bool.
type Configuration map[string]any

// Clone returns a shallow copy of the configuration.
func (c Configuration) Clone() Configuration {
	out := make(Configuration, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Space is an immutable, ordered set of parameter specs. It maps
// configurations to points in the unit cube [0,1]^d and back.
type Space struct {
	specs []Spec
	index map[string]int
	dim   int
}

// NewSpace validates the specs and builds a space. The spec order is
// preserved and defines the dimension layout.
func NewSpace(specs []Spec) (*Space, error) {
	if len(specs) == 0 {
		return nil, &InvalidParameterError{Reason: "space has no parameters"}
	}
	s := &Space{
		specs: make([]Spec, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	copy(s.specs, specs)
	for i := range s.specs {
		sp := &s.specs[i]
		if sp.Name == "" {
			return nil, &InvalidParameterError{Reason: "parameter name is empty"}
		}
		if _, dup := s.index[sp.Name]; dup {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: "duplicate parameter name"}
		}
		if !sp.Kind.IsValid() {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("unknown kind %q", sp.Kind)}
		}
		switch sp.Kind {
		case KindContinuous, KindInteger:
			if sp.Max < sp.Min {
				return nil, &InvalidParameterError{Name: sp.Name, Reason: "max is below min"}
			}
			if sp.Kind == KindInteger && (math.Trunc(sp.Min) != sp.Min || math.Trunc(sp.Max) != sp.Max) {
				return nil, &InvalidParameterError{Name: sp.Name, Reason: "integer bounds must be whole numbers"}
			}
		case KindCategorical:
			if len(sp.Values) == 0 {
				return nil, &InvalidParameterError{Name: sp.Name, Reason: "categorical parameter has no values"}
			}
			seen := make(map[string]bool, len(sp.Values))
			for _, v := range sp.Values {
				if seen[v] {
					return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("duplicate value %q", v)}
				}
				seen[v] = true
			}
			if sp.Encoding == "" {
				sp.Encoding = EncodingOrdinal
			}
			if !sp.Encoding.IsValid() {
				return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("unknown encoding %q", sp.Encoding)}
			}
		}
		s.index[sp.Name] = i
		s.dim += sp.dims()
	}
	return s, nil
}

// Dim returns the number of unit-cube dimensions.
func (s *Space) Dim() int {
	return s.dim
}

// Len returns the number of parameters.
func (s *Space) Len() int {
	return len(s.specs)
}

// Specs returns a copy of the parameter specs in order.
func (s *Space) Specs() []Spec {
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Spec returns the spec for a parameter name.
func (s *Space) Spec(name string) (Spec, bool) {
	i, ok := s.index[name]
	if !ok {
		return Spec{}, false
	}
	return s.specs[i], true
}

// Canonicalize validates a configuration against the space and coerces
// every value to its canonical type. All parameters must be present,
// no extras are allowed, and numeric values must be inside bounds.
func (s *Space) Canonicalize(cfg Configuration) (Configuration, error) {
	if cfg == nil {
		return nil, &InvalidParameterError{Reason: "configuration is nil"}
	}
	for name := range cfg {
		if _, ok := s.index[name]; !ok {
			return nil, &InvalidParameterError{Name: name, Reason: "not in parameter space"}
		}
	}
	out := make(Configuration, len(s.specs))
	for i := range s.specs {
		sp := &s.specs[i]
		raw, ok := cfg[sp.Name]
		if !ok {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: "missing value"}
		}
		v, err := canonicalValue(sp, raw)
		if err != nil {
			return nil, err
		}
		out[sp.Name] = v
	}
	return out, nil
}

func canonicalValue(sp *Spec, raw any) (any, error) {
	switch sp.Kind {
	case KindContinuous:
		f, ok := toFloat(raw)
		if !ok {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("expected number, got %T", raw)}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: "value is not finite"}
		}
		if f < sp.Min || f > sp.Max {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("value %v outside [%v, %v]", f, sp.Min, sp.Max)}
		}
		return f, nil
	case KindInteger:
		f, ok := toFloat(raw)
		if !ok || math.Trunc(f) != f {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("expected integer, got %v", raw)}
		}
		if f < sp.Min || f > sp.Max {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("value %v outside [%v, %v]", f, sp.Min, sp.Max)}
		}
		return int64(f), nil
	case KindCategorical:
		str, ok := raw.(string)
		if !ok {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("expected string, got %T", raw)}
		}
		if sp.valueIndex(str) < 0 {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("value %q not in %v", str, sp.Values)}
		}
		return str, nil
	case KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("expected bool, got %T", raw)}
		}
		return b, nil
	}
	return nil, &InvalidParameterError{Name: sp.Name, Reason: fmt.Sprintf("unknown kind %q", sp.Kind)}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// Normalize maps a configuration to a point in [0,1]^d. The configuration
// is canonicalized first, so invalid values are rejected.
func (s *Space) Normalize(cfg Configuration) ([]float64, error) {
	canon, err := s.Canonicalize(cfg)
	if err != nil {
		return nil, err
	}
	vec := make([]float64, 0, s.dim)
	for i := range s.specs {
		sp := &s.specs[i]
		v := canon[sp.Name]
		switch sp.Kind {
		case KindContinuous:
			vec = append(vec, normalizeLinear(v.(float64), sp))
		case KindInteger:
			vec = append(vec, normalizeLinear(float64(v.(int64)), sp))
		case KindBoolean:
			if v.(bool) {
				vec = append(vec, 1)
			} else {
				vec = append(vec, 0)
			}
		case KindCategorical:
			idx := sp.valueIndex(v.(string))
			if sp.Encoding == EncodingOneHot {
				for j := range sp.Values {
					if j == idx {
						vec = append(vec, 1)
					} else {
						vec = append(vec, 0)
					}
				}
			} else {
				if len(sp.Values) == 1 {
					vec = append(vec, 0)
				} else {
					vec = append(vec, float64(idx)/float64(len(sp.Values)-1))
				}
			}
		}
	}
	return vec, nil
}

func normalizeLinear(v float64, sp *Spec) float64 {
	if sp.span() == 0 {
		return 0
	}
	return (v - sp.Min) / sp.span()
}

// Denormalize maps a unit-cube point back to a configuration. Components
// are clipped to [0,1] and discrete parameters are rounded, so the result
// is always a valid configuration. Applying Normalize to the result gives
// back the same point up to discretization.
func (s *Space) Denormalize(vec []float64) (Configuration, error) {
	if len(vec) != s.dim {
		return nil, fmt.Errorf("vector has %d dimensions, space has %d", len(vec), s.dim)
	}
	cfg := make(Configuration, len(s.specs))
	pos := 0
	for i := range s.specs {
		sp := &s.specs[i]
		switch sp.Kind {
		case KindContinuous:
			cfg[sp.Name] = sp.Min + clipUnit(vec[pos])*sp.span()
			pos++
		case KindInteger:
			cfg[sp.Name] = int64(math.Round(sp.Min + clipUnit(vec[pos])*sp.span()))
			pos++
		case KindBoolean:
			cfg[sp.Name] = clipUnit(vec[pos]) >= 0.5
			pos++
		case KindCategorical:
			if sp.Encoding == EncodingOneHot {
				best := 0
				for j := 1; j < len(sp.Values); j++ {
					if vec[pos+j] > vec[pos+best] {
						best = j
					}
				}
				cfg[sp.Name] = sp.Values[best]
				pos += len(sp.Values)
			} else {
				idx := int(math.Round(clipUnit(vec[pos]) * float64(len(sp.Values)-1)))
				cfg[sp.Name] = sp.Values[idx]
				pos++
			}
		}
	}
	return cfg, nil
}

func clipUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Key returns a stable identity string for a configuration, suitable for
// duplicate detection. The configuration must be valid for the space.
func (s *Space) Key(cfg Configuration) (string, error) {
	canon, err := s.Canonicalize(cfg)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(s.specs))
	for i := range s.specs {
		sp := &s.specs[i]
		var val string
		switch v := canon[sp.Name].(type) {
		case float64:
			val = strconv.FormatFloat(v, 'g', 12, 64)
		case int64:
			val = strconv.FormatInt(v, 10)
		case bool:
			val = strconv.FormatBool(v)
		case string:
			val = v
		}
		parts = append(parts, sp.Name+"="+val)
	}
	sort.Strings(parts)
	return strings.Join(parts, ";"), nil
}
