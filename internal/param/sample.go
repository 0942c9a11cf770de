package param

import "math/rand"

// Sample draws a uniform random configuration from the space.
func (s *Space) Sample(rng *rand.Rand) Configuration {
	cfg := make(Configuration, len(s.specs))
	for i := range s.specs {
		sp := &s.specs[i]
		switch sp.Kind {
		case KindContinuous:
			cfg[sp.Name] = sp.Min + rng.Float64()*sp.span()
		case KindInteger:
			lo, hi := int64(sp.Min), int64(sp.Max)
			cfg[sp.Name] = lo + rng.Int63n(hi-lo+1)
		case KindBoolean:
			cfg[sp.Name] = rng.Intn(2) == 1
		case KindCategorical:
			cfg[sp.Name] = sp.Values[rng.Intn(len(sp.Values))]
		}
	}
	return cfg
}

// SamplePoint draws a uniform random point in [0,1]^d.
func (s *Space) SamplePoint(rng *rand.Rand) []float64 {
	vec := make([]float64, s.dim)
	for i := range vec {
		vec[i] = rng.Float64()
	}
	return vec
}
