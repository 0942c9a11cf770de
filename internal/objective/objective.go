package objective

import "math"

// Metrics maps metric names to measured or targeted values.
type Metrics map[string]float64

// Clone returns a copy of the metrics.
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Aggregator folds observed metrics against a target into a single scalar.
// Lower is better; zero means the target is met exactly.
type Aggregator interface {
	Score(observed, target Metrics) float64
}

// WeightedDistance scores a trial by the weighted mean of per-metric
// relative distances to the target. A metric missing from the observation
// counts as a full miss.
type WeightedDistance struct {
	weights Metrics
}

// NewWeightedDistance creates an aggregator with optional per-metric
// weights. Metrics without a weight get weight 1.
func NewWeightedDistance(weights Metrics) *WeightedDistance {
	return &WeightedDistance{weights: weights.Clone()}
}

// Score implements Aggregator.
func (a *WeightedDistance) Score(observed, target Metrics) float64 {
	if len(target) == 0 {
		return 0
	}
	var sum, wsum float64
	for name, want := range target {
		w := 1.0
		if a.weights != nil {
			if aw, ok := a.weights[name]; ok && aw > 0 {
				w = aw
			}
		}
		d := 1.0
		if got, ok := observed[name]; ok {
			d = math.Abs(got-want) / math.Max(math.Abs(want), 1)
		}
		sum += w * d
		wsum += w
	}
	return sum / wsum
}

// Closeness maps a score to (0,1], higher meaning closer to the target.
func Closeness(score float64) float64 {
	if score < 0 || math.IsNaN(score) {
		return 0
	}
	return 1 / (1 + score)
}
