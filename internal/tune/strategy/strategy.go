// Package strategy implements the optimization strategies behind the
// tuner: Bayesian optimization over a Gaussian-process surrogate,
// transfer learning seeded from similar projects, a weighted ensemble
// and budgeted random search.
package strategy

// Type represents the type of optimization strategy.
type Type string

const (
	TypeBayesian     Type = "bayesian"
	TypeTransfer     Type = "transfer_learning"
	TypeEnsemble     Type = "ensemble"
	TypeRandomSearch Type = "random_search"
)

// IsValid checks if the strategy type is valid.
func (t Type) IsValid() bool {
	switch t {
	case TypeBayesian, TypeTransfer, TypeEnsemble, TypeRandomSearch:
		return true
	}
	return false
}

// String returns string representation.
func (t Type) String() string {
	return string(t)
}
