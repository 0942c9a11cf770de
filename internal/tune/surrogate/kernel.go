package surrogate

import (
	"fmt"
	"math"
)

// KernelType identifies a covariance function.
type KernelType string

const (
	KernelRBF      KernelType = "rbf"
	KernelMatern52 KernelType = "matern52"
)

// IsValid checks if the kernel type is valid.
func (k KernelType) IsValid() bool {
	switch k {
	case KernelRBF, KernelMatern52:
		return true
	}
	return false
}

// String returns string representation.
func (k KernelType) String() string {
	return string(k)
}

// Kernel is a stationary covariance function over unit-cube points.
type Kernel interface {
	// Name returns the kernel name.
	Name() string
	// Eval returns the covariance between two points.
	Eval(a, b []float64) float64
}

// RBF is the squared-exponential kernel.
type RBF struct {
	LengthScale float64
	Variance    float64
}

// Name returns the kernel name.
func (k *RBF) Name() string { return string(KernelRBF) }

// Eval returns the covariance between two points.
func (k *RBF) Eval(a, b []float64) float64 {
	d2 := sqDist(a, b)
	return k.Variance * math.Exp(-d2/(2*k.LengthScale*k.LengthScale))
}

// Matern52 is the Matérn kernel with smoothness 5/2.
type Matern52 struct {
	LengthScale float64
	Variance    float64
}

// Name returns the kernel name.
func (k *Matern52) Name() string { return string(KernelMatern52) }

// Eval returns the covariance between two points.
func (k *Matern52) Eval(a, b []float64) float64 {
	r := math.Sqrt(5*sqDist(a, b)) / k.LengthScale
	return k.Variance * (1 + r + r*r/3) * math.Exp(-r)
}

func newKernel(t KernelType, lengthScale, variance float64) (Kernel, error) {
	switch t {
	case KernelRBF:
		return &RBF{LengthScale: lengthScale, Variance: variance}, nil
	case KernelMatern52:
		return &Matern52{LengthScale: lengthScale, Variance: variance}, nil
	default:
		return nil, fmt.Errorf("unknown kernel type: %s", t)
	}
}

func sqDist(a, b []float64) float64 {
	var d2 float64
	for i := range a {
		d := a[i] - b[i]
		d2 += d * d
	}
	return d2
}
