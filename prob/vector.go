// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prob implements discrete probability distributions
// over counts,
// in one (Vector) and two (Matrix) dimensions.
package prob

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// TrimTol is the threshold used to remove
// near-zero trailing values from the support
// of a distribution.
const TrimTol = 1e-10

// SumTol is the tolerance used when checking
// that a distribution sums to one.
const SumTol = 1e-4

// A Side indicates the tail used for a p-value.
type Side int

// Valid sides.
const (
	// Lower is the left tail, P(X <= x).
	Lower Side = iota

	// Upper is the right tail, P(X >= x).
	Upper
)

// A Vector is a probability distribution
// over the counts 0, 1, ..., len-1.
type Vector []float64

// NewVector creates an all-zero vector
// with the indicated support size.
func NewVector(size int) Vector {
	return make(Vector, size)
}

// PointMass returns the distribution concentrated
// at the indicated count.
func PointMass(x int) Vector {
	p := make(Vector, x+1)
	p[x] = 1
	return p
}

// Sum returns the total mass of the vector.
func (p Vector) Sum() float64 {
	return floats.Sum(p)
}

// Normalize scales the vector in place
// so that it sums to one.
func (p Vector) Normalize() error {
	sum := floats.Sum(p)
	if sum <= 0 {
		return fmt.Errorf("prob: normalize: nonpositive sum %g", sum)
	}
	floats.Scale(1/sum, p)
	return nil
}

// TrimTail returns the vector without its trailing
// near-zero values.
// Interior zeros are kept.
func (p Vector) TrimTail() Vector {
	n := len(p)
	for n > 1 && p[n-1] < TrimTol {
		n--
	}
	return p[:n]
}

// Stats returns the mean and variance of the distribution.
func (p Vector) Stats() (mean, variance float64) {
	for i, v := range p {
		mean += float64(i) * v
		variance += float64(i) * float64(i) * v
	}
	variance -= mean * mean
	return mean, variance
}

// ConfidenceInterval returns the smallest two-sided interval,
// symmetric in tail mass,
// that contains at least the indicated probability mass.
// Ties are broken towards the earlier lower bound.
func (p Vector) ConfidenceInterval(level float64) (lo, hi int) {
	tail := (1 - level) / 2

	var cum float64
	for lo = 0; lo < len(p)-1; lo++ {
		if cum+p[lo] > tail {
			break
		}
		cum = cum + p[lo]
	}

	cum = 0
	for hi = len(p) - 1; hi > lo; hi-- {
		if cum+p[hi] > tail {
			break
		}
		cum = cum + p[hi]
	}
	return lo, hi
}

// PValue returns the probability mass
// at or beyond the indicated value,
// on the indicated side of the distribution.
func (p Vector) PValue(x float64, side Side) float64 {
	var sum float64
	if side == Lower {
		for i := 0; i < len(p); i++ {
			if float64(i) > x {
				break
			}
			sum += p[i]
		}
		return sum
	}
	for i := 0; i < len(p); i++ {
		if float64(i) < x {
			continue
		}
		sum += p[i]
	}
	return sum
}

// Convolve returns the distribution of the sum
// of n independent copies of the distribution.
// It uses repeated doubling of the summand count.
func (p Vector) Convolve(n int) Vector {
	if n < 1 {
		return Vector{1}
	}

	res := Vector{1}
	pow := slices.Clone(p)
	for {
		if n&1 == 1 {
			res = convolveVec(res, pow)
		}
		n >>= 1
		if n == 0 {
			break
		}
		pow = convolveVec(pow, pow)
	}
	res.Normalize()
	return res
}

// ConvolveMany returns the convolution of a set of distributions.
// If counts is not nil,
// each distribution is first convolved with itself
// the indicated number of times.
// Convolution is commutative;
// the vectors are folded in ascending support order
// to keep intermediate supports small.
func ConvolveMany(ps []Vector, counts []int) Vector {
	terms := make([]Vector, 0, len(ps))
	for i, p := range ps {
		if counts == nil {
			terms = append(terms, p)
			continue
		}
		if counts[i] < 1 {
			continue
		}
		terms = append(terms, p.Convolve(counts[i]))
	}
	slices.SortStableFunc(terms, func(a, b Vector) int {
		return len(a) - len(b)
	})

	res := Vector{1}
	for _, t := range terms {
		res = convolveVec(res, t)
	}
	res.Normalize()
	return res
}

// convolveVec is the pairwise convolution
// of two distributions.
// The accumulation is done in ascending index order
// on both operands,
// so that results are reproducible across runs.
func convolveVec(a, b Vector) Vector {
	q := make(Vector, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			q[i+j] += av * bv
		}
	}
	return q.TrimTail()
}

// Poisson returns the Poisson distribution
// with the indicated rate,
// truncated at the point in which the tail mass
// becomes negligible.
// The truncation point is the length of the returned vector.
// A nonpositive rate concentrates at zero.
func Poisson(rate float64) Vector {
	if rate <= 0 {
		return Vector{1}
	}

	pois := distuv.Poisson{Lambda: rate}
	var p Vector
	for k := 0; ; k++ {
		v := pois.Prob(float64(k))
		if float64(k) > rate && v < TrimTol {
			break
		}
		p = append(p, v)
	}
	p.Normalize()
	return p
}

// NormalInterval returns the two-sided interval
// of a Gaussian distribution
// with the indicated mean and standard deviation,
// containing the indicated probability mass.
func NormalInterval(mean, sd, level float64) (lo, hi float64) {
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - (1-level)/2)
	return mean - z*sd, mean + z*sd
}
