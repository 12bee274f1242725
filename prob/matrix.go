// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package prob

import (
	"fmt"
	"math"
	"slices"
)

// A Matrix is a bivariate probability distribution
// over pairs of counts.
// Element [x][y] is the probability
// of x counts on the first axis
// and y counts on the second axis.
type Matrix [][]float64

// NewMatrix creates an all-zero matrix
// with the indicated support.
func NewMatrix(rows, cols int) Matrix {
	p := make(Matrix, rows)
	for i := range p {
		p[i] = make([]float64, cols)
	}
	return p
}

// Rows returns the support size of the first axis.
func (p Matrix) Rows() int {
	return len(p)
}

// Cols returns the support size of the second axis.
func (p Matrix) Cols() int {
	if len(p) == 0 {
		return 0
	}
	return len(p[0])
}

// Sum returns the total mass of the matrix.
func (p Matrix) Sum() float64 {
	var sum float64
	for _, r := range p {
		for _, v := range r {
			sum += v
		}
	}
	return sum
}

// Normalize scales the matrix in place
// so that it sums to one.
func (p Matrix) Normalize() error {
	sum := p.Sum()
	if sum <= 0 {
		return fmt.Errorf("prob: normalize: nonpositive sum %g", sum)
	}
	for _, r := range p {
		for y := range r {
			r[y] /= sum
		}
	}
	return nil
}

// Trim returns the matrix without trailing
// near-zero rows and columns.
func (p Matrix) Trim() Matrix {
	rows := len(p)
	for rows > 1 {
		keep := false
		for _, v := range p[rows-1] {
			if v >= TrimTol {
				keep = true
				break
			}
		}
		if keep {
			break
		}
		rows--
	}
	p = p[:rows]

	cols := p.Cols()
	for cols > 1 {
		keep := false
		for _, r := range p {
			if r[cols-1] >= TrimTol {
				keep = true
				break
			}
		}
		if keep {
			break
		}
		cols--
	}
	for i, r := range p {
		p[i] = r[:cols]
	}
	return p
}

// Stats returns the means of both axes,
// the marginal variances,
// and the covariance.
func (p Matrix) Stats() (meanX, meanY, varX, varY, cov float64) {
	for x, r := range p {
		for y, v := range r {
			meanX += float64(x) * v
			meanY += float64(y) * v
			varX += float64(x) * float64(x) * v
			varY += float64(y) * float64(y) * v
			cov += float64(x) * float64(y) * v
		}
	}
	varX -= meanX * meanX
	varY -= meanY * meanY
	cov -= meanX * meanY
	return meanX, meanY, varX, varY, cov
}

// MargX returns the marginal distribution
// of the first axis.
func (p Matrix) MargX() Vector {
	m := make(Vector, len(p))
	for x, r := range p {
		for _, v := range r {
			m[x] += v
		}
	}
	return m
}

// MargY returns the marginal distribution
// of the second axis.
func (p Matrix) MargY() Vector {
	m := make(Vector, p.Cols())
	for _, r := range p {
		for y, v := range r {
			m[y] += v
		}
	}
	return m
}

// MargTotal returns the distribution of the sum
// of both axes,
// by summation over the diagonals.
func (p Matrix) MargTotal() Vector {
	m := make(Vector, len(p)+p.Cols()-1)
	for x, r := range p {
		for y, v := range r {
			m[x+y] += v
		}
	}
	return m
}

// XGivenTotal returns the conditional distribution
// of the first axis
// given that the counts of both axes sum to tot.
// It is an error to condition on a total
// with zero probability.
func (p Matrix) XGivenTotal(tot int) (Vector, error) {
	cond := make(Vector, len(p))
	for x, r := range p {
		y := tot - x
		if y < 0 || y >= len(r) {
			continue
		}
		cond[x] = r[y]
	}
	if err := cond.Normalize(); err != nil {
		return nil, fmt.Errorf("prob: conditional on total %d: %v", tot, err)
	}
	return cond, nil
}

// YGivenTotal returns the conditional distribution
// of the second axis
// given that the counts of both axes sum to tot.
func (p Matrix) YGivenTotal(tot int) (Vector, error) {
	cond := make(Vector, p.Cols())
	for y := range cond {
		x := tot - y
		if x < 0 || x >= len(p) {
			continue
		}
		cond[y] = p[x][y]
	}
	if err := cond.Normalize(); err != nil {
		return nil, fmt.Errorf("prob: conditional on total %d: %v", tot, err)
	}
	return cond, nil
}

// XGivenTotalIndep returns the conditional distribution
// of the first axis given the total,
// assuming that both axes are independent
// with the indicated marginal distributions.
func XGivenTotalIndep(tot int, px, py Vector) (Vector, error) {
	cond := make(Vector, len(px))
	for x, v := range px {
		y := tot - x
		if y < 0 || y >= len(py) {
			continue
		}
		cond[x] = v * py[y]
	}
	if err := cond.Normalize(); err != nil {
		return nil, fmt.Errorf("prob: conditional on total %d: %v", tot, err)
	}
	return cond, nil
}

// YGivenTotalIndep returns the conditional distribution
// of the second axis given the total,
// assuming that both axes are independent
// with the indicated marginal distributions.
func YGivenTotalIndep(tot int, px, py Vector) (Vector, error) {
	return XGivenTotalIndep(tot, py, px)
}

// Convolve returns the distribution of the element-wise sum
// of n independent draws from the distribution.
// It uses repeated doubling of the summand count.
func (p Matrix) Convolve(n int) Matrix {
	return p.convolve(n, 0, 0)
}

// ConvolveFast is like Convolve,
// but bounds the support of the result
// using central limit theorem bounds (mean + 6 sd)
// when the number of draws is large.
func (p Matrix) ConvolveFast(n int) Matrix {
	if n <= 25 {
		return p.convolve(n, 0, 0)
	}
	maxRows, maxCols := cltBounds(p, n)
	return p.convolve(n, maxRows, maxCols)
}

func (p Matrix) convolve(n, maxRows, maxCols int) Matrix {
	if n < 1 {
		return Matrix{{1}}
	}

	res := Matrix{{1}}
	pow := p.clone()
	for {
		if n&1 == 1 {
			res = convolveMat(res, pow, maxRows, maxCols)
		}
		n >>= 1
		if n == 0 {
			break
		}
		pow = convolveMat(pow, pow, maxRows, maxCols)
	}
	res.Normalize()
	return res
}

// ConvolveManyFast returns the convolution
// of a set of bivariate distributions,
// truncating every intermediate result
// to the indicated support bounds.
// A nonpositive bound means an unbounded axis.
// The matrices are folded in ascending support order.
func ConvolveManyFast(ps []Matrix, maxRows, maxCols int) Matrix {
	terms := make([]Matrix, len(ps))
	copy(terms, ps)
	slices.SortStableFunc(terms, func(a, b Matrix) int {
		return a.Rows()*a.Cols() - b.Rows()*b.Cols()
	})

	res := Matrix{{1}}
	for _, t := range terms {
		res = convolveMat(res, t, maxRows, maxCols)
	}
	res.Normalize()
	return res
}

// ConvolveManyCounts returns the convolution
// of a set of bivariate distributions,
// each first convolved with itself
// the indicated number of times.
func ConvolveManyCounts(ps []Matrix, counts []int) Matrix {
	terms := make([]Matrix, 0, len(ps))
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
	return ConvolveManyFast(terms, 0, 0)
}

func (p Matrix) clone() Matrix {
	q := make(Matrix, len(p))
	for i, r := range p {
		q[i] = slices.Clone(r)
	}
	return q
}

// convolveMat is the pairwise convolution
// of two bivariate distributions,
// with an optional bound on the support of the result.
// The accumulation is done in ascending index order
// on both operands,
// so that results are reproducible across runs.
func convolveMat(a, b Matrix, maxRows, maxCols int) Matrix {
	rows := a.Rows() + b.Rows() - 1
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	cols := a.Cols() + b.Cols() - 1
	if maxCols > 0 && cols > maxCols {
		cols = maxCols
	}

	q := NewMatrix(rows, cols)
	for x1, r1 := range a {
		if x1 >= rows {
			break
		}
		for y1, v1 := range r1 {
			if y1 >= cols {
				break
			}
			if v1 == 0 {
				continue
			}
			for x2, r2 := range b {
				x := x1 + x2
				if x >= rows {
					break
				}
				for y2, v2 := range r2 {
					y := y1 + y2
					if y >= cols {
						break
					}
					q[x][y] += v1 * v2
				}
			}
		}
	}
	return q.Trim()
}

func cltBounds(p Matrix, n int) (maxRows, maxCols int) {
	meanX, meanY, varX, varY, _ := p.Stats()
	fn := float64(n)
	maxRows = int(math.Ceil(fn*meanX + 6*math.Sqrt(fn*varX)))
	maxCols = int(math.Ceil(fn*meanY + 6*math.Sqrt(fn*varY)))
	return maxRows + 1, maxCols + 1
}
