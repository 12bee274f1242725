// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package subst implements distributions
// of the number of substitutions
// on a phylogenetic tree,
// prior and posterior to an observed alignment,
// using a uniformized jump process.
package subst

import (
	"fmt"
	"math"

	"github.com/js-arias/physub/model"
	"github.com/js-arias/physub/prob"
	"gonum.org/v1/gonum/mat"
)

// stochTol is the tolerance for the row sums
// of the jump matrix.
const stochTol = 1e-9

// A Process is the uniformized jump representation
// of a substitution model:
// a Poisson clock of virtual jump events
// and a discrete chain that may or may not
// change state at each jump.
// It is read-only after construction
// and can be shared by any number of queries.
type Process struct {
	m      *model.Model
	lambda float64
	r      *mat.Dense
	jmax   int

	// a[i][n][j] is the probability of n substitutions
	// and final state i given j jumps,
	// with the starting state drawn
	// from the background frequencies.
	a [][][]float64

	// b[s][i][n][j] is the probability of n substitutions
	// and final state i given j jumps
	// and starting state s.
	b [][][][]float64

	// nj[n][j] is the probability of n substitutions
	// given j jumps,
	// marginalized over the final state.
	nj [][]float64

	// branch[id] is the conditional distribution
	// for the branch ending at each non-root node.
	branch map[int]Branch
}

// A Branch is the conditional distribution
// of a single branch:
// element [a][b][n] is the probability
// of ending in state b after n substitutions,
// given starting state a
// and the branch length.
type Branch []prob.Matrix

// Cols returns the substitution support of the branch,
// the truncation point of its jump count.
func (br Branch) Cols() int {
	return br[0].Cols()
}

// New builds the jump process of a substitution model,
// including the conditional distributions
// of every branch of its tree.
func New(m *model.Model) (*Process, error) {
	s := m.States()

	var lambda float64
	for i := 0; i < s; i++ {
		if v := -m.Rate(i, i); v > lambda {
			lambda = v
		}
	}
	if lambda <= 0 {
		return nil, fmt.Errorf("subst: nonpositive uniformization rate %g", lambda)
	}

	r := mat.NewDense(s, s, nil)
	for i := 0; i < s; i++ {
		var sum float64
		for j := 0; j < s; j++ {
			v := m.Rate(i, j) / lambda
			if i == j {
				v++
			}
			r.Set(i, j, v)
			sum += v
		}
		if math.Abs(sum-1) > stochTol {
			return nil, fmt.Errorf("subst: jump matrix row %d sums to %g", i, sum)
		}
	}

	jmax := int(math.Ceil(15 * m.TotalLen()))
	if jmax < 20 {
		jmax = 20
	}

	p := &Process{
		m:      m,
		lambda: lambda,
		r:      r,
		jmax:   jmax,
	}

	p.a = p.substGivenJumps(-1)
	p.b = make([][][][]float64, s)
	for i := 0; i < s; i++ {
		p.b[i] = p.substGivenJumps(i)
	}

	p.nj = make([][]float64, jmax)
	for n := range p.nj {
		p.nj[n] = make([]float64, jmax)
		for j := 0; j < jmax; j++ {
			var sum float64
			for i := 0; i < s; i++ {
				sum += p.a[i][n][j]
			}
			p.nj[n][j] = sum
		}
	}

	p.branch = make(map[int]Branch, m.NumNodes())
	for _, id := range m.Postorder() {
		if id == m.Root() {
			continue
		}
		br, err := p.NewBranch(m.BranchLen(id))
		if err != nil {
			return nil, fmt.Errorf("subst: node %d: %v", id, err)
		}
		p.branch[id] = br
	}

	return p, nil
}

// substGivenJumps builds the distribution
// of substitutions and final state
// given the number of jumps,
// by a recurrence on the jump count:
// a jump either keeps the current state,
// or moves to another state
// adding one substitution.
// If start is non-negative the chain starts
// at the indicated state;
// otherwise the start is drawn
// from the background frequencies.
func (p *Process) substGivenJumps(start int) [][][]float64 {
	s := p.m.States()

	a := make([][][]float64, s)
	for i := range a {
		a[i] = make([][]float64, p.jmax)
		for n := range a[i] {
			a[i][n] = make([]float64, p.jmax)
		}
	}

	if start < 0 {
		for i := 0; i < s; i++ {
			a[i][0][0] = p.m.Freq(i)
		}
	} else {
		a[start][0][0] = 1
	}

	for j := 1; j < p.jmax; j++ {
		for n := 0; n <= j; n++ {
			for i := 0; i < s; i++ {
				v := a[i][n][j-1] * p.r.At(i, i)
				if n > 0 {
					for k := 0; k < s; k++ {
						if k == i {
							continue
						}
						v += a[k][n-1][j-1] * p.r.At(k, i)
					}
				}
				a[i][n][j] = v
			}
		}
	}

	return a
}

// NewBranch returns the conditional distribution
// of final state and substitution count
// for a branch of the indicated length.
// The jump count along the branch is Poisson
// with rate lambda times the branch length;
// its truncation must fall below the truncation
// of the process tables.
func (p *Process) NewBranch(t float64) (Branch, error) {
	if t < 0 {
		return nil, fmt.Errorf("negative branch length %g", t)
	}
	pois := prob.Poisson(p.lambda * t)
	if len(pois) >= p.jmax {
		return nil, fmt.Errorf("branch length %g: jump count truncation %d beyond process limit %d", t, len(pois), p.jmax)
	}

	s := p.m.States()
	d := make(Branch, s)
	for a := 0; a < s; a++ {
		d[a] = prob.NewMatrix(s, len(pois))
		for b := 0; b < s; b++ {
			for n := 0; n < len(pois); n++ {
				var sum float64
				for j := 0; j < len(pois); j++ {
					sum += p.b[a][b][n][j] * pois[j]
				}
				d[a][b][n] = sum
			}
		}
		d[a].Normalize()
	}

	return d, nil
}

// Branch returns the precomputed conditional distribution
// of the branch ending at the indicated node.
// There is no distribution at the root.
func (p *Process) Branch(id int) Branch {
	return p.branch[id]
}

// Transition returns the transition probabilities
// of the branch ending at the indicated node,
// the conditional distribution marginalized
// over the substitution count.
func (p *Process) Transition(id int) prob.Matrix {
	br := p.branch[id]
	s := p.m.States()
	tr := prob.NewMatrix(s, s)
	for a := 0; a < s; a++ {
		for b := 0; b < s; b++ {
			for _, v := range br[a][b] {
				tr[a][b] += v
			}
		}
	}
	return tr
}

// Model returns the substitution model
// of the process.
func (p *Process) Model() *model.Model {
	return p.m
}

// Lambda returns the uniformization rate
// of the process.
func (p *Process) Lambda() float64 {
	return p.lambda
}

// MaxJumps returns the truncation point
// of the jump count tables.
func (p *Process) MaxJumps() int {
	return p.jmax
}

// JumpSum returns the total mass
// of the state-and-substitution table
// for the indicated jump count,
// conditional on the indicated starting state
// (or on the background frequencies
// if start is negative).
// It is one for a valid process.
func (p *Process) JumpSum(start, j int) float64 {
	a := p.a
	if start >= 0 {
		a = p.b[start]
	}
	var sum float64
	for i := range a {
		for n := range a[i] {
			sum += a[i][n][j]
		}
	}
	return sum
}
