// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package entropy implements the relative entropy
// between two substitution models
// over the same tree,
// and the expected lengths of the conserved elements
// that can be detected with them.
//
// The relative entropy is computed by brute force,
// enumerating all possible labelings
// of the leaves of the tree,
// so it is only usable with small trees.
package entropy

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/js-arias/physub/like"
	"github.com/js-arias/physub/model"
	"github.com/js-arias/physub/msa"
	"github.com/js-arias/physub/subst"
)

// checksumTol is the tolerance for the total probability
// of the enumerated leaf labelings.
const checksumTol = 1e-4

// maxLabelings bounds the brute force enumeration.
const maxLabelings = 1 << 24

// Relative returns the relative entropy,
// in bits per site,
// of a conserved model
// with respect to a non-conserved model
// (H),
// and of the non-conserved model
// with respect to the conserved one
// (HAlt).
// Both models must share the alphabet
// and the tree terminals.
func Relative(cons, noncons *model.Model) (h, hAlt float64, err error) {
	if cons.Alphabet() != noncons.Alphabet() {
		return 0, 0, fmt.Errorf("entropy: alphabet mismatch: %q, %q", cons.Alphabet(), noncons.Alphabet())
	}

	var names []string
	for _, id := range cons.Postorder() {
		if !cons.IsTerm(id) {
			continue
		}
		names = append(names, cons.Taxon(id))
	}

	s := cons.States()
	nLabels := 1
	for range names {
		if nLabels > maxLabelings/s {
			return 0, 0, fmt.Errorf("entropy: %d leaves on a %d state alphabet: too many labelings", len(names), s)
		}
		nLabels *= s
	}

	// every possible leaf labeling,
	// as a column of a synthetic alignment
	seqs := make([][]byte, len(names))
	for j := range seqs {
		seqs[j] = make([]byte, nLabels)
	}
	for i := 0; i < nLabels; i++ {
		x := i
		for j := range seqs {
			seqs[j][i] = cons.Alphabet()[x%s]
			x /= s
		}
	}
	strs := make([]string, len(seqs))
	for j, sq := range seqs {
		strs[j] = string(sq)
	}
	a, err := msa.New(names, strs)
	if err != nil {
		return 0, 0, fmt.Errorf("entropy: %v", err)
	}

	consLP, err := logLike(cons, a)
	if err != nil {
		return 0, 0, err
	}
	nonconsLP, err := logLike(noncons, a)
	if err != nil {
		return 0, 0, err
	}

	var sumCons, sumNoncons float64
	for i := 0; i < a.NumTuples(); i++ {
		pc := math.Exp2(consLP[i])
		pn := math.Exp2(nonconsLP[i])
		sumCons += pc
		sumNoncons += pn
		h += pc * (consLP[i] - nonconsLP[i])
		hAlt += pn * (nonconsLP[i] - consLP[i])
	}

	if math.Abs(sumCons-1) > checksumTol || math.Abs(sumNoncons-1) > checksumTol {
		return 0, 0, fmt.Errorf("entropy: checksum failed (%g or %g not 1 +/- %g)", sumCons, sumNoncons, checksumTol)
	}

	return h, hAlt, nil
}

func logLike(m *model.Model, a *msa.Alignment) ([]float64, error) {
	p, err := subst.New(m)
	if err != nil {
		return nil, err
	}
	return like.Alignment(p, a)
}

// Lengths returns the expected minimum length
// of a detectable conserved element
// (LMin)
// and the expected maximum length
// of a non-conserved stretch
// tolerated inside one
// (LMax),
// for the indicated relative entropies,
// target coverage,
// and expected element length.
func Lengths(h, hAlt, coverage, expLen float64) (lMin, lMax float64, err error) {
	if coverage <= 0 || coverage >= 1 {
		return 0, 0, fmt.Errorf("entropy: coverage %g outside (0, 1)", coverage)
	}
	if expLen <= 0 {
		return 0, 0, fmt.Errorf("entropy: nonpositive expected length %g", expLen)
	}

	mu := 1 / expLen
	nu := mu * coverage / (1 - coverage)

	num := math.Log2(nu) + math.Log2(mu) - math.Log2(1-nu) - math.Log2(1-mu)
	lMin = num / (math.Log2(1-nu) - math.Log2(1-mu) - h)
	lMax = num / (math.Log2(1-mu) - math.Log2(1-nu) - hAlt)
	return lMin, lMax, nil
}

// ErrNoConvergence is returned by SolveNewton
// when the iteration does not converge.
var ErrNoConvergence = errors.New("entropy: newton iteration not converging")

// maxIter is the iteration bound of SolveNewton.
const maxIter = 30

// SolveNewton returns the expected element length
// that produces the indicated value of LMin times H,
// assuming H stays constant,
// by Newton iteration on the transition probability
// out of the conserved state.
// Each iterate is clamped to [1e-3, 1-1e-3];
// the iteration converges when the change
// falls below 1e-4.
// If trace is not nil,
// the starting length and each iterate
// are written to it.
func SolveNewton(expLen, coverage, h, lMinH float64, trace io.Writer) (float64, error) {
	if coverage <= 0 || coverage >= 1 {
		return 0, fmt.Errorf("entropy: coverage %g outside (0, 1)", coverage)
	}
	if expLen <= 0 {
		return 0, fmt.Errorf("entropy: nonpositive expected length %g", expLen)
	}

	// natural log scale makes the derivative simpler
	hn := h * math.Ln2
	target := lMinH * math.Ln2
	lMin := target / hn
	odds := coverage / (1 - coverage)

	mu := 1 / expLen
	if trace != nil {
		fmt.Fprintf(trace, "( solving for new omega: %f ", 1/mu)
	}
	for i := 0; i < maxIter; i++ {
		f := (lMin+1)*math.Log(1-odds*mu) - (lMin-1)*math.Log(1-mu) - math.Log(odds*mu) - math.Log(mu) - target
		deriv := -(lMin+1)*odds/(1-odds*mu) + (lMin-1)/(1-mu) - 2/mu

		next := mu - f/deriv
		if next < 1e-3 {
			next = 1e-3
		} else if next > 1-1e-3 {
			next = 1 - 1e-3
		}
		if trace != nil {
			fmt.Fprintf(trace, "%f ", 1/next)
		}
		if math.Abs(next-mu) < 1e-4 {
			if trace != nil {
				fmt.Fprintf(trace, ")\n")
			}
			return 1 / next, nil
		}
		mu = next
	}
	if trace != nil {
		fmt.Fprintf(trace, ")\n")
	}
	return 0, ErrNoConvergence
}
