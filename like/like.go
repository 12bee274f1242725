// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package like implements the pruning algorithm
// for the likelihood of alignment columns
// under a substitution model.
// Branch transition probabilities are taken
// from the jump process of the model,
// so no separate matrix exponential is required.
package like

import (
	"fmt"
	"math"

	"github.com/js-arias/physub/model"
	"github.com/js-arias/physub/msa"
	"github.com/js-arias/physub/prob"
	"github.com/js-arias/physub/subst"
)

// Alignment returns the log likelihood,
// in base 2,
// of every column tuple of an alignment
// under the model of a jump process.
func Alignment(p *subst.Process, a *msa.Alignment) ([]float64, error) {
	m := p.Model()
	seqIDx, err := m.SeqIndex(a)
	if err != nil {
		return nil, err
	}

	// per-branch transition probabilities
	trans := make(map[int]prob.Matrix, m.NumNodes())
	for _, id := range m.Postorder() {
		if id == m.Root() {
			continue
		}
		trans[id] = p.Transition(id)
	}

	lp := make([]float64, a.NumTuples())
	for t := range lp {
		l, err := column(m, trans, seqIDx, a, t)
		if err != nil {
			return nil, err
		}
		lp[t] = l
	}
	return lp, nil
}

// column returns the log likelihood,
// in base 2,
// of a single column tuple.
func column(m *model.Model, trans map[int]prob.Matrix, seqIDx map[int]int, a *msa.Alignment, tuple int) (float64, error) {
	s := m.States()
	partial := make(map[int][]float64)

	for _, id := range m.Postorder() {
		children := m.Children(id)

		if len(children) == 0 {
			cond := make([]float64, s)
			c := a.Char(tuple, seqIDx[id])
			if msa.IsMissing(c) || c == msa.GapChar {
				for x := range cond {
					cond[x] = 1
				}
			} else {
				x := m.Index(c)
				if x < 0 {
					return 0, fmt.Errorf("like: tuple %d: bad character %q in alignment", tuple, c)
				}
				cond[x] = 1
			}
			partial[id] = cond
			continue
		}

		cond := make([]float64, s)
		for x := 0; x < s; x++ {
			cond[x] = 1
			for _, cID := range children {
				tr := trans[cID]
				var sum float64
				for b := 0; b < s; b++ {
					sum += tr[x][b] * partial[cID][b]
				}
				cond[x] *= sum
			}
		}
		partial[id] = cond
	}

	var l float64
	for x := 0; x < s; x++ {
		l += m.Freq(x) * partial[m.Root()][x]
	}
	if l <= 0 {
		return 0, fmt.Errorf("like: tuple %d: zero likelihood", tuple)
	}
	return math.Log2(l), nil
}
