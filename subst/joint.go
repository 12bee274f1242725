// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package subst

import (
	"fmt"

	"github.com/js-arias/physub/msa"
	"github.com/js-arias/physub/prob"
)

// JointSite returns the joint distribution
// of the number of substitutions
// in the left and in the right subtree
// below the root,
// at the sites with the indicated column tuple.
// The right subtree is taken as attached to the root
// by a zero length branch,
// so no substitutions are attributed to it
// beyond the ones inside the subtree.
// To use a different partition of the tree
// reroot the tree before building the process.
func (p *Process) JointSite(a *msa.Alignment, tuple int) (prob.Matrix, error) {
	return p.jointSite(a, tuple)
}

// PriorJointSite is like JointSite,
// but returns the prior distribution
// for an unobserved site.
func (p *Process) PriorJointSite() (prob.Matrix, error) {
	return p.jointSite(nil, -1)
}

func (p *Process) jointSite(a *msa.Alignment, tuple int) (prob.Matrix, error) {
	root := p.m.Root()
	children := p.m.Children(root)
	if len(children) == 0 {
		return nil, fmt.Errorf("subst: joint distribution of a single node tree")
	}
	left, right := children[0], children[1]

	lt, maxSubst, err := p.downPass(a, tuple)
	if err != nil {
		return nil, err
	}

	dl := p.branch[left]
	n1Max := maxSubst[left] + dl.Cols()
	n2Max := maxSubst[right] + p.branch[right].Cols()

	s := p.m.States()
	res := prob.NewMatrix(n1Max, n2Max)
	for n1 := 0; n1 < n1Max; n1++ {
		minI := max(0, n1-dl.Cols()+1)
		maxI := min(n1, maxSubst[left])
		for n2 := 0; n2 <= min(n2Max-1, maxSubst[right]); n2++ {
			for x := 0; x < s; x++ {
				var lv float64
				for b := 0; b < s; b++ {
					for i := minI; i <= maxI; i++ {
						lv += lt[left][b][i] * dl[x][b][n1-i]
					}
				}
				res[n1][n2] += lv * p.m.Freq(x) * lt[right][x][n2]
			}
		}
	}

	if err := res.Normalize(); err != nil {
		return nil, fmt.Errorf("subst: tuple %d: %v", tuple, err)
	}
	res = res.Trim()
	res.Normalize()
	return res, nil
}

// PriorJointAlignment returns the joint distribution
// of left and right subtree substitutions
// on an alignment of n independent sites,
// given the model alone.
func (p *Process) PriorJointAlignment(n int) (prob.Matrix, error) {
	ps, err := p.PriorJointSite()
	if err != nil {
		return nil, err
	}
	return ps.ConvolveFast(n), nil
}

// PosteriorJointAlignment returns the joint distribution
// of left and right subtree substitutions
// on the whole alignment,
// given the observed characters.
func (p *Process) PosteriorJointAlignment(a *msa.Alignment) (prob.Matrix, error) {
	tups := make([]prob.Matrix, a.NumTuples())
	counts := make([]int, a.NumTuples())
	for t := range tups {
		pt, err := p.JointSite(a, t)
		if err != nil {
			return nil, err
		}
		tups[t] = pt
		counts[t] = a.Count(t)
	}
	return prob.ConvolveManyCounts(tups, counts), nil
}

// JointStats are the moments
// of a joint substitution distribution:
// for the left subtree,
// the right subtree,
// and their total.
type JointStats struct {
	MeanLeft, VarLeft   float64
	MeanRight, VarRight float64
	MeanTotal, VarTotal float64
}

// PosteriorJointStats returns the per-subtree moments
// of the number of substitutions
// on the whole alignment,
// given the observed characters.
// The moments are sums over sites
// and do not require the convolution.
func (p *Process) PosteriorJointStats(a *msa.Alignment) (JointStats, error) {
	var st JointStats
	for t := 0; t < a.NumTuples(); t++ {
		pt, err := p.JointSite(a, t)
		if err != nil {
			return JointStats{}, err
		}
		cnt := float64(a.Count(t))

		m, v := pt.MargX().Stats()
		st.MeanLeft += m * cnt
		st.VarLeft += v * cnt

		m, v = pt.MargY().Stats()
		st.MeanRight += m * cnt
		st.VarRight += v * cnt

		m, v = pt.MargTotal().Stats()
		st.MeanTotal += m * cnt
		st.VarTotal += v * cnt
	}
	return st, nil
}
