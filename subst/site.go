// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package subst

import (
	"fmt"

	"github.com/js-arias/physub/msa"
	"github.com/js-arias/physub/prob"
)

// PriorSite returns the distribution
// of the number of substitutions at a single site,
// given the model alone.
func (p *Process) PriorSite() (prob.Vector, error) {
	return p.lenDistrib(p.m.TotalLen())
}

// lenDistrib returns the distribution
// of the number of substitutions
// along a total branch length t.
func (p *Process) lenDistrib(t float64) (prob.Vector, error) {
	pois := prob.Poisson(p.lambda * t)
	if len(pois) >= p.jmax {
		return nil, fmt.Errorf("subst: length %g: jump count truncation %d beyond process limit %d", t, len(pois), p.jmax)
	}

	distrib := prob.NewVector(len(pois))
	for n := range distrib {
		var sum float64
		for j := 0; j < len(pois); j++ {
			sum += p.nj[n][j] * pois[j]
		}
		distrib[n] = sum
	}
	distrib.Normalize()
	return distrib, nil
}

// PriorAlignment returns the distribution
// of the number of substitutions
// on an alignment of n independent sites,
// given the model alone.
func (p *Process) PriorAlignment(n int) (prob.Vector, error) {
	ps, err := p.PriorSite()
	if err != nil {
		return nil, err
	}
	return ps.Convolve(n), nil
}

// PosteriorSite returns the distribution
// of the number of substitutions
// at the sites with the indicated column tuple,
// given the observed characters.
func (p *Process) PosteriorSite(a *msa.Alignment, tuple int) (prob.Vector, error) {
	lt, maxSubst, err := p.downPass(a, tuple)
	if err != nil {
		return nil, err
	}

	root := p.m.Root()
	res := prob.NewVector(maxSubst[root] + 1)
	for n := range res {
		var sum float64
		for x := 0; x < p.m.States(); x++ {
			sum += p.m.Freq(x) * lt[root][x][n]
		}
		res[n] = sum
	}

	if err := res.Normalize(); err != nil {
		return nil, fmt.Errorf("subst: tuple %d: %v", tuple, err)
	}
	res = res.TrimTail()
	res.Normalize()
	return res, nil
}

// downPass computes,
// for every node of the tree in postorder,
// the joint probability of the data below the node
// and the number of substitutions below the node,
// conditional on the state at the node.
// If the alignment is nil
// all leaves are treated as unobserved
// and the result is a prior.
func (p *Process) downPass(a *msa.Alignment, tuple int) (lt map[int][][]float64, maxSubst map[int]int, err error) {
	var seqIDx map[int]int
	if a != nil {
		seqIDx, err = p.m.SeqIndex(a)
		if err != nil {
			return nil, nil, err
		}
	}

	s := p.m.States()
	lt = make(map[int][][]float64, p.m.NumNodes())
	maxSubst = make(map[int]int, p.m.NumNodes())

	for _, id := range p.m.Postorder() {
		children := p.m.Children(id)

		if len(children) == 0 {
			// leaf
			l := make([][]float64, s)
			for x := range l {
				l[x] = []float64{0}
			}
			if a == nil {
				for x := range l {
					l[x][0] = 1
				}
			} else {
				c := a.Char(tuple, seqIDx[id])
				if msa.IsMissing(c) || c == msa.GapChar {
					for x := range l {
						l[x][0] = 1
					}
				} else {
					x := p.m.Index(c)
					if x < 0 {
						return nil, nil, fmt.Errorf("subst: tuple %d: bad character %q in alignment", tuple, c)
					}
					l[x][0] = 1
				}
			}
			lt[id] = l
			maxSubst[id] = 0
			continue
		}

		// internal node
		left, right := children[0], children[1]
		dl := p.branch[left]
		dr := p.branch[right]

		ms := maxSubst[left] + dl.Cols() - 1
		if v := maxSubst[right] + dr.Cols() - 1; v > ms {
			ms = v
		}
		maxSubst[id] = ms

		l := make([][]float64, s)
		for x := range l {
			l[x] = make([]float64, ms+1)
		}

		for n := 0; n <= ms; n++ {
			for j := 0; j <= n; j++ {
				minI := max(0, j-dl.Cols()+1)
				maxI := min(j, maxSubst[left])
				minK := max(0, n-j-dr.Cols()+1)
				maxK := min(n-j, maxSubst[right])

				for x := 0; x < s; x++ {
					var lv, rv float64
					for b := 0; b < s; b++ {
						for i := minI; i <= maxI; i++ {
							lv += lt[left][b][i] * dl[x][b][j-i]
						}
					}
					for c := 0; c < s; c++ {
						for k := minK; k <= maxK; k++ {
							rv += lt[right][c][k] * dr[x][c][n-j-k]
						}
					}
					l[x][n] += lv * rv
				}
			}
		}

		lt[id] = l
	}

	return lt, maxSubst, nil
}

// PosteriorAlignment returns the distribution
// of the number of substitutions
// on the whole alignment,
// given the observed characters.
func (p *Process) PosteriorAlignment(a *msa.Alignment) (prob.Vector, error) {
	tups := make([]prob.Vector, a.NumTuples())
	counts := make([]int, a.NumTuples())
	for t := range tups {
		pt, err := p.PosteriorSite(a, t)
		if err != nil {
			return nil, err
		}
		tups[t] = pt
		counts[t] = a.Count(t)
	}
	return prob.ConvolveMany(tups, counts), nil
}

// PosteriorStats returns the mean and variance
// of the number of substitutions
// on the whole alignment,
// given the observed characters.
// The moments are sums over sites
// and do not require the convolution.
func (p *Process) PosteriorStats(a *msa.Alignment) (mean, variance float64, err error) {
	for t := 0; t < a.NumTuples(); t++ {
		pt, err := p.PosteriorSite(a, t)
		if err != nil {
			return 0, 0, err
		}
		m, v := pt.Stats()
		mean += m * float64(a.Count(t))
		variance += v * float64(a.Count(t))
	}
	return mean, variance, nil
}
