// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package subst

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/js-arias/physub/feature"
	"github.com/js-arias/physub/msa"
	"github.com/js-arias/physub/prob"
)

// PValues are the statistics of a feature
// under the scalar substitution count:
// the moments and confidence interval
// of the prior,
// the moments and count interval
// of the posterior,
// and the conservation p-values.
type PValues struct {
	Feature feature.Feature

	PriorMean, PriorVar float64
	PriorMin, PriorMax  int

	PostMean, PostVar float64
	PostMin, PostMax  float64

	// PCons is the probability of a prior count
	// at or below the posterior maximum;
	// PAntiCons of a prior count
	// at or above the posterior minimum.
	PCons, PAntiCons float64
}

// FeaturePValues returns the substitution count statistics
// of each of a set of features of an alignment.
// If ci is positive,
// the posterior count interval is a Gaussian interval
// with that confidence level;
// otherwise the posterior mean is used
// as both bounds.
// Results keep the input feature order.
func (p *Process) FeaturePValues(a *msa.Alignment, feats []feature.Feature, ci float64) ([]PValues, error) {
	maxLen, used, err := scanFeatures(a, feats)
	if err != nil {
		return nil, err
	}

	// powers of the site prior,
	// so the prior of any feature length
	// can be built from the binary decomposition
	// of the length
	site, err := p.PriorSite()
	if err != nil {
		return nil, err
	}
	powP := make([]prob.Vector, bits.Len(uint(maxLen)))
	powP[0] = site
	for i := 1; i < len(powP); i++ {
		powP[i] = powP[i-1].Convolve(2)
	}

	// posterior moments of every used tuple
	postMean := make([]float64, a.NumTuples())
	postVar := make([]float64, a.NumTuples())
	for t := range used {
		if !used[t] {
			continue
		}
		pt, err := p.PosteriorSite(a, t)
		if err != nil {
			return nil, err
		}
		postMean[t], postVar[t] = pt.Stats()
	}

	stats := make([]PValues, 0, len(feats))
	for _, f := range feats {
		st := PValues{Feature: f}

		prior := prob.ConvolveMany(lenPowers(f.Len(), powP), nil)
		st.PriorMean, st.PriorVar = prior.Stats()
		st.PriorMin, st.PriorMax = prior.ConfidenceInterval(0.95)

		for i := f.Start - 1; i < f.End; i++ {
			t := a.TupleIndex(i)
			st.PostMean += postMean[t]
			st.PostVar += postVar[t]
		}

		lo, hi := st.PostMean, st.PostMean
		if ci > 0 {
			lo, hi = prob.NormalInterval(st.PostMean, math.Sqrt(st.PostVar), ci)
		}
		st.PostMin = math.Floor(lo)
		if st.PostMin < 0 {
			st.PostMin = 0
		}
		st.PostMax = math.Ceil(hi)

		st.PCons = prior.PValue(st.PostMax, prob.Lower)
		st.PAntiCons = prior.PValue(st.PostMin, prob.Upper)

		stats = append(stats, st)
	}

	return stats, nil
}

// scanFeatures validates a feature set
// against an alignment,
// and returns the longest feature length
// and the set of column tuples
// covered by any feature.
func scanFeatures(a *msa.Alignment, feats []feature.Feature) (maxLen int, used []bool, err error) {
	if len(feats) == 0 {
		return 0, nil, fmt.Errorf("subst: empty feature list")
	}

	used = make([]bool, a.NumTuples())
	for _, f := range feats {
		if f.Start < 1 || f.End < f.Start || f.End > a.Len() {
			return 0, nil, fmt.Errorf("subst: feature %q [%d, %d] outside alignment of %d columns", f.Name, f.Start, f.End, a.Len())
		}
		if l := f.Len(); l > maxLen {
			maxLen = l
		}
		for i := f.Start - 1; i < f.End; i++ {
			used[a.TupleIndex(i)] = true
		}
	}
	return maxLen, used, nil
}

// lenPowers returns the subset of power distributions
// matching the set bits of a feature length.
func lenPowers[T any](length int, powP []T) []T {
	var pows []T
	for i := 0; i < len(powP); i++ {
		if (length>>i)&1 == 1 {
			pows = append(pows, powP[i])
		}
	}
	return pows
}
