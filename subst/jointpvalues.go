// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package subst

import (
	"math"
	"math/bits"

	"github.com/js-arias/physub/feature"
	"github.com/js-arias/physub/msa"
	"github.com/js-arias/physub/prob"
)

// SideStats are the per-axis statistics of a feature
// under the joint substitution count.
type SideStats struct {
	PriorMean, PriorVar float64
	PriorMin, PriorMax  int

	PostMean, PostVar float64
	PostMin, PostMax  float64
}

// JointPValues are the statistics of a feature
// under the joint
// (left subtree, right subtree)
// substitution count.
type JointPValues struct {
	Feature feature.Feature

	Left  SideStats
	Right SideStats
	Total SideStats

	// Marginal p-values.
	PConsLeft, PAntiConsLeft   float64
	PConsRight, PAntiConsRight float64

	// P-values conditional on the total count.
	CondPConsLeft, CondPAntiConsLeft   float64
	CondPConsRight, CondPAntiConsRight float64

	// Approx is true when the feature was too long
	// for the explicit joint prior,
	// and the conditional p-values assume
	// independent subtree counts.
	Approx bool
}

// DefaultMaxConvolveSize is the default bound
// for the support size of an explicit joint prior.
const DefaultMaxConvolveSize = 1_000_000

// FeatureJointPValues returns the joint substitution count statistics
// of each of a set of features of an alignment.
// The joint prior of a feature is built by convolution
// only while its truncated support,
// bounded by central limit theorem bounds,
// stays within maxSize cells;
// longer features report marginal statistics
// and approximate conditional p-values.
// Results keep the input feature order.
func (p *Process) FeatureJointPValues(a *msa.Alignment, feats []feature.Feature, ci float64, maxSize int) ([]JointPValues, error) {
	maxLen, used, err := scanFeatures(a, feats)
	if err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxConvolveSize
	}

	site, err := p.PriorJointSite()
	if err != nil {
		return nil, err
	}
	siteMeanL, siteMeanR, siteVarL, siteVarR, _ := site.Stats()
	siteMargL := site.MargX()
	siteMargR := site.MargY()

	maxConvLen := maxConvolveLen(maxSize, siteMeanL, math.Sqrt(siteVarL), siteMeanR, math.Sqrt(siteVarR))
	if maxLen > maxConvLen {
		maxLen = maxConvLen
	}
	if maxLen < 1 {
		maxLen = 1
	}

	// powers of the joint site prior
	powP := make([]prob.Matrix, bits.Len(uint(maxLen)))
	powP[0] = site
	for i := 1; i < len(powP); i++ {
		powP[i] = powP[i-1].Convolve(2)
	}

	// posterior marginal moments of every used tuple
	type moments struct {
		meanL, varL float64
		meanR, varR float64
		meanT, varT float64
	}
	post := make([]moments, a.NumTuples())
	for t := range used {
		if !used[t] {
			continue
		}
		pt, err := p.JointSite(a, t)
		if err != nil {
			return nil, err
		}
		var mm moments
		mm.meanL, mm.varL = pt.MargX().Stats()
		mm.meanR, mm.varR = pt.MargY().Stats()
		mm.meanT, mm.varT = pt.MargTotal().Stats()
		post[t] = mm
	}

	stats := make([]JointPValues, 0, len(feats))
	for _, f := range feats {
		st := JointPValues{Feature: f}
		l := f.Len()

		var prior prob.Matrix
		var margL, margR prob.Vector
		if l <= maxConvLen {
			maxRows, maxCols := 0, 0
			if l > 25 {
				// bound the support of the joint prior
				// using central limit theorem bounds
				fl := float64(l)
				maxRows = int(math.Ceil(fl*siteMeanL + 6*math.Sqrt(fl*siteVarL)))
				maxCols = int(math.Ceil(fl*siteMeanR + 6*math.Sqrt(fl*siteVarR)))
			} else {
				maxRows = site.Rows() * l
				maxCols = site.Cols() * l
			}
			prior = prob.ConvolveManyFast(lenPowers(l, powP), maxRows, maxCols)
			margL = prior.MargX()
			margR = prior.MargY()
		} else {
			st.Approx = true
			margL = siteMargL.Convolve(l)
			margR = siteMargR.Convolve(l)
		}

		st.Left.PriorMean, st.Left.PriorVar = margL.Stats()
		st.Left.PriorMin, st.Left.PriorMax = margL.ConfidenceInterval(0.95)
		st.Right.PriorMean, st.Right.PriorVar = margR.Stats()
		st.Right.PriorMin, st.Right.PriorMax = margR.ConfidenceInterval(0.95)

		for i := f.Start - 1; i < f.End; i++ {
			mm := post[a.TupleIndex(i)]
			st.Left.PostMean += mm.meanL
			st.Left.PostVar += mm.varL
			st.Right.PostMean += mm.meanR
			st.Right.PostVar += mm.varR
			st.Total.PostMean += mm.meanT
			st.Total.PostVar += mm.varT
		}

		setPostInterval(&st.Left, ci)
		setPostInterval(&st.Right, ci)
		setPostInterval(&st.Total, ci)

		// conditional p-values
		cond, err := conditional(prior, st.Total.PostMin, margL, margR, axisX)
		if err != nil {
			return nil, err
		}
		st.CondPConsLeft = cond.PValue(st.Left.PostMax, prob.Lower)

		cond, err = conditional(prior, st.Total.PostMax, margL, margR, axisX)
		if err != nil {
			return nil, err
		}
		st.CondPAntiConsLeft = cond.PValue(st.Left.PostMin, prob.Upper)

		cond, err = conditional(prior, st.Total.PostMin, margL, margR, axisY)
		if err != nil {
			return nil, err
		}
		st.CondPConsRight = cond.PValue(st.Right.PostMax, prob.Lower)

		cond, err = conditional(prior, st.Total.PostMax, margL, margR, axisY)
		if err != nil {
			return nil, err
		}
		st.CondPAntiConsRight = cond.PValue(st.Right.PostMin, prob.Upper)

		// marginal p-values
		st.PConsLeft = margL.PValue(st.Left.PostMax, prob.Lower)
		st.PAntiConsLeft = margL.PValue(st.Left.PostMin, prob.Upper)
		st.PConsRight = margR.PValue(st.Right.PostMax, prob.Lower)
		st.PAntiConsRight = margR.PValue(st.Right.PostMin, prob.Upper)

		stats = append(stats, st)
	}

	return stats, nil
}

type axis int

const (
	axisX axis = iota
	axisY
)

// conditional returns the distribution of one axis
// given a total count,
// from the explicit joint prior when available,
// or assuming independent axes otherwise.
func conditional(prior prob.Matrix, tot float64, margL, margR prob.Vector, ax axis) (prob.Vector, error) {
	t := int(tot)
	if prior != nil {
		if ax == axisX {
			return prior.XGivenTotal(t)
		}
		return prior.YGivenTotal(t)
	}
	if ax == axisX {
		return prob.XGivenTotalIndep(t, margL, margR)
	}
	return prob.YGivenTotalIndep(t, margL, margR)
}

func setPostInterval(st *SideStats, ci float64) {
	lo, hi := st.PostMean, st.PostMean
	if ci > 0 {
		lo, hi = prob.NormalInterval(st.PostMean, math.Sqrt(st.PostVar), ci)
	}
	st.PostMin = math.Floor(lo)
	if st.PostMin < 0 {
		st.PostMin = 0
	}
	st.PostMax = math.Ceil(hi)
}

// maxConvolveLen returns the longest feature
// for which the explicit joint prior convolution
// stays within the indicated support size,
// using central limit theorem bounds
// on the support of each axis.
// The length is found by iterating upwards
// from an analytic lower bound.
func maxConvolveLen(maxSize int, meanL, sdL, meanR, sdR float64) int {
	l := int(math.Sqrt(float64(maxSize) / ((meanL + 6*sdL) * (meanR + 6*sdR))))
	for {
		l++
		fl := float64(l)
		size := (fl*meanL + 6*sdL*math.Sqrt(fl)) * (fl*meanR + 6*sdR*math.Sqrt(fl))
		if size >= float64(maxSize) {
			break
		}
	}
	return l - 1
}
