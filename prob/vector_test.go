// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package prob_test

import (
	"math"
	"slices"
	"testing"

	"github.com/js-arias/physub/prob"
)

func TestNormalize(t *testing.T) {
	p := prob.Vector{1, 2, 1}
	if err := p.Normalize(); err != nil {
		t.Fatalf("normalize: unexpected error: %v", err)
	}
	want := prob.Vector{0.25, 0.5, 0.25}
	for i, v := range p {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("normalize: at %d: got %g, want %g", i, v, want[i])
		}
	}

	// idempotence
	q := slices.Clone(p)
	if err := q.Normalize(); err != nil {
		t.Fatalf("normalize: unexpected error: %v", err)
	}
	for i, v := range q {
		if math.Abs(v-p[i]) > 1e-12 {
			t.Errorf("normalize twice: at %d: got %g, want %g", i, v, p[i])
		}
	}

	z := prob.Vector{0, 0}
	if err := z.Normalize(); err == nil {
		t.Errorf("normalize: expecting error for an all-zero vector")
	}
}

func TestStats(t *testing.T) {
	p := prob.Vector{0.5, 0.5}
	mean, variance := p.Stats()
	if math.Abs(mean-0.5) > 1e-12 {
		t.Errorf("stats: got mean %g, want %g", mean, 0.5)
	}
	if math.Abs(variance-0.25) > 1e-12 {
		t.Errorf("stats: got variance %g, want %g", variance, 0.25)
	}
}

func TestConfidenceInterval(t *testing.T) {
	p := prob.Vector{0.025, 0.95, 0.025}
	lo, hi := p.ConfidenceInterval(0.90)
	if lo != 1 || hi != 1 {
		t.Errorf("confidence interval: got [%d, %d], want [1, 1]", lo, hi)
	}

	lo, hi = p.ConfidenceInterval(0.99)
	if lo != 0 || hi != 2 {
		t.Errorf("confidence interval: got [%d, %d], want [0, 2]", lo, hi)
	}

	// point mass
	pm := prob.PointMass(0)
	lo, hi = pm.ConfidenceInterval(0.95)
	if lo != 0 || hi != 0 {
		t.Errorf("confidence interval: got [%d, %d], want [0, 0]", lo, hi)
	}
}

func TestPValue(t *testing.T) {
	p := prob.Vector{0.2, 0.3, 0.5}
	if v := p.PValue(1, prob.Lower); math.Abs(v-0.5) > 1e-12 {
		t.Errorf("p-value lower: got %g, want %g", v, 0.5)
	}
	if v := p.PValue(1, prob.Upper); math.Abs(v-0.8) > 1e-12 {
		t.Errorf("p-value upper: got %g, want %g", v, 0.8)
	}
	if v := p.PValue(10, prob.Lower); math.Abs(v-1) > 1e-12 {
		t.Errorf("p-value beyond support: got %g, want %g", v, 1.0)
	}
	if v := p.PValue(10, prob.Upper); v != 0 {
		t.Errorf("p-value beyond support: got %g, want %g", v, 0.0)
	}
}

func TestConvolve(t *testing.T) {
	p := prob.Vector{0.5, 0.5}

	// identity
	got := p.Convolve(1)
	for i, v := range got {
		if math.Abs(v-p[i]) > 1e-12 {
			t.Errorf("convolve 1: at %d: got %g, want %g", i, v, p[i])
		}
	}

	// sum of two fair coins
	got = p.Convolve(2)
	want := prob.Vector{0.25, 0.5, 0.25}
	if len(got) != len(want) {
		t.Fatalf("convolve 2: got %d values, want %d", len(got), len(want))
	}
	for i, v := range got {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("convolve 2: at %d: got %g, want %g", i, v, want[i])
		}
	}

	// binomial(4, 0.5) by repeated doubling
	got = p.Convolve(4)
	want = prob.Vector{0.0625, 0.25, 0.375, 0.25, 0.0625}
	for i, v := range got {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("convolve 4: at %d: got %g, want %g", i, v, want[i])
		}
	}
}

func TestConvolveMany(t *testing.T) {
	p := prob.Vector{0.5, 0.5}

	// convolution with a point mass at zero
	// leaves the distribution unchanged
	got := prob.ConvolveMany([]prob.Vector{p, {1}}, nil)
	for i, v := range got {
		if math.Abs(v-p[i]) > 1e-12 {
			t.Errorf("convolve with point mass: at %d: got %g, want %g", i, v, p[i])
		}
	}

	// counts equal repeated convolution
	got = prob.ConvolveMany([]prob.Vector{p}, []int{4})
	want := p.Convolve(4)
	for i, v := range got {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("convolve counts: at %d: got %g, want %g", i, v, want[i])
		}
	}
}

func TestPoisson(t *testing.T) {
	p := prob.Poisson(2.5)
	if s := p.Sum(); math.Abs(s-1) > 1e-9 {
		t.Errorf("poisson: sums to %g", s)
	}
	mean, _ := p.Stats()
	if math.Abs(mean-2.5) > 1e-6 {
		t.Errorf("poisson: got mean %g, want %g", mean, 2.5)
	}

	p = prob.Poisson(0)
	if len(p) != 1 || p[0] != 1 {
		t.Errorf("poisson rate 0: got %v, want point mass at 0", p)
	}
}

func TestTrimTail(t *testing.T) {
	p := prob.Vector{0.5, 0, 0.5, 1e-12, 1e-13}
	got := p.TrimTail()
	if len(got) != 3 {
		t.Errorf("trim: got %d values, want %d", len(got), 3)
	}
	if got[1] != 0 {
		t.Errorf("trim: interior zero removed")
	}
}

func TestNormalInterval(t *testing.T) {
	lo, hi := prob.NormalInterval(0, 1, 0.95)
	if math.Abs(lo+1.959964) > 1e-4 || math.Abs(hi-1.959964) > 1e-4 {
		t.Errorf("normal interval: got [%g, %g], want [-1.96, 1.96]", lo, hi)
	}
}
