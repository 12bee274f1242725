// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package prob_test

import (
	"math"
	"testing"

	"github.com/js-arias/physub/prob"
)

func TestMatrixMarginals(t *testing.T) {
	p := prob.Matrix{
		{0.1, 0.2},
		{0.3, 0.4},
	}

	mx := p.MargX()
	wantX := prob.Vector{0.3, 0.7}
	for i, v := range mx {
		if math.Abs(v-wantX[i]) > 1e-12 {
			t.Errorf("marg x: at %d: got %g, want %g", i, v, wantX[i])
		}
	}

	my := p.MargY()
	wantY := prob.Vector{0.4, 0.6}
	for i, v := range my {
		if math.Abs(v-wantY[i]) > 1e-12 {
			t.Errorf("marg y: at %d: got %g, want %g", i, v, wantY[i])
		}
	}

	mt := p.MargTotal()
	wantT := prob.Vector{0.1, 0.5, 0.4}
	for i, v := range mt {
		if math.Abs(v-wantT[i]) > 1e-12 {
			t.Errorf("marg total: at %d: got %g, want %g", i, v, wantT[i])
		}
	}
}

func TestMatrixStats(t *testing.T) {
	p := prob.Matrix{
		{0.1, 0.2},
		{0.3, 0.4},
	}
	meanX, meanY, varX, varY, cov := p.Stats()
	if math.Abs(meanX-0.7) > 1e-12 {
		t.Errorf("stats: got mean x %g, want %g", meanX, 0.7)
	}
	if math.Abs(meanY-0.6) > 1e-12 {
		t.Errorf("stats: got mean y %g, want %g", meanY, 0.6)
	}
	if math.Abs(varX-0.21) > 1e-12 {
		t.Errorf("stats: got var x %g, want %g", varX, 0.21)
	}
	if math.Abs(varY-0.24) > 1e-12 {
		t.Errorf("stats: got var y %g, want %g", varY, 0.24)
	}
	wantCov := 0.4 - 0.7*0.6
	if math.Abs(cov-wantCov) > 1e-12 {
		t.Errorf("stats: got cov %g, want %g", cov, wantCov)
	}
}

func TestXGivenTotal(t *testing.T) {
	p := prob.Matrix{
		{0.1, 0.2},
		{0.3, 0.4},
	}

	cond, err := p.XGivenTotal(1)
	if err != nil {
		t.Fatalf("conditional: unexpected error: %v", err)
	}
	want := prob.Vector{0.4, 0.6}
	for i, v := range cond {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("conditional: at %d: got %g, want %g", i, v, want[i])
		}
	}

	if _, err := p.XGivenTotal(10); err == nil {
		t.Errorf("conditional: expecting error for a total without mass")
	}
}

func TestXGivenTotalIndep(t *testing.T) {
	px := prob.Vector{0.5, 0.5}
	py := prob.Vector{0.25, 0.75}

	cond, err := prob.XGivenTotalIndep(1, px, py)
	if err != nil {
		t.Fatalf("conditional: unexpected error: %v", err)
	}
	// joint is the outer product:
	// p(x=0, y=1) = 0.375, p(x=1, y=0) = 0.125
	want := prob.Vector{0.75, 0.25}
	for i, v := range cond {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("conditional: at %d: got %g, want %g", i, v, want[i])
		}
	}

	// on an explicit independent joint
	// both conditionals must agree
	p := prob.Matrix{
		{px[0] * py[0], px[0] * py[1]},
		{px[1] * py[0], px[1] * py[1]},
	}
	exact, err := p.XGivenTotal(1)
	if err != nil {
		t.Fatalf("conditional: unexpected error: %v", err)
	}
	for i, v := range exact {
		if math.Abs(v-cond[i]) > 1e-12 {
			t.Errorf("conditional: at %d: explicit %g, independent %g", i, v, cond[i])
		}
	}
}

func TestMatrixConvolve(t *testing.T) {
	p := prob.Matrix{
		{0.1, 0.2},
		{0.3, 0.4},
	}

	got := p.Convolve(2)

	// marginal-convolution commutativity
	wantX := p.MargX().Convolve(2)
	gotX := got.MargX()
	for i, v := range gotX {
		if math.Abs(v-wantX[i]) > 1e-9 {
			t.Errorf("marg of convolution: at %d: got %g, want %g", i, v, wantX[i])
		}
	}
	wantY := p.MargY().Convolve(2)
	gotY := got.MargY()
	for i, v := range gotY {
		if math.Abs(v-wantY[i]) > 1e-9 {
			t.Errorf("marg of convolution: at %d: got %g, want %g", i, v, wantY[i])
		}
	}

	// identity
	one := prob.Matrix{{1}}
	many := prob.ConvolveManyFast([]prob.Matrix{p, one}, 0, 0)
	for x, r := range many {
		for y, v := range r {
			if math.Abs(v-p[x][y]) > 1e-12 {
				t.Errorf("convolve with point mass: at %d,%d: got %g, want %g", x, y, v, p[x][y])
			}
		}
	}
}

func TestMatrixConvolveBounded(t *testing.T) {
	p := prob.Matrix{
		{0.1, 0.2},
		{0.3, 0.4},
	}

	full := prob.ConvolveManyFast([]prob.Matrix{p, p, p}, 0, 0)
	bounded := prob.ConvolveManyFast([]prob.Matrix{p, p, p}, 3, 3)

	if bounded.Rows() > 3 || bounded.Cols() > 3 {
		t.Fatalf("bounded convolution: got %d x %d, want at most 3 x 3", bounded.Rows(), bounded.Cols())
	}

	// the retained cells keep their relative mass
	var keep float64
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			keep += full[x][y]
		}
	}
	for x := 0; x < bounded.Rows(); x++ {
		for y := 0; y < bounded.Cols(); y++ {
			want := full[x][y] / keep
			if math.Abs(bounded[x][y]-want) > 1e-9 {
				t.Errorf("bounded convolution: at %d,%d: got %g, want %g", x, y, bounded[x][y], want)
			}
		}
	}
}

func TestMatrixTrim(t *testing.T) {
	p := prob.Matrix{
		{0.5, 0.2, 1e-12},
		{0.3, 1e-11, 1e-13},
		{1e-12, 1e-13, 1e-14},
	}
	got := p.Trim()
	if got.Rows() != 2 || got.Cols() != 2 {
		t.Errorf("trim: got %d x %d, want 2 x 2", got.Rows(), got.Cols())
	}
}
