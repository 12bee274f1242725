// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package entropy_test

import (
	"math"
	"strings"
	"testing"

	"github.com/js-arias/physub/entropy"
	"github.com/js-arias/physub/model"
	"github.com/js-arias/timetree"
)

const treeTSV = `# a phylogenetic tree
tree	node	parent	age	taxon
two	0	-1	100000	
two	1	0	0	tip_a
two	2	0	0	tip_b
`

func readModels(t testing.TB) (cons, noncons *model.Model) {
	t.Helper()

	c, err := timetree.ReadTSV(strings.NewReader(treeTSV))
	if err != nil {
		t.Fatalf("error when reading tree: %v", err)
	}
	tr := c.Tree(c.Names()[0])
	if tr == nil {
		t.Fatalf("tree not found in collection")
	}

	noncons, err = model.JukesCantor(tr)
	if err != nil {
		t.Fatalf("error when building model: %v", err)
	}

	// the conserved model has half the branch lengths
	cons, err = noncons.Rescale(0.5)
	if err != nil {
		t.Fatalf("error when rescaling model: %v", err)
	}
	return cons, noncons
}

func TestRelative(t *testing.T) {
	cons, noncons := readModels(t)

	h, hAlt, err := entropy.Relative(cons, noncons)
	if err != nil {
		t.Fatalf("error when computing relative entropy: %v", err)
	}
	if h <= 0 {
		t.Errorf("relative entropy: got H = %g, want > 0", h)
	}
	if hAlt <= 0 {
		t.Errorf("relative entropy: got H_alt = %g, want > 0", hAlt)
	}

	// a model against itself carries no information
	h, hAlt, err = entropy.Relative(noncons, noncons)
	if err != nil {
		t.Fatalf("error when computing relative entropy: %v", err)
	}
	if math.Abs(h) > 1e-9 || math.Abs(hAlt) > 1e-9 {
		t.Errorf("self relative entropy: got H = %g, H_alt = %g, want 0", h, hAlt)
	}
}

func TestLengths(t *testing.T) {
	cons, noncons := readModels(t)

	h, hAlt, err := entropy.Relative(cons, noncons)
	if err != nil {
		t.Fatalf("error when computing relative entropy: %v", err)
	}

	lMin, lMax, err := entropy.Lengths(h, hAlt, 0.3, 45)
	if err != nil {
		t.Fatalf("error when computing lengths: %v", err)
	}
	if lMin <= 0 || math.IsInf(lMin, 0) {
		t.Errorf("expected min length: got %g, want a positive finite value", lMin)
	}
	if lMax <= 0 || math.IsInf(lMax, 0) {
		t.Errorf("expected max length: got %g, want a positive finite value", lMax)
	}
	if v := lMin * h; math.IsInf(v, 0) || math.IsNaN(v) {
		t.Errorf("total entropy: got %g, want a finite value", v)
	}

	if _, _, err := entropy.Lengths(h, hAlt, 1.5, 45); err == nil {
		t.Errorf("expecting error for a coverage outside (0, 1)")
	}
	if _, _, err := entropy.Lengths(h, hAlt, 0.3, -1); err == nil {
		t.Errorf("expecting error for a negative expected length")
	}
}

func TestSolveNewton(t *testing.T) {
	cons, noncons := readModels(t)

	h, hAlt, err := entropy.Relative(cons, noncons)
	if err != nil {
		t.Fatalf("error when computing relative entropy: %v", err)
	}
	lMin, _, err := entropy.Lengths(h, hAlt, 0.3, 45)
	if err != nil {
		t.Fatalf("error when computing lengths: %v", err)
	}

	// inverting at the current value of L_min*H
	// must recover the expected length
	got, err := entropy.SolveNewton(45, 0.3, h, lMin*h, nil)
	if err != nil {
		t.Fatalf("error when solving: %v", err)
	}
	if math.Abs(got-45)/45 > 0.01 {
		t.Errorf("solved length: got %g, want %g", got, 45.0)
	}
}

func TestSolveNewtonErrors(t *testing.T) {
	if _, err := entropy.SolveNewton(45, 1.5, 0.05, 10, nil); err == nil {
		t.Errorf("expecting error for a coverage outside (0, 1)")
	}
	if _, err := entropy.SolveNewton(0, 0.3, 0.05, 10, nil); err == nil {
		t.Errorf("expecting error for a nonpositive expected length")
	}
}
