// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package subst_test

import (
	"math"
	"strings"
	"testing"

	"github.com/js-arias/physub/model"
	"github.com/js-arias/physub/msa"
	"github.com/js-arias/physub/prob"
	"github.com/js-arias/physub/subst"
	"github.com/js-arias/timetree"
)

// A two terminal tree
// with branch lengths of 0.1 substitutions per site.
const twoTipTree = `# a phylogenetic tree
tree	node	parent	age	taxon
two	0	-1	100000	
two	1	0	0	tip_a
two	2	0	0	tip_b
`

// A three terminal tree
// with all branch lengths of 0.05 substitutions per site.
const threeTipTree = `# a phylogenetic tree
tree	node	parent	age	taxon
three	0	-1	100000	
three	1	0	50000	tip_a
three	2	0	50000	
three	3	2	0	tip_b
three	4	2	0	tip_c
`

// A two terminal tree
// with zero length branches.
const zeroTree = `# a phylogenetic tree
tree	node	parent	age	taxon
zero	0	-1	0	
zero	1	0	0	tip_a
zero	2	0	0	tip_b
`

func newProcess(t testing.TB, tsv string) *subst.Process {
	t.Helper()

	c, err := timetree.ReadTSV(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("error when reading tree: %v", err)
	}
	tr := c.Tree(c.Names()[0])
	if tr == nil {
		t.Fatalf("tree not found in collection")
	}
	m, err := model.JukesCantor(tr)
	if err != nil {
		t.Fatalf("error when building model: %v", err)
	}
	p, err := subst.New(m)
	if err != nil {
		t.Fatalf("error when building jump process: %v", err)
	}
	return p
}

func TestProcessInvariants(t *testing.T) {
	p := newProcess(t, twoTipTree)

	if p.Lambda() != 1 {
		t.Errorf("lambda: got %g, want %g", p.Lambda(), 1.0)
	}
	if p.MaxJumps() != 20 {
		t.Errorf("max jumps: got %d, want %d", p.MaxJumps(), 20)
	}

	for j := 0; j < p.MaxJumps(); j++ {
		if s := p.JumpSum(-1, j); math.Abs(s-1) > 1e-9 {
			t.Errorf("jump table: at %d jumps: sums to %g", j, s)
		}
		for a := 0; a < p.Model().States(); a++ {
			if s := p.JumpSum(a, j); math.Abs(s-1) > 1e-9 {
				t.Errorf("jump table for start %d: at %d jumps: sums to %g", a, j, s)
			}
		}
	}

	for _, id := range p.Model().Postorder() {
		if id == p.Model().Root() {
			continue
		}
		br := p.Branch(id)
		for a := 0; a < p.Model().States(); a++ {
			if s := br[a].Sum(); math.Abs(s-1) > 1e-6 {
				t.Errorf("branch of node %d: start %d sums to %g", id, a, s)
			}
		}
	}
}

func TestBranchZeroLength(t *testing.T) {
	p := newProcess(t, twoTipTree)

	br, err := p.NewBranch(0)
	if err != nil {
		t.Fatalf("error when building branch: %v", err)
	}
	for a := 0; a < p.Model().States(); a++ {
		for b := 0; b < p.Model().States(); b++ {
			for n, v := range br[a][b] {
				want := 0.0
				if a == b && n == 0 {
					want = 1
				}
				if math.Abs(v-want) > 1e-12 {
					t.Errorf("zero branch: at %d,%d,%d: got %g, want %g", a, b, n, v, want)
				}
			}
		}
	}

	if _, err := p.NewBranch(-1); err == nil {
		t.Errorf("expecting error for a negative branch length")
	}
}

func TestPriorSite(t *testing.T) {
	p := newProcess(t, twoTipTree)

	prior, err := p.PriorSite()
	if err != nil {
		t.Fatalf("error when building site prior: %v", err)
	}
	if s := prior.Sum(); math.Abs(s-1) > 1e-6 {
		t.Errorf("site prior: sums to %g", s)
	}

	// in a Jukes-Cantor model every jump is a substitution,
	// so the site prior is the Poisson
	// of the total branch length
	mean, _ := prior.Stats()
	if math.Abs(mean-0.2) > 1e-6 {
		t.Errorf("site prior: got mean %g, want %g", mean, 0.2)
	}

	// an alignment prior of n sites
	// has n times the site mean
	al, err := p.PriorAlignment(10)
	if err != nil {
		t.Fatalf("error when building alignment prior: %v", err)
	}
	mean, _ = al.Stats()
	if math.Abs(mean-2) > 1e-6 {
		t.Errorf("alignment prior: got mean %g, want %g", mean, 2.0)
	}
}

func TestPosteriorIdenticalColumn(t *testing.T) {
	p := newProcess(t, twoTipTree)
	a, err := msa.New([]string{"tip_a", "tip_b"}, []string{"A", "A"})
	if err != nil {
		t.Fatalf("error when building alignment: %v", err)
	}

	post, err := p.PosteriorSite(a, 0)
	if err != nil {
		t.Fatalf("error when building posterior: %v", err)
	}

	if s := post.Sum(); math.Abs(s-1) > 1e-6 {
		t.Errorf("posterior: sums to %g", s)
	}
	for n, v := range post {
		if v < 0 {
			t.Errorf("posterior: negative probability %g at %d", v, n)
		}
	}
	if post[0] < 0.8 {
		t.Errorf("posterior of identical column: P(0) = %g, want > 0.8", post[0])
	}
}

func TestPosteriorTransversionColumn(t *testing.T) {
	p := newProcess(t, twoTipTree)
	a, err := msa.New([]string{"tip_a", "tip_b"}, []string{"A", "T"})
	if err != nil {
		t.Fatalf("error when building alignment: %v", err)
	}

	post, err := p.PosteriorSite(a, 0)
	if err != nil {
		t.Fatalf("error when building posterior: %v", err)
	}

	// a substitution must have happened
	if post[0] > 1e-9 {
		t.Errorf("posterior of a transversion: P(0) = %g, want 0", post[0])
	}
	mean, _ := post.Stats()
	if mean <= 1 {
		t.Errorf("posterior of a transversion: mean %g, want > 1", mean)
	}
}

func TestPosteriorMissingData(t *testing.T) {
	p := newProcess(t, twoTipTree)
	a, err := msa.New([]string{"tip_a", "tip_b"}, []string{"N", "-"})
	if err != nil {
		t.Fatalf("error when building alignment: %v", err)
	}

	// a column without observations
	// has the prior distribution
	post, err := p.PosteriorSite(a, 0)
	if err != nil {
		t.Fatalf("error when building posterior: %v", err)
	}
	prior, err := p.PriorSite()
	if err != nil {
		t.Fatalf("error when building prior: %v", err)
	}

	n := min(len(post), len(prior))
	for i := 0; i < n; i++ {
		if math.Abs(post[i]-prior[i]) > 1e-6 {
			t.Errorf("posterior of missing data: at %d: got %g, want %g", i, post[i], prior[i])
		}
	}
}

func TestPosteriorBadCharacter(t *testing.T) {
	p := newProcess(t, twoTipTree)
	a, err := msa.New([]string{"tip_a", "tip_b"}, []string{"A", "B"})
	if err != nil {
		t.Fatalf("error when building alignment: %v", err)
	}

	if _, err := p.PosteriorSite(a, 0); err == nil {
		t.Errorf("expecting error for a character outside the alphabet")
	}
}

func TestZeroLengthTree(t *testing.T) {
	p := newProcess(t, zeroTree)
	a, err := msa.New([]string{"tip_a", "tip_b"}, []string{"A", "A"})
	if err != nil {
		t.Fatalf("error when building alignment: %v", err)
	}

	post, err := p.PosteriorSite(a, 0)
	if err != nil {
		t.Fatalf("error when building posterior: %v", err)
	}
	if math.Abs(post[0]-1) > 1e-12 {
		t.Errorf("posterior on a zero length tree: P(0) = %g, want 1", post[0])
	}
}

func TestJointPrior(t *testing.T) {
	p := newProcess(t, threeTipTree)

	joint, err := p.PriorJointSite()
	if err != nil {
		t.Fatalf("error when building joint prior: %v", err)
	}
	if s := joint.Sum(); math.Abs(s-1) > 1e-6 {
		t.Errorf("joint prior: sums to %g", s)
	}

	// under Jukes-Cantor the subtree counts
	// are independent in the prior,
	// so the total marginal is the convolution
	// of the axis marginals
	tot := joint.MargTotal()
	conv := prob.ConvolveMany([]prob.Vector{joint.MargX(), joint.MargY()}, nil)
	n := min(len(tot), len(conv))
	for i := 0; i < n; i++ {
		if math.Abs(tot[i]-conv[i]) > 1e-9 {
			t.Errorf("total marginal: at %d: got %g, want %g", i, tot[i], conv[i])
		}
	}

	// left is the tip branch (0.05),
	// right is the two-branch subtree (0.1)
	meanL, _ := joint.MargX().Stats()
	meanR, _ := joint.MargY().Stats()
	if math.Abs(meanL-0.05) > 1e-6 {
		t.Errorf("left prior mean: got %g, want %g", meanL, 0.05)
	}
	if math.Abs(meanR-0.1) > 1e-6 {
		t.Errorf("right prior mean: got %g, want %g", meanR, 0.1)
	}
}

func TestJointPosterior(t *testing.T) {
	p := newProcess(t, threeTipTree)
	a, err := msa.New([]string{"tip_a", "tip_b", "tip_c"}, []string{"A", "A", "C"})
	if err != nil {
		t.Fatalf("error when building alignment: %v", err)
	}

	joint, err := p.JointSite(a, 0)
	if err != nil {
		t.Fatalf("error when building joint posterior: %v", err)
	}
	if s := joint.Sum(); math.Abs(s-1) > 1e-6 {
		t.Errorf("joint posterior: sums to %g", s)
	}
	for x, r := range joint {
		for y, v := range r {
			if v < 0 {
				t.Errorf("joint posterior: negative probability %g at %d,%d", v, x, y)
			}
		}
	}

	// the variable character is in the right subtree,
	// so the marginals must differ
	meanL, _ := joint.MargX().Stats()
	meanR, _ := joint.MargY().Stats()
	if meanR-meanL < 0.1 {
		t.Errorf("marginal means: left %g, right %g, want a clear difference", meanL, meanR)
	}
}
