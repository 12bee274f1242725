// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package model implements a continuous-time Markov model
// of character substitution
// on a rooted phylogenetic tree.
package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/js-arias/physub/msa"
	"github.com/js-arias/timetree"
	"gonum.org/v1/gonum/mat"
)

// MillionYears is the scale between the ages of a tree
// (in years)
// and branch lengths
// (in expected substitutions per site).
const MillionYears = 1_000_000

// rowSumTol is the tolerance for the row sums
// of a rate matrix.
const rowSumTol = 1e-6

// freqTol is the tolerance for the sum
// of the background frequencies.
const freqTol = 1e-4

// A Model is a substitution model
// over a rooted binary phylogenetic tree.
// It is immutable after construction.
type Model struct {
	t        *timetree.Tree
	alphabet string
	lookup   map[byte]int
	q        *mat.Dense
	freqs    []float64

	brLen map[int]float64
	post  []int // postorder traversal of the node ids

	seqIDx map[int]int // leaf id -> alignment row, built lazily
}

// New creates a new substitution model
// from a rooted binary tree,
// an alphabet of state symbols,
// a rate matrix
// (with zero row sums
// and non-negative values outside the diagonal),
// and the background frequencies at equilibrium.
func New(t *timetree.Tree, alphabet string, q *mat.Dense, freqs []float64) (*Model, error) {
	alphabet = strings.ToUpper(alphabet)
	s := len(alphabet)
	if s == 0 {
		return nil, fmt.Errorf("model: empty alphabet")
	}

	lookup := make(map[byte]int, s)
	for i := 0; i < s; i++ {
		c := alphabet[i]
		if _, dup := lookup[c]; dup {
			return nil, fmt.Errorf("model: repeated state %q in alphabet", c)
		}
		lookup[c] = i
	}

	r, c := q.Dims()
	if r != s || c != s {
		return nil, fmt.Errorf("model: rate matrix is %d x %d, want %d x %d", r, c, s, s)
	}
	for i := 0; i < s; i++ {
		var sum float64
		for j := 0; j < s; j++ {
			v := q.At(i, j)
			if i != j && v < 0 {
				return nil, fmt.Errorf("model: negative rate %g at %d,%d", v, i, j)
			}
			sum += v
		}
		if math.Abs(sum) > rowSumTol {
			return nil, fmt.Errorf("model: rate matrix row %d sums to %g", i, sum)
		}
	}

	if len(freqs) != s {
		return nil, fmt.Errorf("model: got %d background frequencies, want %d", len(freqs), s)
	}
	var sum float64
	for i, f := range freqs {
		if f < 0 {
			return nil, fmt.Errorf("model: negative background frequency %g for state %q", f, alphabet[i])
		}
		sum += f
	}
	if math.Abs(sum-1) > freqTol {
		return nil, fmt.Errorf("model: background frequencies sum to %g", sum)
	}

	m := &Model{
		t:        t,
		alphabet: alphabet,
		lookup:   lookup,
		q:        q,
		freqs:    freqs,
		brLen:    make(map[int]float64, len(t.Nodes())),
	}

	for _, id := range t.Nodes() {
		children := t.Children(id)
		if len(children) != 0 && len(children) != 2 {
			return nil, fmt.Errorf("model: node %d has %d children, tree must be binary", id, len(children))
		}
		if t.IsRoot(id) {
			continue
		}
		bl := float64(t.Age(t.Parent(id))-t.Age(id)) / MillionYears
		if bl < 0 {
			return nil, fmt.Errorf("model: negative branch length %g at node %d", bl, id)
		}
		m.brLen[id] = bl
	}
	m.post = postorder(t, t.Root(), nil)

	return m, nil
}

// JukesCantor creates a nucleotide model
// in which all substitutions are equally probable,
// with a total rate of one substitution
// per site
// per unit of branch length.
func JukesCantor(t *timetree.Tree) (*Model, error) {
	const alphabet = "ACGT"
	q := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				q.Set(i, j, -1)
				continue
			}
			q.Set(i, j, 1.0/3)
		}
	}
	freqs := []float64{0.25, 0.25, 0.25, 0.25}
	return New(t, alphabet, q, freqs)
}

func postorder(t *timetree.Tree, id int, ids []int) []int {
	for _, c := range t.Children(id) {
		ids = postorder(t, c, ids)
	}
	return append(ids, id)
}

// Alphabet returns the state symbols of the model.
func (m *Model) Alphabet() string {
	return m.alphabet
}

// States returns the number of states of the model.
func (m *Model) States() int {
	return len(m.alphabet)
}

// Index returns the state index of a character,
// or -1 if the character is not part of the alphabet.
func (m *Model) Index(c byte) int {
	if i, ok := m.lookup[upper(c)]; ok {
		return i
	}
	return -1
}

// Freq returns the background frequency
// of the indicated state.
func (m *Model) Freq(i int) float64 {
	return m.freqs[i]
}

// Rate returns the substitution rate
// between two states.
func (m *Model) Rate(i, j int) float64 {
	return m.q.At(i, j)
}

// Tree returns the underlying phylogenetic tree.
func (m *Model) Tree() *timetree.Tree {
	return m.t
}

// Root returns the id of the root node.
func (m *Model) Root() int {
	return m.t.Root()
}

// Children returns the ids of the children
// of the indicated node.
func (m *Model) Children(id int) []int {
	return m.t.Children(id)
}

// IsTerm reports whether a node is a terminal.
func (m *Model) IsTerm(id int) bool {
	return m.t.IsTerm(id)
}

// Taxon returns the taxon name of a terminal node.
func (m *Model) Taxon(id int) string {
	return m.t.Taxon(id)
}

// Postorder returns the node ids of the tree
// in postorder.
func (m *Model) Postorder() []int {
	return m.post
}

// NumNodes returns the number of nodes of the tree.
func (m *Model) NumNodes() int {
	return len(m.post)
}

// BranchLen returns the length of the branch
// between a node and its parent,
// in expected substitutions per site.
// At the root it returns zero.
func (m *Model) BranchLen(id int) float64 {
	return m.brLen[id]
}

// TotalLen returns the sum of all branch lengths
// of the tree.
func (m *Model) TotalLen() float64 {
	var sum float64
	for _, v := range m.brLen {
		sum += v
	}
	return sum
}

// Rescale returns a copy of the model
// with all branch lengths multiplied
// by the indicated factor.
func (m *Model) Rescale(f float64) (*Model, error) {
	if f < 0 {
		return nil, fmt.Errorf("model: negative scale factor %g", f)
	}
	nm := &Model{
		t:        m.t,
		alphabet: m.alphabet,
		lookup:   m.lookup,
		q:        m.q,
		freqs:    m.freqs,
		brLen:    make(map[int]float64, len(m.brLen)),
		post:     m.post,
	}
	for id, v := range m.brLen {
		nm.brLen[id] = v * f
	}
	return nm, nil
}

// SeqIndex returns the alignment row
// of every terminal node of the tree.
// Taxon names are matched exactly
// or, failing that, ignoring letter case.
// The index is built on the first call
// and cached in the model.
func (m *Model) SeqIndex(a *msa.Alignment) (map[int]int, error) {
	if m.seqIDx != nil {
		return m.seqIDx, nil
	}

	idx := make(map[int]int)
	for _, id := range m.post {
		if !m.t.IsTerm(id) {
			continue
		}
		name := m.t.Taxon(id)
		r := a.SeqIndex(name)
		if r < 0 {
			// the tree may store taxon names
			// in a different letter case
			for i := 0; i < a.NumSeq(); i++ {
				if strings.EqualFold(strings.TrimSpace(a.Taxon(i)), strings.TrimSpace(name)) {
					r = i
					break
				}
			}
		}
		if r < 0 {
			return nil, fmt.Errorf("model: taxon %q not in alignment", name)
		}
		idx[id] = r
	}
	m.seqIDx = idx
	return idx, nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
