// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package msa implements a multiple sequence alignment
// with the sufficient statistics
// used for substitution counting:
// the distinct site columns
// and their frequencies.
package msa

import (
	"fmt"
	"strings"
)

// GapChar is the character used for alignment gaps.
const GapChar = '-'

// IsMissing reports whether a character
// is a missing data indicator.
func IsMissing(c byte) bool {
	switch c {
	case 'N', 'n', 'X', 'x', '?', '*':
		return true
	}
	return false
}

// An Alignment is a multiple sequence alignment.
// Its columns are stored as sufficient statistics:
// the distinct column patterns
// (tuples)
// with their counts,
// and the tuple of each column.
type Alignment struct {
	names  []string
	lookup map[string]int

	cols int

	tuples   []string
	counts   []int
	tupleIDx []int
}

// New creates an alignment from a set of taxon names
// and their aligned sequences.
// All sequences must have the same length
// and taxon names must be unique.
func New(names []string, seqs []string) (*Alignment, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("msa: alignment without sequences")
	}
	if len(names) != len(seqs) {
		return nil, fmt.Errorf("msa: got %d names for %d sequences", len(names), len(seqs))
	}

	a := &Alignment{
		names:  make([]string, len(names)),
		lookup: make(map[string]int, len(names)),
		cols:   len(seqs[0]),
	}
	up := make([]string, len(seqs))
	for i, nm := range names {
		nm = strings.TrimSpace(nm)
		if nm == "" {
			return nil, fmt.Errorf("msa: sequence %d without a name", i+1)
		}
		if _, dup := a.lookup[nm]; dup {
			return nil, fmt.Errorf("msa: repeated taxon name %q", nm)
		}
		if len(seqs[i]) != a.cols {
			return nil, fmt.Errorf("msa: sequence %q has %d sites, want %d", nm, len(seqs[i]), a.cols)
		}
		a.names[i] = nm
		a.lookup[nm] = i
		up[i] = strings.ToUpper(seqs[i])
	}

	// sufficient statistics
	seen := make(map[string]int)
	a.tupleIDx = make([]int, a.cols)
	col := make([]byte, len(up))
	for i := 0; i < a.cols; i++ {
		for j, s := range up {
			col[j] = s[i]
		}
		tup := string(col)
		x, ok := seen[tup]
		if !ok {
			x = len(a.tuples)
			seen[tup] = x
			a.tuples = append(a.tuples, tup)
			a.counts = append(a.counts, 0)
		}
		a.counts[x]++
		a.tupleIDx[i] = x
	}

	return a, nil
}

// NumSeq returns the number of sequences
// in the alignment.
func (a *Alignment) NumSeq() int {
	return len(a.names)
}

// Len returns the number of columns
// of the alignment.
func (a *Alignment) Len() int {
	return a.cols
}

// Taxon returns the taxon name
// of the indicated alignment row.
func (a *Alignment) Taxon(i int) string {
	return a.names[i]
}

// SeqIndex returns the row of the indicated taxon,
// or -1 if the taxon is not in the alignment.
func (a *Alignment) SeqIndex(name string) int {
	if i, ok := a.lookup[strings.TrimSpace(name)]; ok {
		return i
	}
	return -1
}

// NumTuples returns the number of distinct columns
// of the alignment.
func (a *Alignment) NumTuples() int {
	return len(a.tuples)
}

// Count returns the number of columns
// with the indicated tuple.
func (a *Alignment) Count(tuple int) int {
	return a.counts[tuple]
}

// TupleIndex returns the tuple
// of the indicated alignment column.
func (a *Alignment) TupleIndex(col int) int {
	return a.tupleIDx[col]
}

// Char returns the character of the indicated tuple
// at the indicated alignment row.
func (a *Alignment) Char(tuple, row int) byte {
	return a.tuples[tuple][row]
}
