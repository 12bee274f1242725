// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package msa

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Read reads a multiple sequence alignment
// from a FASTA file.
//
// In a FASTA file each sequence starts with a header line
// with the taxon name after the '>' character,
// followed by one or more sequence lines:
//
//	> taxon_one
//	ACGTACGT
//	> taxon_two
//	ACGAACGT
func Read(name string) (*Alignment, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	var seqs []string
	var seq strings.Builder

	r := bufio.NewScanner(f)
	for ln := 1; r.Scan(); ln++ {
		line := strings.TrimSpace(r.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if len(names) > 0 {
				seqs = append(seqs, seq.String())
				seq.Reset()
			}
			nm := strings.TrimSpace(strings.TrimPrefix(line, ">"))
			if nm == "" {
				return nil, fmt.Errorf("on file %q: line %d: sequence without a name", name, ln)
			}
			names = append(names, nm)
			continue
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("on file %q: line %d: sequence data before any header", name, ln)
		}
		seq.WriteString(strings.Join(strings.Fields(line), ""))
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("on file %q: no sequences found", name)
	}
	seqs = append(seqs, seq.String())

	a, err := New(names, seqs)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return a, nil
}
