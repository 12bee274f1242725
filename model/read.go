// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package model

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/timetree"
	"gonum.org/v1/gonum/mat"
)

// Param is a keyword to identify
// the type of parameter in a model file.
type Param string

// Valid parameters.
const (
	// Alphabet is the string of state symbols.
	Alphabet Param = "alphabet"

	// Frequencies are the background frequencies,
	// as space separated values,
	// one per state.
	Frequencies Param = "frequencies"

	// Rate is a row of the rate matrix,
	// as space separated values.
	// There must be one rate row per state,
	// in alphabet order.
	Rate Param = "rate"
)

var header = []string{
	"parameter",
	"value",
}

// Read reads a substitution model from a TSV file,
// using the indicated tree.
//
// The TSV file must contain the following fields:
//
//   - parameter, the name of the parameter
//   - value, the value of the parameter
//
// Here is an example file:
//
//	# physub substitution model
//	parameter	value
//	alphabet	ACGT
//	frequencies	0.25 0.25 0.25 0.25
//	rate	-1 0.333333 0.333333 0.333333
//	rate	0.333333 -1 0.333333 0.333333
//	rate	0.333333 0.333333 -1 0.333333
//	rate	0.333333 0.333333 0.333333 -1
func Read(name string, t *timetree.Tree) (*Model, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tsv := csv.NewReader(f)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("on file %q: header: %v", name, err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("on file %q: expecting field %q", name, h)
		}
	}

	var alphabet string
	var freqs []float64
	var rates [][]float64
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on file %q: on row %d: %v", name, ln, err)
		}

		f := "parameter"
		p := Param(strings.ToLower(row[fields[f]]))

		f = "value"
		switch p {
		case Alphabet:
			alphabet = strings.TrimSpace(row[fields[f]])
		case Frequencies:
			freqs, err = parseValues(row[fields[f]])
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
		case Rate:
			r, err := parseValues(row[fields[f]])
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			rates = append(rates, r)
		}
	}

	if alphabet == "" {
		return nil, fmt.Errorf("on file %q: undefined alphabet", name)
	}
	s := len(alphabet)
	if len(rates) != s {
		return nil, fmt.Errorf("on file %q: got %d rate rows, want %d", name, len(rates), s)
	}
	q := mat.NewDense(s, s, nil)
	for i, r := range rates {
		if len(r) != s {
			return nil, fmt.Errorf("on file %q: rate row %d has %d values, want %d", name, i+1, len(r), s)
		}
		for j, v := range r {
			q.Set(i, j, v)
		}
	}

	m, err := New(t, alphabet, q, freqs)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return m, nil
}

func parseValues(s string) ([]float64, error) {
	var vs []float64
	for _, f := range strings.Fields(s) {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// Write writes a model into a TSV file.
func (m *Model) Write(name string) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# physub substitution model\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", name, err)
	}

	row := []string{
		string(Alphabet),
		m.alphabet,
	}
	if err := tsv.Write(row); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}

	row = []string{
		string(Frequencies),
		formatValues(m.freqs),
	}
	if err := tsv.Write(row); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}

	for i := 0; i < m.States(); i++ {
		r := make([]float64, m.States())
		for j := range r {
			r[j] = m.q.At(i, j)
		}
		row = []string{
			string(Rate),
			formatValues(r),
		}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("on file %q: %v", name, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", name, err)
	}
	return nil
}

func formatValues(vs []float64) string {
	fields := make([]string, len(vs))
	for i, v := range vs {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(fields, " ")
}
