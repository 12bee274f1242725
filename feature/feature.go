// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package feature implements annotated regions
// of an alignment,
// contiguous column spans used as the units
// of a conservation scan.
package feature

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
)

// A Feature is a contiguous span of alignment columns.
// Coordinates are 1-based and inclusive.
type Feature struct {
	Chrom string
	Name  string
	Start int
	End   int
}

// Len returns the number of columns
// spanned by the feature.
func (f Feature) Len() int {
	return f.End - f.Start + 1
}

var header = []string{
	"chrom",
	"start",
	"end",
	"name",
}

// Read reads a collection of features from a TSV file.
//
// The TSV file must contain the following fields:
//
//   - chrom, the sequence the feature belongs to
//   - start, the first column of the feature (1-based)
//   - end, the last column of the feature (inclusive)
//   - name, a label for the feature
//
// Here is an example file:
//
//	# alignment features
//	chrom	start	end	name
//	chr1	100	250	exon-1
//	chr1	800	1125	exon-2
func Read(name string) ([]Feature, error) {
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

	var feats []Feature
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on file %q: on row %d: %v", name, ln, err)
		}

		ft := Feature{
			Chrom: strings.TrimSpace(row[fields["chrom"]]),
			Name:  strings.TrimSpace(row[fields["name"]]),
		}

		fd := "start"
		ft.Start, err = strconv.Atoi(row[fields[fd]])
		if err != nil {
			return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, fd, err)
		}

		fd = "end"
		ft.End, err = strconv.Atoi(row[fields[fd]])
		if err != nil {
			return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, fd, err)
		}

		if ft.Start < 1 {
			return nil, fmt.Errorf("on file %q: on row %d: start %d before first column", name, ln, ft.Start)
		}
		if ft.End < ft.Start {
			return nil, fmt.Errorf("on file %q: on row %d: end %d before start %d", name, ln, ft.End, ft.Start)
		}
		feats = append(feats, ft)
	}
	if len(feats) == 0 {
		return nil, fmt.Errorf("on file %q: no features found", name)
	}

	return feats, nil
}

// Write writes a collection of features into a TSV file.
func Write(name string, feats []Feature) (err error) {
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
	fmt.Fprintf(bw, "# alignment features\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", name, err)
	}
	for _, ft := range feats {
		row := []string{
			ft.Chrom,
			strconv.Itoa(ft.Start),
			strconv.Itoa(ft.End),
			ft.Name,
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
