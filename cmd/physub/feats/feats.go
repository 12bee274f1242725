// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package feats implements a command to score
// the features of an alignment
// by their total substitution counts.
package feats

import (
	"bufio"
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/physub/project"
	"github.com/js-arias/physub/subst"
)

var Command = &command.Command{
	Usage: `feats [--tree <tree>] [--ci <level>]
	[-o|--output <file>]
	<project-file>`,
	Short: "score features by substitution counts",
	Long: `
Command feats reads a PhySub project and reports, for each feature of the
alignment, the prior and posterior statistics of the number of
substitutions, and the p-values of the observed counts under the prior: a
small p_cons indicates fewer substitutions than expected (conservation), a
small p_anti_cons more substitutions than expected (acceleration).

The first argument of the command is the name of the project file. The
project must define a tree collection, a substitution model, an alignment,
and a feature file.

The flag --tree picks a tree from the tree collection by name; by default
the first tree is used.

The flag --ci sets the confidence level of the posterior count interval; by
default the posterior mean is used for the p-values.

The output is a TSV table, written to the standard output, or to the file
given with the flag --output, or -o.
`,
	SetFlags: setFlags,
	Run:      run,
}

var treeName string
var ci float64
var output string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeName, "tree", "", "")
	c.Flags().Float64Var(&ci, "ci", 0, "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) (err error) {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	tc, err := p.Trees()
	if err != nil {
		return err
	}
	if treeName == "" {
		names := tc.Names()
		if len(names) == 0 {
			return fmt.Errorf("tree collection without trees")
		}
		treeName = names[0]
	}
	t := tc.Tree(treeName)
	if t == nil {
		return fmt.Errorf("tree %q not in tree collection", treeName)
	}

	m, err := p.Model(project.Model, t)
	if err != nil {
		return err
	}
	pr, err := subst.New(m)
	if err != nil {
		return err
	}

	a, err := p.Alignment()
	if err != nil {
		return err
	}
	feats, err := p.Features()
	if err != nil {
		return err
	}

	stats, err := pr.FeaturePValues(a, feats, ci)
	if err != nil {
		return err
	}

	out := c.Stdout()
	if output != "" {
		f, err := os.Create(output)
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
		defer func() {
			e := bw.Flush()
			if e != nil && err == nil {
				err = e
			}
		}()
		out = bw
	}

	fmt.Fprintf(out, "chrom\tstart\tend\tname\tprior_mean\tprior_var\tprior_min\tprior_max\tpost_mean\tpost_var\tpost_min\tpost_max\tp_cons\tp_anti_cons\n")
	for _, st := range stats {
		f := st.Feature
		fmt.Fprintf(out, "%s\t%d\t%d\t%s\t%f\t%f\t%d\t%d\t%f\t%f\t%.0f\t%.0f\t%g\t%g\n",
			f.Chrom, f.Start, f.End, f.Name,
			st.PriorMean, st.PriorVar, st.PriorMin, st.PriorMax,
			st.PostMean, st.PostVar, st.PostMin, st.PostMax,
			st.PCons, st.PAntiCons)
	}
	return nil
}
