// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package joint implements a command to score
// the features of an alignment
// by the substitution counts
// of the two subtrees below the root.
package joint

import (
	"bufio"
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/physub/project"
	"github.com/js-arias/physub/subst"
)

var Command = &command.Command{
	Usage: `joint [--tree <tree>] [--ci <level>]
	[--size <number>]
	[-o|--output <file>]
	<project-file>`,
	Short: "score features by left and right substitution counts",
	Long: `
Command joint reads a PhySub project and reports, for each feature of the
alignment, the statistics of the joint distribution of the number of
substitutions in the left and in the right subtree below the root of the
tree: per-subtree prior and posterior statistics, marginal p-values, and
p-values conditional on the total count.

To score a particular subtree against the rest of the tree, use a tree
rerooted so that the subtree of interest is the left child of the root.

The first argument of the command is the name of the project file. The
project must define a tree collection, a substitution model, an alignment,
and a feature file.

The flag --tree picks a tree from the tree collection by name; by default
the first tree is used.

The flag --ci sets the confidence level of the posterior count interval; by
default the posterior mean is used for the p-values.

The flag --size sets the maximum number of cells kept when building a joint
prior by convolution. Features whose prior would grow beyond that size are
reported from the marginal distributions, with conditional p-values that
assume independent subtree counts, and are flagged as approximate. The
default value is 1000000.

The output is a TSV table, written to the standard output, or to the file
given with the flag --output, or -o.
`,
	SetFlags: setFlags,
	Run:      run,
}

var treeName string
var ci float64
var maxSize int
var output string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeName, "tree", "", "")
	c.Flags().Float64Var(&ci, "ci", 0, "")
	c.Flags().IntVar(&maxSize, "size", subst.DefaultMaxConvolveSize, "")
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

	stats, err := pr.FeatureJointPValues(a, feats, ci, maxSize)
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

	fmt.Fprintf(out, "chrom\tstart\tend\tname\t" +
		"prior_mean_left\tprior_var_left\tprior_min_left\tprior_max_left\t" +
		"prior_mean_right\tprior_var_right\tprior_min_right\tprior_max_right\t" +
		"post_mean_left\tpost_var_left\tpost_mean_right\tpost_var_right\t" +
		"p_cons_left\tp_anti_cons_left\tp_cons_right\tp_anti_cons_right\t" +
		"cond_p_cons_left\tcond_p_anti_cons_left\tcond_p_cons_right\tcond_p_anti_cons_right\t" +
		"approx\n")
	for _, st := range stats {
		f := st.Feature
		approx := "no"
		if st.Approx {
			approx = "yes"
		}
		fmt.Fprintf(out, "%s\t%d\t%d\t%s\t%f\t%f\t%d\t%d\t%f\t%f\t%d\t%d\t%f\t%f\t%f\t%f\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%s\n",
			f.Chrom, f.Start, f.End, f.Name,
			st.Left.PriorMean, st.Left.PriorVar, st.Left.PriorMin, st.Left.PriorMax,
			st.Right.PriorMean, st.Right.PriorVar, st.Right.PriorMin, st.Right.PriorMax,
			st.Left.PostMean, st.Left.PostVar, st.Right.PostMean, st.Right.PostVar,
			st.PConsLeft, st.PAntiConsLeft, st.PConsRight, st.PAntiConsRight,
			st.CondPConsLeft, st.CondPAntiConsLeft, st.CondPConsRight, st.CondPAntiConsRight,
			approx)
	}
	return nil
}
