// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package site implements a command to report
// the distribution of substitution counts
// of a whole alignment.
package site

import (
	"fmt"
	"math"

	"github.com/js-arias/command"
	"github.com/js-arias/physub/prob"
	"github.com/js-arias/physub/project"
	"github.com/js-arias/physub/subst"
)

var Command = &command.Command{
	Usage: `site [--tree <tree>] [--nsites <number>]
	[--null] [--posterior] [--quantiles]
	[--ci <level>]
	<project-file>`,
	Short: "report substitution counts of an alignment",
	Long: `
Command site reads a PhySub project and reports the distribution of the
number of substitutions over the whole alignment: the prior distribution
given by the model, the posterior distribution given the aligned sequences,
or a conservation report comparing both (the default).

The first argument of the command is the name of the project file. The
project must define a tree collection, a substitution model, and, except
under --null, an alignment.

The flag --tree picks a tree from the tree collection by name; by default
the first tree is used.

With the flag --null only the prior distribution is reported. The number of
sites is the alignment length, or the number given with --nsites. With the
flag --posterior only the posterior distribution is reported. With the flag
--quantiles the distribution is reported as quantiles instead of
probabilities.

The flag --ci sets the confidence level of the posterior count interval used
for the p-values; by default the posterior mean is used.
`,
	SetFlags: setFlags,
	Run:      run,
}

var treeName string
var nSites int
var nullOnly bool
var postOnly bool
var quantiles bool
var ci float64

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeName, "tree", "", "")
	c.Flags().IntVar(&nSites, "nsites", 0, "")
	c.Flags().BoolVar(&nullOnly, "null", false, "")
	c.Flags().BoolVar(&postOnly, "posterior", false, "")
	c.Flags().BoolVar(&quantiles, "quantiles", false, "")
	c.Flags().Float64Var(&ci, "ci", 0, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if nullOnly && postOnly {
		return c.UsageError("flags --null and --posterior are incompatible")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	pr, err := openProcess(p)
	if err != nil {
		return err
	}

	if nullOnly {
		if nSites < 1 {
			a, err := p.Alignment()
			if err != nil {
				return fmt.Errorf("flag --nsites not given: %v", err)
			}
			nSites = a.Len()
		}
		prior, err := pr.PriorAlignment(nSites)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Stdout(), "# prior distribution, %d sites\n", nSites)
		printDistrib(c, prior)
		return nil
	}

	a, err := p.Alignment()
	if err != nil {
		return err
	}

	if postOnly {
		post, err := pr.PosteriorAlignment(a)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Stdout(), "# posterior distribution, %d sites\n", a.Len())
		printDistrib(c, post)
		return nil
	}

	if nSites < 1 {
		nSites = a.Len()
	}
	prior, err := pr.PriorAlignment(nSites)
	if err != nil {
		return err
	}
	postMean, postVar, err := pr.PosteriorStats(a)
	if err != nil {
		return err
	}

	priorMean, priorVar := prior.Stats()
	priorMin, priorMax := prior.ConfidenceInterval(0.95)
	fmt.Fprintf(c.Stdout(), "prior mean\t%f\n", priorMean)
	fmt.Fprintf(c.Stdout(), "prior var\t%f\n", priorVar)
	fmt.Fprintf(c.Stdout(), "prior 95%% interval\t%d\t%d\n", priorMin, priorMax)
	fmt.Fprintf(c.Stdout(), "posterior mean\t%f\n", postMean)
	fmt.Fprintf(c.Stdout(), "posterior var\t%f\n", postVar)

	lo, hi := postMean, postMean
	if ci > 0 {
		lo, hi = normInterval(postMean, postVar, ci)
		fmt.Fprintf(c.Stdout(), "posterior %.2f interval\t%.0f\t%.0f\n", ci, lo, hi)
	}
	pCons := prior.PValue(math.Ceil(hi), prob.Lower)
	pAnti := prior.PValue(math.Floor(lo), prob.Upper)
	fmt.Fprintf(c.Stdout(), "p_cons\t%g\n", pCons)
	fmt.Fprintf(c.Stdout(), "p_anti_cons\t%g\n", pAnti)
	return nil
}

func printDistrib(c *command.Command, p prob.Vector) {
	if quantiles {
		fmt.Fprintf(c.Stdout(), "quantile\tcount\n")
		var cum float64
		x := 0
		for q := 0; q <= 100; q++ {
			for x < len(p)-1 && cum+p[x] < float64(q)/100 {
				cum += p[x]
				x++
			}
			fmt.Fprintf(c.Stdout(), "%.2f\t%d\n", float64(q)/100, x)
		}
		return
	}

	fmt.Fprintf(c.Stdout(), "count\tprobability\n")
	for n, v := range p {
		fmt.Fprintf(c.Stdout(), "%d\t%.10g\n", n, v)
	}
}

func normInterval(mean, variance, level float64) (lo, hi float64) {
	return prob.NormalInterval(mean, math.Sqrt(variance), level)
}

func openProcess(p *project.Project) (*subst.Process, error) {
	tc, err := p.Trees()
	if err != nil {
		return nil, err
	}
	if treeName == "" {
		names := tc.Names()
		if len(names) == 0 {
			return nil, fmt.Errorf("tree collection without trees")
		}
		treeName = names[0]
	}
	t := tc.Tree(treeName)
	if t == nil {
		return nil, fmt.Errorf("tree %q not in tree collection", treeName)
	}

	m, err := p.Model(project.Model, t)
	if err != nil {
		return nil, err
	}
	return subst.New(m)
}
