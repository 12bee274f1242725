// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package entropycmd implements a command to compare
// the conserved and non-conserved substitution models
// of a conservation scan.
package entropycmd

import (
	"fmt"
	"strconv"

	"github.com/js-arias/command"
	"github.com/js-arias/physub/entropy"
	"github.com/js-arias/physub/project"
)

var Command = &command.Command{
	Usage: `entropy [--tree <tree>]
	[--hval <value>] [--lminh <value>]
	<project-file> <coverage> <expected-length>`,
	Short: "report the relative entropy of the scan models",
	Long: `
Command entropy reads the conserved and non-conserved substitution models of
a PhySub project and reports the relative entropy between them (H, in bits
per site), the expected minimum number of conserved sites required to detect
a conserved element (L_min), and the expected maximum number of
non-conserved sites tolerated inside one (L_max).

The relative entropy is computed by brute force, enumerating all possible
labelings of the leaves of the tree, so it is only usable with small trees.

The first argument of the command is the name of the project file. The
second argument is the target coverage of conserved elements, a value
between 0 and 1. The third argument is the prior expected length of a
conserved element, in sites.

The flag --tree picks a tree from the tree collection by name; by default
the first tree is used.

With the flag --hval the indicated relative entropy is used instead of
computing it from the models; the models are not required in that case.

With the flag --lminh the command also reports the expected length that
would produce the indicated value of L_min*H, assuming H constant, found by
Newton iteration. It can be used iteratively to converge on a desired value
of L_min*H.
`,
	SetFlags: setFlags,
	Run:      run,
}

var hVal float64
var lMinH float64
var treeName string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&hVal, "hval", -1, "")
	c.Flags().Float64Var(&lMinH, "lminh", -1, "")
	c.Flags().StringVar(&treeName, "tree", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 3 {
		return c.UsageError("expecting project file, coverage, and expected length")
	}

	coverage, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("expecting coverage value: %v", err)
	}
	expLen, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("expecting expected length value: %v", err)
	}

	h, hAlt := hVal, hVal
	if hVal < 0 {
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

		cons, err := p.Model(project.ConsModel, t)
		if err != nil {
			return err
		}
		noncons, err := p.Model(project.NonConsModel, t)
		if err != nil {
			return err
		}

		h, hAlt, err = entropy.Relative(cons, noncons)
		if err != nil {
			return err
		}
	}

	lMin, lMax, err := entropy.Lengths(h, hAlt, coverage, expLen)
	if err != nil {
		return err
	}

	mu := 1 / expLen
	nu := mu * coverage / (1 - coverage)
	fmt.Fprintf(c.Stdout(), "Transition parameters: gamma=%f, omega=%f, mu=%f, nu=%f\n", coverage, expLen, mu, nu)
	fmt.Fprintf(c.Stdout(), "Relative entropy: H=%f bits/site\n", h)
	fmt.Fprintf(c.Stdout(), "Expected min. length: L_min=%f sites\n", lMin)
	fmt.Fprintf(c.Stdout(), "Expected max. length: L_max=%f sites\n", lMax)
	fmt.Fprintf(c.Stdout(), "Total entropy: L_min*H=%f bits\n", lMin*h)

	if lMinH > -1 {
		newLen, err := entropy.SolveNewton(expLen, coverage, h, lMinH, c.Stderr())
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Stdout(), "Recommended expected length: omega=%f sites (for L_min*H=%f)\n", newLen, lMinH)
	}
	return nil
}
