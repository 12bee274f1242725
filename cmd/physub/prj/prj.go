// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prj implements a command to view
// and edit the datasets of a PhySub project.
package prj

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/physub/project"
)

var Command = &command.Command{
	Usage: `prj [--add] <project-file>
	[<dataset> <path>]`,
	Short: "view and edit a PhySub project",
	Long: `
Command prj reads a PhySub project file and prints the datasets defined on
it. With the flag --add, it adds or replaces the path of a dataset; the
dataset and its path are given after the project file.

The first argument of the command is the name of the project file. If the
file does not exist and a dataset is added, a new project file will be
created.

The valid datasets are:

	trees	a phylogenetic tree collection, as a TSV file
	model	a substitution model, as a TSV file
	consmodel	the substitution model of the conserved state
	nonconsmodel	the substitution model of the non-conserved state
	alignment	a multiple sequence alignment, as a FASTA file
	features	alignment features, as a TSV file
`,
	SetFlags: setFlags,
	Run:      run,
}

var addFlag bool

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&addFlag, "add", false, "")
}

var validSets = []project.Dataset{
	project.Alignment,
	project.ConsModel,
	project.Features,
	project.Model,
	project.NonConsModel,
	project.Trees,
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	if !addFlag {
		p, err := project.Read(args[0])
		if err != nil {
			return err
		}
		for _, s := range p.Sets() {
			fmt.Fprintf(c.Stdout(), "%s\t%s\n", s, p.Path(s))
		}
		return nil
	}

	if len(args) < 3 {
		return c.UsageError("expecting dataset and path")
	}
	set := project.Dataset(args[1])
	ok := false
	for _, s := range validSets {
		if set == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("unknown dataset %q", args[1])
	}

	p, err := project.Read(args[0])
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		p = project.New()
		p.SetName(args[0])
	}

	if _, err := os.Stat(args[2]); err != nil {
		return fmt.Errorf("dataset %s: %v", set, err)
	}
	p.Add(set, args[2])
	if err := p.Write(); err != nil {
		return err
	}
	return nil
}
