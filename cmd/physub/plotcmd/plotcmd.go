// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package plotcmd implements a command to draw
// the distributions of substitution counts
// of an alignment.
package plotcmd

import (
	"fmt"
	"image/png"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/physub/prob"
	"github.com/js-arias/physub/probplot"
	"github.com/js-arias/physub/project"
	"github.com/js-arias/physub/subst"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var Command = &command.Command{
	Usage: `plot [--tree <tree>] [--posterior] [--joint]
	[--cell <number>] [--gray]
	[-o|--output <prefix>]
	<project-file>`,
	Short: "draw substitution count distributions",
	Long: `
Command plot reads a PhySub project and draws the distribution of the number
of substitutions of the whole alignment as a PNG file. By default the prior
distribution is drawn; with the flag --posterior, the posterior given the
aligned sequences.

With the flag --joint, the joint distribution of the substitution counts in
the left and right subtrees below the root is drawn as a heat map, with the
left counts growing upwards and the right counts growing to the right.

The first argument of the command is the name of the project file.

The flag --tree picks a tree from the tree collection by name; by default
the first tree is used.

The flag --cell sets the size in pixels of a heat map cell; the default is
4. With the flag --gray the heat map uses a gray scale instead of a color
scheme.

The output file is named after the project file, or after the prefix given
with the flag --output, or -o.
`,
	SetFlags: setFlags,
	Run:      run,
}

var treeName string
var postFlag bool
var jointFlag bool
var grayFlag bool
var cell int
var output string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeName, "tree", "", "")
	c.Flags().BoolVar(&postFlag, "posterior", false, "")
	c.Flags().BoolVar(&jointFlag, "joint", false, "")
	c.Flags().BoolVar(&grayFlag, "gray", false, "")
	c.Flags().IntVar(&cell, "cell", 4, "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		output = args[0]
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

	kind := "prior"
	if postFlag {
		kind = "posterior"
	}

	if jointFlag {
		var d prob.Matrix
		if postFlag {
			a, err := p.Alignment()
			if err != nil {
				return err
			}
			d, err = pr.PosteriorJointAlignment(a)
			if err != nil {
				return err
			}
		} else {
			a, err := p.Alignment()
			if err != nil {
				return err
			}
			d, err = pr.PriorJointAlignment(a.Len())
			if err != nil {
				return err
			}
		}
		name := fmt.Sprintf("%s-%s-joint.png", output, kind)
		return writeHeatMap(name, d)
	}

	var d prob.Vector
	if postFlag {
		a, err := p.Alignment()
		if err != nil {
			return err
		}
		d, err = pr.PosteriorAlignment(a)
		if err != nil {
			return err
		}
	} else {
		a, err := p.Alignment()
		if err != nil {
			return err
		}
		d, err = pr.PriorAlignment(a.Len())
		if err != nil {
			return err
		}
	}
	name := fmt.Sprintf("%s-%s.png", output, kind)
	return writePlot(name, kind, d)
}

func writePlot(name, kind string, d prob.Vector) error {
	pt := plot.New()
	pt.X.Label.Text = "substitutions"
	pt.Y.Label.Text = fmt.Sprintf("%s probability", kind)

	pts := make(plotter.XYs, len(d))
	for i, v := range d {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("on plot %q: %v", name, err)
	}
	pt.Add(l)

	if err := pt.Save(6*vg.Inch, 4*vg.Inch, name); err != nil {
		return err
	}
	return nil
}

func writeHeatMap(name string, d prob.Matrix) (err error) {
	img := &probplot.Image{
		P:    d,
		Cell: cell,
	}
	if grayFlag {
		img.Gradient = probplot.LightGrayScale{}
	}
	img.Format()

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

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("on image %q: %v", name, err)
	}
	return nil
}
