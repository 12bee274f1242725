// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// PhySub is a tool for phylogenetic analysis
// of substitution counts.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/physub/cmd/physub/entropycmd"
	"github.com/js-arias/physub/cmd/physub/feats"
	"github.com/js-arias/physub/cmd/physub/joint"
	"github.com/js-arias/physub/cmd/physub/plotcmd"
	"github.com/js-arias/physub/cmd/physub/prj"
	"github.com/js-arias/physub/cmd/physub/site"
)

var app = &command.Command{
	Usage: "physub <command> [<argument>...]",
	Short: "a tool for phylogenetic analysis of substitution counts",
}

func init() {
	app.Add(entropycmd.Command)
	app.Add(feats.Command)
	app.Add(joint.Command)
	app.Add(plotcmd.Command)
	app.Add(prj.Command)
	app.Add(site.Command)
}

func main() {
	app.Main()
}
