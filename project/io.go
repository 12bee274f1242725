// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"fmt"
	"os"

	"github.com/js-arias/physub/feature"
	"github.com/js-arias/physub/model"
	"github.com/js-arias/physub/msa"
	"github.com/js-arias/timetree"
)

// Trees reads the tree collection file
// as defined in a project.
func (p *Project) Trees() (*timetree.Collection, error) {
	name := p.Path(Trees)
	if name == "" {
		return nil, fmt.Errorf("trees not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := timetree.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return c, nil
}

// Model reads a substitution model file
// as defined in a project,
// over the indicated tree.
// Use the Model,
// ConsModel,
// and NonConsModel datasets
// to pick the model.
func (p *Project) Model(set Dataset, t *timetree.Tree) (*model.Model, error) {
	name := p.Path(set)
	if name == "" {
		return nil, fmt.Errorf("%s not defined in project %q", set, p.name)
	}

	m, err := model.Read(name, t)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Alignment reads the multiple sequence alignment file
// as defined in a project.
func (p *Project) Alignment() (*msa.Alignment, error) {
	name := p.Path(Alignment)
	if name == "" {
		return nil, fmt.Errorf("alignment not defined in project %q", p.name)
	}

	a, err := msa.Read(name)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Features reads the feature file
// as defined in a project.
func (p *Project) Features() ([]feature.Feature, error) {
	name := p.Path(Features)
	if name == "" {
		return nil, fmt.Errorf("features not defined in project %q", p.name)
	}

	feats, err := feature.Read(name)
	if err != nil {
		return nil, err
	}
	return feats, nil
}
