// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package probplot implements a heat map image
// for a bivariate probability distribution
// of substitution counts.
package probplot

import (
	"image"
	"image/color"

	"github.com/js-arias/blind"
	"github.com/js-arias/physub/prob"
)

// An Image is a heat map of a bivariate distribution.
// Cell colors scale with the probability
// relative to the largest cell.
type Image struct {
	// The distribution to draw
	P prob.Matrix

	// Side of a cell in pixels
	Cell int

	// A gradient color scheme
	Gradient Gradienter

	max float64
}

// Format prepares the image for drawing.
func (i *Image) Format() {
	if i.Cell < 1 {
		i.Cell = 4
	}
	if i.Gradient == nil {
		i.Gradient = Incandescent{}
	}

	i.max = 0
	for _, r := range i.P {
		for _, v := range r {
			if v > i.max {
				i.max = v
			}
		}
	}
}

func (i *Image) ColorModel() color.Model { return color.RGBAModel }
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.P.Cols()*i.Cell, i.P.Rows()*i.Cell)
}
func (i *Image) At(x, y int) color.Color {
	// the first axis grows upwards
	r := i.P.Rows() - 1 - y/i.Cell
	c := x / i.Cell
	if r < 0 || r >= i.P.Rows() || c >= i.P.Cols() {
		return color.RGBA{211, 211, 211, 255}
	}
	if i.max <= 0 {
		return i.Gradient.Gradient(0)
	}
	return i.Gradient.Gradient(i.P[r][c] / i.max)
}

// Gradienter is an interface for types
// that return a color gradient.
type Gradienter interface {
	Gradient(v float64) color.Color
}

// LightGrayScale returns a gray scale
// between 0 (light gray)
// to 1 (black).
type LightGrayScale struct{}

func (l LightGrayScale) Gradient(v float64) color.Color {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	c := 200 - uint8(v*200)
	return color.RGBA{c, c, c, 255}
}

// Incandescent is the incandescent color scheme
// of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_incandescent>.
type Incandescent struct{}

func (i Incandescent) Gradient(v float64) color.Color {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	return blind.Sequential(blind.Incandescent, v)
}

// Iridescent is the iridescent color scheme
// of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_iridescent>.
type Iridescent struct{}

func (i Iridescent) Gradient(v float64) color.Color {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	return blind.Sequential(blind.Iridescent, v)
}
