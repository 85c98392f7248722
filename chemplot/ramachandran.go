/*
 * ramachandran.go, part of dihscan
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

// Package chemplot draws Ramachandran plots of the conformations produced by a scan.
package chemplot

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	chem "github.com/rmera/dihscan"
	v3 "github.com/rmera/dihscan/v3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// RamaSet contains the indexes of the atoms that define the phi and psi
// angles of one residue.
type RamaSet struct {
	Cprev   int
	N       int
	Ca      int
	C       int
	Npost   int
	Molid   int
	Molname string
}

func basicRamaPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title //"Ramachandran plot"
	p.X.Label.Text = "Phi"
	p.Y.Label.Text = "Psi"
	//Constant axes
	p.X.Min = -180
	p.X.Max = 180
	p.Y.Min = -180
	p.Y.Max = 180
	p.Add(plotter.NewGrid())
	return p
}

// RamaPlot saves a Ramachandran plot to filename (the extension selects the format).
// data contains one slice of phi-psi pairs, in degrees, per frame. Each frame gets its own
// color, and the first one is drawn with triangles.
func RamaPlot(data [][][2]float64, title, filename string) error {
	if len(data) == 0 {
		return fmt.Errorf("RamaPlot: Given no data")
	}
	p := basicRamaPlot(title)
	for key, val := range data {
		pts := make(plotter.XYs, len(val))
		for i, v := range val {
			pts[i].X = v[0]
			pts[i].Y = v[1]
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		r, g, b := colors(key, len(data))
		s.GlyphStyle.Color = color.RGBA{R: r, B: b, G: g, A: 255}
		if key == 0 {
			s.GlyphStyle.Shape = draw.PyramidGlyph{}
		}
		p.Add(s)
	}
	return p.Save(4*vg.Inch, 4*vg.Inch, filename)
}

//takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	var i, f, p, q, t float64
	var r, g, b float64
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i = math.Floor(h)
	f = h - i
	p = v * (1 - s)
	q = v * (1 - s*f)
	t = v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

// colors spreads steps hues from red to violet, skipping yellow, which is hard to see.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64((float64(key) * norm) + 20.0)
	var h float64
	if hp < 55 {
		h = hp - 20.0
	} else {
		h = hp + 20.0
	}
	return iHVS2RGB(h, 1.0, 1.0)
}

// RamaCalc returns the phi and psi angles, in degrees, of each set in dihedrals,
// measured in M.
func RamaCalc(M *v3.Matrix, dihedrals []RamaSet) ([][2]float64, error) {
	if M == nil {
		return nil, fmt.Errorf("RamaCalc: Given nil data")
	}
	r := M.NVecs()
	Rama := make([][2]float64, 0, len(dihedrals))
	for _, j := range dihedrals {
		for _, v := range []int{j.Cprev, j.N, j.Ca, j.C, j.Npost} {
			if v < 0 || v >= r {
				return nil, fmt.Errorf("RamaCalc: Index %d requested out of range", v)
			}
		}
		phi := chem.DihedralIdx(M, j.Cprev, j.N, j.Ca, j.C)
		psi := chem.DihedralIdx(M, j.N, j.Ca, j.C, j.Npost)
		Rama = append(Rama, [2]float64{phi * chem.Rad2Deg, psi * chem.Rad2Deg})
	}
	return Rama, nil
}

// RamaList returns the atoms defining phi and psi for every residue of top with
// a complete backbone: a CA bonded to N and C, where the N is bonded to the C of
// the previous residue and the C to the N of the next one. Atoms are found by following
// bonds, so residue numbering doesn't matter. Residues whose names are in skip
// are left out.
func RamaList(top *chem.Topology, skip ...string) []RamaSet {
	ret := make([]RamaSet, 0, top.NResidues())
	for i, at := range top.Atoms {
		if strings.TrimSpace(at.Name) != "CA" || isInString(skip, at.Molname) {
			continue
		}
		set := RamaSet{Ca: i, Molid: at.Molid, Molname: at.Molname}
		set.N = at.BondedNamed("N")
		set.C = at.BondedNamed("C")
		if set.N < 0 || set.C < 0 {
			continue
		}
		set.Cprev = top.Atom(set.N).BondedNamed("C")
		set.Npost = top.Atom(set.C).BondedNamed("N")
		if set.Cprev < 0 || set.Npost < 0 {
			continue
		}
		ret = append(ret, set)
	}
	return ret
}

func isInString(container []string, test string) bool {
	for _, v := range container {
		if v == test {
			return true
		}
	}
	return false
}
