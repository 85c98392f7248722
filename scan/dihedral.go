/*
 * scan/dihedral.go, part of dihscan.
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package scan

import (
	"fmt"
	"sort"
	"strings"

	chem "github.com/rmera/dihscan"
	"github.com/rmera/dihscan/chemgraph"
)

// Dihedral is a rotatable backbone bond, phi (N-CA) or psi (CA-C).
// Rotating it moves the atoms in Movable around the Atom1-Atom2 axis.
type Dihedral struct {
	Atom1 int
	Atom2 int
	//Movable contains, sorted, Atom2 and every atom on its side of the bond.
	Movable []int
	//CheckAtoms contains, sorted, the atoms of the residue of Atom1 that are not
	//in Movable. A clash involving them, or Atom2, can't be solved rotating this bond.
	CheckAtoms []int
	//Residue is the residue of Atom2.
	Residue int

	//interval mode bookkeeping.
	Current  float64
	Interval float64
	MaxSteps int
}

// Res returns the residue of Atom2.
func (D *Dihedral) Res() int {
	return D.Residue
}

// Fixed returns true if atom is Atom2 or one of the check atoms.
func (D *Dihedral) Fixed(atom int) bool {
	if atom == D.Atom2 {
		return true
	}
	i := sort.SearchInts(D.CheckAtoms, atom)
	return i < len(D.CheckAtoms) && D.CheckAtoms[i] == atom
}

// Kind returns "phi" or "psi" depending on the name of Atom1 in top.
func (D *Dihedral) Kind(top chem.Atomer) string {
	if strings.TrimSpace(top.Atom(D.Atom1).Name) == "N" {
		return "phi"
	}
	return "psi"
}

// backbone partners: the atom name that, bonded to an atom with the key name,
// defines a rotatable bond.
var partners = map[string]string{
	"N":  "CA",
	"CA": "C",
}

// Identify returns the rotatable backbone dihedrals whose two central atoms are
// both in mask, ordered by Atom1. Each dihedral gets the default interval
// of 60 degrees. It is an error for mask to be empty or to contain an index out of
// range, or for a bond to join an atom that is not in top.
func Identify(top *chem.Topology, mask []int) ([]*Dihedral, error) {
	if len(mask) == 0 {
		return nil, chem.NewError(chem.ErrEmptyMask, "scan.Identify")
	}
	in := make([]bool, top.Len())
	for _, i := range mask {
		if i < 0 || i >= top.Len() {
			return nil, chem.NewError(fmt.Sprintf("%s: %d, %d atoms", chem.ErrOutOfRange, i, top.Len()), "scan.Identify")
		}
		in[i] = true
	}
	g, err := chemgraph.TopologyFromChem(top)
	if err != nil {
		return nil, chem.NewError(err.Error(), "scan.Identify")
	}
	ret := make([]*Dihedral, 0)
	for atom1, selected := range in {
		if !selected {
			continue
		}
		at := top.Atom(atom1)
		pname, ok := partners[strings.TrimSpace(at.Name)]
		if !ok {
			continue
		}
		atom2 := at.BondedNamed(pname)
		if atom2 < 0 || !in[atom2] {
			continue
		}
		movable, err := g.Movable(atom1, atom2)
		if err != nil {
			return nil, chem.NewError(err.Error(), "scan.Identify")
		}
		D := &Dihedral{
			Atom1:   atom1,
			Atom2:   atom2,
			Movable: movable,
			Residue: top.Atom(atom2).Residue(),
		}
		D.CheckAtoms = fixedInResidue(top, atom1, movable)
		D.SetInterval(60)
		ret = append(ret, D)
	}
	return ret, nil
}

// SetInterval sets the interval-mode step of D, and the number of steps
// needed to cover 360 degrees.
func (D *Dihedral) SetInterval(degrees float64) {
	D.Interval = degrees
	D.MaxSteps = int(360.0 / degrees)
	D.Current = 0
}

//fixedInResidue returns the atoms of the residue of atom that are not in movable (sorted).
func fixedInResidue(top *chem.Topology, atom int, movable []int) []int {
	start, stop := top.ResidueRange(top.Atom(atom).Residue())
	ret := make([]int, 0, stop-start)
	for i := start; i < stop; i++ {
		j := sort.SearchInts(movable, i)
		if j < len(movable) && movable[j] == i {
			continue
		}
		ret = append(ret, i)
	}
	return ret
}
