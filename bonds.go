/*
 * bonds.go, part of dihscan.
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

package chem

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/rmera/dihscan/v3"
)

//constants from DOI:10.1186/1758-2946-3-33
const (
	tooclose = 0.63
	bondtol  = 0.45
)

// Bond joins two atoms of a topology.
type Bond struct {
	Index int
	At1   *Atom
	At2   *Atom
	Dist  float64
}

// Cross returns the atom at the other end of the bond, starting from origin.
func (B *Bond) Cross(origin *Atom) *Atom {
	if origin == B.At1 {
		return B.At2
	}
	if origin == B.At2 {
		return B.At1
	}
	panic("Trying to cross a bond: The origin atom given is not present in the bond!") //I think this got to be a programming error, so a panic is warranted.
}

// AddBond bonds the atoms with indexes i and j. It returns an error if either index
// is out of range or if i==j. Adding an existing bond does nothing.
func (T *Topology) AddBond(i, j int, dist float64) error {
	if i < 0 || j < 0 || i >= T.Len() || j >= T.Len() || i == j {
		return NewError(fmt.Sprintf("%s: %d-%d", ErrMalformedBond, i, j), "AddBond")
	}
	if T.Bonded(i, j) {
		return nil
	}
	at1, at2 := T.Atoms[i], T.Atoms[j]
	b := &Bond{Index: len(T.bonds), At1: at1, At2: at2, Dist: dist}
	at1.Bonds = append(at1.Bonds, b)
	at2.Bonds = append(at2.Bonds, b)
	T.bonds = append(T.bonds, b)
	return nil
}

func (T *Topology) removeBond(b *Bond) {
	drop := func(bonds []*Bond) []*Bond {
		ret := bonds[:0]
		for _, v := range bonds {
			if v != b {
				ret = append(ret, v)
			}
		}
		return ret
	}
	b.At1.Bonds = drop(b.At1.Bonds)
	b.At2.Bonds = drop(b.At2.Bonds)
	T.bonds = drop(T.bonds)
	for i, v := range T.bonds {
		v.Index = i
	}
}

// AssignBonds assigns bonds to a molecule based on a simple distance
// criterium, similar to that described in DOI:10.1186/1758-2946-3-33
// Only atoms in the same or in consecutive residues are considered,
// so inter-chain and disulfide bonds are not found.
func AssignBonds(coord *v3.Matrix, T *Topology) error {
	if coord.NVecs() != T.Len() {
		return NewError(fmt.Sprintf("%d coordinates for %d atoms", coord.NVecs(), T.Len()), "AssignBonds")
	}
	for r := 0; r < T.NResidues(); r++ {
		start, stop := T.ResidueRange(r)
		limit := stop
		if r+1 < T.NResidues() {
			_, limit = T.ResidueRange(r + 1)
		}
		for i := start; i < stop; i++ {
			at1 := T.Atoms[i]
			cov1, ok := symbolCovrad[at1.Symbol]
			if !ok {
				return NewError(fmt.Sprintf("Couldn't find the covalent radii for %s %d", at1.Symbol, i), "AssignBonds")
			}
			for j := i + 1; j < limit; j++ {
				at2 := T.Atoms[j]
				cov2, ok := symbolCovrad[at2.Symbol]
				if !ok {
					return NewError(fmt.Sprintf("Couldn't find the covalent radii for %s %d", at2.Symbol, j), "AssignBonds")
				}
				d2 := coord.Dist2(i, j)
				max := cov1 + cov2 + bondtol
				if d2 < max*max && d2 > tooclose*tooclose {
					if err := T.AddBond(i, j, math.Sqrt(d2)); err != nil {
						return errDecorate(err, "AssignBonds")
					}
				}
			}
		}
	}
	//Now we check that no atom has too many bonds.
	for _, at := range T.Atoms {
		max := symbolMaxBonds[at.Symbol]
		if max == 0 { //means there is not a specified number of bonds for this atom.
			continue
		}
		for len(at.Bonds) > max {
			sort.Slice(at.Bonds, func(i, j int) bool { return at.Bonds[i].Dist < at.Bonds[j].Dist })
			T.removeBond(at.Bonds[len(at.Bonds)-1]) //we remove the longest bond
		}
	}
	return nil
}
