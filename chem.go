/*
 * chem.go, part of dihscan.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
	"strings"
)

// Atom contains the information read for an atom, except for the coordinates,
// which are kept in a v3.Matrix, one row per atom.
type Atom struct {
	Name      string
	ID        int //the serial number in the file
	Molname   string
	Molid     int //the residue number in the file
	Chain     string
	ICode     byte
	Symbol    string
	Occupancy float64
	Bfactor   float64
	Het       bool
	Bonds     []*Bond
	index     int
	res       int
}

// Index returns the position of the atom in its topology.
func (A *Atom) Index() int {
	return A.index
}

// Residue returns the position, in its topology, of the residue containing
// the atom.
func (A *Atom) Residue() int {
	return A.res
}

// Bonded returns the indexes of the atoms bonded to A, in the order the bonds were added.
func (A *Atom) Bonded() []int {
	ret := make([]int, 0, len(A.Bonds))
	for _, b := range A.Bonds {
		ret = append(ret, b.Cross(A).index)
	}
	return ret
}

// BondedNamed returns the index of the first atom bonded to A whose name is name,
// or -1 if there is none. Names are compared without surrounding blanks.
func (A *Atom) BondedNamed(name string) int {
	name = strings.TrimSpace(name)
	for _, b := range A.Bonds {
		at := b.Cross(A)
		if strings.TrimSpace(at.Name) == name {
			return at.index
		}
	}
	return -1
}

// Residue is a contiguous range of atoms in a topology. The range is half-open:
// atoms Start to Stop-1 belong to the residue.
type Residue struct {
	Name  string
	Molid int
	Chain string
	Start int
	Stop  int
}

// Len returns the number of atoms in the residue.
func (R Residue) Len() int {
	return R.Stop - R.Start
}

// Topology contains information about a molecule which is not expected to change
// in time (i.e. everything except for coordinates).
type Topology struct {
	Atoms    []*Atom
	residues []Residue
	bonds    []*Bond
}

// NewTopology returns a topology with the atoms ats. Atom indexes are filled
// and residues are built from changes in chain, residue number or insertion code.
func NewTopology(ats []*Atom) (*Topology, error) {
	if ats == nil {
		return nil, NewError("Supplied a nil atom slice", "NewTopology")
	}
	T := &Topology{Atoms: ats}
	T.FillIndexes()
	T.BuildResidues()
	return T, nil
}

// FillIndexes sets the index of each atom to its current position in the topology.
func (T *Topology) FillIndexes() {
	for i, v := range T.Atoms {
		v.index = i
	}
}

// BuildResidues splits the atoms of T in residues. A new residue starts each time the
// chain, the residue number or the insertion code changes with respect to the previous atom.
func (T *Topology) BuildResidues() {
	T.residues = T.residues[:0]
	for i, at := range T.Atoms {
		if i == 0 || newResidue(T.Atoms[i-1], at) {
			if len(T.residues) > 0 {
				T.residues[len(T.residues)-1].Stop = i
			}
			T.residues = append(T.residues, Residue{Name: at.Molname, Molid: at.Molid, Chain: at.Chain, Start: i})
		}
		at.res = len(T.residues) - 1
	}
	if len(T.residues) > 0 {
		T.residues[len(T.residues)-1].Stop = len(T.Atoms)
	}
}

func newResidue(prev, at *Atom) bool {
	return prev.Molid != at.Molid || prev.Chain != at.Chain || prev.ICode != at.ICode
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() || i < 0 {
		panic(fmt.Sprintf("Topology: Requested Atom %d out of bounds", i))
	}
	return T.Atoms[i]
}

// NResidues returns the number of residues in the topology.
func (T *Topology) NResidues() int {
	return len(T.residues)
}

// Residue returns the residue with index i. Panics if out of range.
func (T *Topology) Residue(i int) Residue {
	return T.residues[i]
}

// ResidueRange returns the first atom and one past the last atom of the residue i.
func (T *Topology) ResidueRange(i int) (start, stop int) {
	r := T.residues[i]
	return r.Start, r.Stop
}

// Bonds returns the bonds in the topology. The slice must not be modified.
func (T *Topology) Bonds() []*Bond {
	return T.bonds
}

// Bonded returns true if the atoms i and j are bonded.
func (T *Topology) Bonded(i, j int) bool {
	a := T.Atoms[i]
	for _, b := range a.Bonds {
		if b.Cross(a).index == j {
			return true
		}
	}
	return false
}
