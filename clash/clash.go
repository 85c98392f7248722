/*
 * clash/clash.go, part of dihscan.
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

// Package clash detects steric clashes between residues of a molecule.
// Distances are always compared squared.
package clash

import (
	"fmt"

	chem "github.com/rmera/dihscan"
	v3 "github.com/rmera/dihscan/v3"
)

// Kind classifies the outcome of a clash check.
type Kind int

const (
	NoClash Kind = iota
	Clash
	// Unresolvable means the clash involves an atom that further rotation
	// of the checked dihedral cannot move.
	Unresolvable
)

func (k Kind) String() string {
	switch k {
	case NoClash:
		return "no clash"
	case Clash:
		return "clash"
	case Unresolvable:
		return "unresolvable"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Result is the outcome of CheckResidue. D2 and Atoms are the squared distance
// and the atom pair of the first clash found, and are only meaningful if
// Kind is not NoClash.
type Result struct {
	Kind  Kind
	D2    float64
	Atoms [2]int
}

// ResidueRecord is the half-open atom range of a residue and the
// atom that represents it in the coarse residue-residue test.
type ResidueRecord struct {
	Start int
	Stop  int
	Rep   int
}

// Index holds one record per residue, in topology order.
type Index []ResidueRecord

// NewIndex builds the residue index of top. The representative of each
// residue is its first atom.
func NewIndex(top *chem.Topology) Index {
	ret := make(Index, 0, top.NResidues())
	for i := 0; i < top.NResidues(); i++ {
		start, stop := top.ResidueRange(i)
		ret = append(ret, ResidueRecord{Start: start, Stop: stop, Rep: start})
	}
	return ret
}

// Target is what CheckResidue needs to know about the dihedral
// whose rotation is being checked.
type Target interface {
	//Res returns the residue that the rotation moves.
	Res() int
	//Fixed returns true if atom cannot be moved by further rotation of the dihedral.
	Fixed(atom int) bool
}

// CheckResidue looks for clashes of the residue of dih, first inside the residue and then
// against residues 0 to limit, both included. Pairs of residues whose representative
// atoms are at a squared distance of rescutoff2 or more are not checked. The first pair of atoms
// found at a squared distance below cutoff2 is reported. Clashes between residues where
// either atom is fixed for dih are Unresolvable, every other clash is a Clash.
// limit is clamped to the last residue of the index.
func (I Index) CheckResidue(coords *v3.Matrix, dih Target, limit int, cutoff2, rescutoff2 float64) Result {
	own := I[dih.Res()]
	for i := own.Start; i < own.Stop-1; i++ {
		for j := i + 1; j < own.Stop; j++ {
			if d2 := coords.Dist2(i, j); d2 < cutoff2 {
				return Result{Kind: Clash, D2: d2, Atoms: [2]int{i, j}}
			}
		}
	}
	if limit >= len(I) {
		limit = len(I) - 1
	}
	for r := 0; r <= limit; r++ {
		if r == dih.Res() {
			continue
		}
		other := I[r]
		if coords.Dist2(own.Rep, other.Rep) >= rescutoff2 {
			continue
		}
		i, j, d2, found := firstContact(coords, own, other, cutoff2)
		if !found {
			continue
		}
		res := Result{Kind: Clash, D2: d2, Atoms: [2]int{i, j}}
		if dih.Fixed(i) || dih.Fixed(j) {
			res.Kind = Unresolvable
		}
		return res
	}
	return Result{Kind: NoClash}
}

// firstContact returns the first pair, atom i from a and atom j from b,
// at a squared distance below cutoff2.
func firstContact(coords *v3.Matrix, a, b ResidueRecord, cutoff2 float64) (i, j int, d2 float64, found bool) {
	for i = a.Start; i < a.Stop; i++ {
		for j = b.Start; j < b.Stop; j++ {
			if d2 = coords.Dist2(i, j); d2 < cutoff2 {
				return i, j, d2, true
			}
		}
	}
	return -1, -1, 0, false
}

// Problems returns the number of pairs of atoms of top that are not bonded to each other
// and are closer than cutoff (not squared) in coords. I is the residue index of top.
// Residue pairs whose representative atoms are further apart than rescutoff (also not squared)
// are not checked. A rescutoff <= 0 checks all the pairs.
func (I Index) Problems(coords *v3.Matrix, top *chem.Topology, cutoff, rescutoff float64) int {
	cutoff2 := cutoff * cutoff
	rescutoff2 := rescutoff * rescutoff
	n := 0
	for r1, a := range I {
		for r2 := r1; r2 < len(I); r2++ {
			b := I[r2]
			if r2 != r1 && rescutoff > 0 && coords.Dist2(a.Rep, b.Rep) >= rescutoff2 {
				continue
			}
			for i := a.Start; i < a.Stop; i++ {
				jstart := b.Start
				if r1 == r2 {
					jstart = i + 1
				}
				for j := jstart; j < b.Stop; j++ {
					if coords.Dist2(i, j) < cutoff2 && !top.Bonded(i, j) {
						n++
					}
				}
			}
		}
	}
	return n
}
