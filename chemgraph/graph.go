/*
 * chemgraph/graph.go, part of dihscan.
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

package chemgraph

import (
	"fmt"

	chem "github.com/rmera/dihscan"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Atom is a node of the bond graph. Its ID is the index of the atom in its topology.
type Atom struct {
	*chem.Atom
}

func (A *Atom) ID() int64 {
	return int64(A.Index())
}

// Bond is an edge of the bond graph.
type Bond struct {
	*chem.Bond
	At1, At2 *Atom
}

func (B *Bond) From() graph.Node {
	return B.At1
}

func (B *Bond) To() graph.Node {
	return B.At2
}

// The graph is undirected, so the reversed edge is the same bond.
func (B *Bond) ReversedEdge() graph.Edge {
	return &Bond{Bond: B.Bond, At1: B.At2, At2: B.At1}
}

// Topology is the undirected bond graph of a chem.Topology.
type Topology struct {
	*simple.UndirectedGraph
	atoms []*Atom
}

// Len returns the number of atoms in the graph.
func (T *Topology) Len() int {
	return len(T.atoms)
}

// TopologyFromChem builds the bond graph of top. It returns an error
// if a bond joins atoms that are not part of top.
func TopologyFromChem(top chem.Atomer) (*Topology, error) {
	T := &Topology{UndirectedGraph: simple.NewUndirectedGraph(), atoms: make([]*Atom, top.Len())}
	for i := range T.atoms {
		T.atoms[i] = &Atom{Atom: top.Atom(i)}
		if T.atoms[i].Index() != i {
			return nil, fmt.Errorf("TopologyFromChem: atom %d has index %d", i, T.atoms[i].Index())
		}
		T.AddNode(T.atoms[i])
	}
	for i, a := range T.atoms {
		for _, b := range a.Bonds {
			other := b.Cross(a.Atom).Index()
			if other < 0 || other >= len(T.atoms) || T.atoms[other].Atom != b.Cross(a.Atom) {
				return nil, fmt.Errorf("TopologyFromChem: %s: %d-%d", chem.ErrMalformedBond, i, other)
			}
			if other < i {
				continue //each bond is added once, from its lowest index.
			}
			T.SetEdge(&Bond{Bond: b, At1: a, At2: T.atoms[other]})
		}
	}
	return T, nil
}

// Movable returns, sorted, the indexes of the atoms reachable from atom2
// without going through any bond of atom1. The result includes atom2 and
// never includes atom1. These are the atoms that move when the atom1-atom2
// bond is rotated with atom1 kept fixed. If atom2 is part of a ring that
// contains atom1, every atom connected to atom2 except atom1 is returned.
func (T *Topology) Movable(atom1, atom2 int) ([]int, error) {
	if atom1 < 0 || atom2 < 0 || atom1 >= T.Len() || atom2 >= T.Len() {
		return nil, fmt.Errorf("Movable: %s: %d-%d, %d atoms", chem.ErrOutOfRange, atom1, atom2, T.Len())
	}
	if atom1 == atom2 {
		return nil, fmt.Errorf("Movable: atom %d given twice", atom1)
	}
	a1 := int64(atom1)
	seen := make([]bool, T.Len())
	seen[atom2] = true
	bf := traverse.BreadthFirst{
		Traverse: func(e graph.Edge) bool {
			return e.From().ID() != a1 && e.To().ID() != a1
		},
		Visit: func(n graph.Node) {
			seen[n.ID()] = true
		},
	}
	bf.Walk(T, T.atoms[atom2], nil)
	ret := make([]int, 0, T.Len())
	for i, v := range seen {
		if v {
			ret = append(ret, i)
		}
	}
	return ret, nil
}
