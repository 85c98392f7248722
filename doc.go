/*
 * doc.go, part of dihscan.
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

/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*
Package chem is the main package of dihscan. It provides atom, residue and topology
structures, reading and writing of PDB files, atom masks, and the geometric
manipulations needed to change a dihedral angle in place.

	**Capabilities**

	Reads/writes multi-model PDB files, with CONECT bonds.

	Assigns bonds from covalent radii when a file carries none.

	Selects atoms with simple masks (":1-10,15", "@N,CA,C", ":2-8@CA").

	Rotates a sub-group of atoms in a molecule using any 2 atoms as
	the rotation axis (BondRotate).

	Measures dihedral angles.

Coordinates are kept apart from the topology, in *v3.Matrix objects (one row per atom),
so several frames can share one topology.
*/
package chem
