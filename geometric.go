/*
 * geometric.go, part of dihscan.
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
	"math"

	v3 "github.com/rmera/dihscan/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.

const (
	Deg2Rad = math.Pi / 180
	Rad2Deg = 180 / math.Pi
)

// RotatorAroundAxis returns the 3x3 matrix that rotates column vectors by angle radians
// around the unit vector axis, following the right-hand rule (Rodrigues' formula).
func RotatorAroundAxis(axis [3]float64, angle float64) *mat.Dense {
	x, y, z := axis[0], axis[1], axis[2]
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	return mat.NewDense(3, 3, []float64{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	})
}

// BondRotate rotates, in place, the atoms of coords listed in mask by degrees degrees
// around the axis that goes from atom at1 to atom at2. The axis passes through at1.
// coords is not modified if an error is returned.
func BondRotate(coords *v3.Matrix, at1, at2 int, degrees float64, mask []int) error {
	n := coords.NVecs()
	if at1 < 0 || at2 < 0 || at1 >= n || at2 >= n {
		return NewError(fmt.Sprintf("%s: axis %d-%d, %d atoms", ErrOutOfRange, at1, at2, n), "BondRotate")
	}
	for _, i := range mask {
		if i < 0 || i >= n {
			return NewError(fmt.Sprintf("%s: %d, %d atoms", ErrOutOfRange, i, n), "BondRotate")
		}
	}
	var origin, axis [3]float64
	copy(origin[:], coords.RawRowView(at1))
	copy(axis[:], coords.RawRowView(at2))
	floats.Sub(axis[:], origin[:])
	norm := floats.Norm(axis[:], 2)
	if norm <= appzero {
		return NewError(fmt.Sprintf("%s: atoms %d and %d", ErrZeroAxis, at1, at2), "BondRotate")
	}
	floats.Scale(1/norm, axis[:])
	R := RotatorAroundAxis(axis, degrees*Deg2Rad)
	p := mat.NewVecDense(3, nil)
	q := mat.NewVecDense(3, nil)
	for _, i := range mask {
		row := coords.RawRowView(i)
		for k := 0; k < 3; k++ {
			p.SetVec(k, row[k]-origin[k])
		}
		q.MulVec(R, p)
		for k := 0; k < 3; k++ {
			row[k] = origin[k] + q.AtVec(k)
		}
	}
	return nil
}

// Dihedral calculates the dihedral, in radians, between the points a, b, c, d, where the first plane
// is defined by abc and the second by bcd. Each argument is the first vector of a v3.Matrix.
func Dihedral(a, b, c, d *v3.Matrix) float64 {
	all := []*v3.Matrix{a, b, c, d}
	for number, point := range all {
		if point == nil {
			panic(fmt.Sprintf("Vector %d is nil", number))
		}
	}
	//bma=b minus a
	bma := v3.Zeros(1)
	cmb := v3.Zeros(1)
	dmc := v3.Zeros(1)
	bma.Sub(b.VecView(0), a.VecView(0))
	cmb.Sub(c.VecView(0), b.VecView(0))
	dmc.Sub(d.VecView(0), c.VecView(0))
	v1 := v3.Zeros(1)
	v2 := v3.Zeros(1)
	v1.Cross(bma, cmb)
	v2.Cross(cmb, dmc)
	cnorm := floats.Norm(cmb.RawRowView(0), 2)
	first := cnorm * floats.Dot(bma.RawRowView(0), v2.RawRowView(0))
	second := floats.Dot(v1.RawRowView(0), v2.RawRowView(0))
	return math.Atan2(first, second)
}

// DihedralIdx is like Dihedral, but takes the indexes of the four atoms in coords.
func DihedralIdx(coords *v3.Matrix, a, b, c, d int) float64 {
	return Dihedral(coords.VecView(a), coords.VecView(b), coords.VecView(c), coords.VecView(d))
}
