/*
 * gocoords.go, part of dihscan.
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

package v3

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.

// Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

//METHODS

// NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

// SwapVecs exchanges the vectors i and j of F.
func (F *Matrix) SwapVecs(i, j int) {
	if i >= F.NVecs() || j >= F.NVecs() {
		panic(ErrIndexOutOfRange)
	}
	ri := F.RawRowView(i)
	rj := F.RawRowView(j)
	for k := 0; k < 3; k++ {
		ri[k], rj[k] = rj[k], ri[k]
	}
}

// AddVec adds vec to each vector of A, putting the result on the receiver.
func (F *Matrix) AddVec(A, vec *Matrix) {
	F.addScaledVec(A, vec, 1)
}

// SubVec subtracts vec from each vector of A, putting the result on the receiver.
// A and vec may share data.
func (F *Matrix) SubVec(A, vec *Matrix) {
	F.addScaledVec(A, vec, -1)
}

func (F *Matrix) addScaledVec(A, vec *Matrix, sign float64) {
	ar := A.NVecs()
	if vec.NVecs() != 1 || F.NVecs() != ar {
		panic(ErrShape)
	}
	var v [3]float64
	copy(v[:], vec.RawRowView(0))
	for i := 0; i < ar; i++ {
		a := A.RawRowView(i)
		f := F.RawRowView(i)
		for k := 0; k < 3; k++ {
			f[k] = a[k] + sign*v[k]
		}
	}
}

// SetVecs sets the vectors with index n = each value on clist, in the receiver, to the
// n vector of A.
func (F *Matrix) SetVecs(A *Matrix, clist []int) {
	ar := A.NVecs()
	fr := F.NVecs()
	if fr < len(clist) || ar < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		copy(F.RawRowView(val), A.RawRowView(key))
	}
}

// SomeVecs puts in the receiver all the ith vectors of matrix A,
// where i are the numbers in clist. The vectors are in the same order
// than the clist.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	ar := A.NVecs()
	fr := F.NVecs()
	if fr != len(clist) || ar < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		copy(F.RawRowView(key), A.RawRowView(val))
	}
}

// SomeVecsSafe is like SomeVecs, but returns an error instead of panicking.
func (F *Matrix) SomeVecsSafe(A *Matrix, clist []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case PanicMsg:
				err = errDecorate(Error{string(e), []string{"SomeVecs"}, true}, "SomeVecsSafe")
			case mat.Error:
				err = Error{fmt.Sprintf("dihscan/v3: Error in a gonum function: %s", e), []string{"SomeVecsSafe"}, true}
			default:
				err = Error{fmt.Sprintf("dihscan/v3: %v", e), []string{"SomeVecsSafe"}, true}
			}
		}
	}()
	F.SomeVecs(A, clist)
	return err
}

// Cross puts the cross product of the first vecs of a and b in the first vec of F. Panics if error.
func (F *Matrix) Cross(a, b *Matrix) {
	if a.NVecs() < 1 || b.NVecs() < 1 || F.NVecs() < 1 {
		panic(ErrNoCrossProduct)
	}
	x, y, z := a.At(0, 1)*b.At(0, 2)-a.At(0, 2)*b.At(0, 1),
		a.At(0, 2)*b.At(0, 0)-a.At(0, 0)*b.At(0, 2),
		a.At(0, 0)*b.At(0, 1)-a.At(0, 1)*b.At(0, 0)
	F.Set(0, 0, x)
	F.Set(0, 1, y)
	F.Set(0, 2, z)
}

// Unit puts in the receiver the unit vector in the direction of the first vector of A.
func (F *Matrix) Unit(A *Matrix) {
	if A.Dense != F.Dense {
		F.Dense.Copy(A.Dense)
	}
	r := F.RawRowView(0)
	norm := math.Sqrt(r[0]*r[0] + r[1]*r[1] + r[2]*r[2])
	if norm <= appzero {
		panic(ErrZeroNorm)
	}
	F.Scale(1.0/norm, F)
}

// Dist2 returns the squared distance between the vectors i and j of F.
func (F *Matrix) Dist2(i, j int) float64 {
	a := F.RawRowView(i)
	b := F.RawRowView(j)
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

// String returns a neat string representation of a Matrix
func (F *Matrix) String() string {
	r := F.NVecs()
	v := make([]string, 0, r+2)
	v = append(v, "\n[")
	for i := 0; i < r; i++ {
		row := F.RawRowView(i)
		v = append(v, fmt.Sprintf(" %6.2f %6.2f %6.2f", row[0], row[1], row[2]))
	}
	v = append(v, " ]")
	return strings.Join(v, "\n")
}
