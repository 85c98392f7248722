/*
 * stf_test.go, part of dihscan.
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

package stf

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	chem "github.com/rmera/dihscan"
	v3 "github.com/rmera/dihscan/v3"
)

func testFrames(Te *testing.T) []*v3.Matrix {
	Te.Helper()
	_, frames, err := chem.PDBFileRead("../../test/ala5.pdb")
	if err != nil {
		Te.Fatal(err)
	}
	second := frames[0].Clone()
	if err := chem.BondRotate(second, 5, 6, 120, []int{7, 8, 9, 10, 11}); err != nil {
		Te.Fatal(err)
	}
	return []*v3.Matrix{frames[0], second}
}

func TestSTFRoundTrip(Te *testing.T) {
	frames := testFrames(Te)
	box := []float64{50, 0, 0, 0, 50, 0, 0, 0, 50}
	for _, name := range []string{"t.stf", "t.stz", "t.stl", "t.str"} {
		name = filepath.Join(Te.TempDir(), name)
		w, err := NewWriter(name, frames[0].NVecs(), map[string]string{"source": "test"})
		if err != nil {
			Te.Fatal(err)
		}
		for _, f := range frames {
			if err := w.WNext(f, box); err != nil {
				Te.Fatal(err)
			}
		}
		if err := w.WNext(v3.Zeros(3)); err == nil {
			Te.Errorf("%s: writing a frame of the wrong size should fail", name)
		}
		if err := w.Close(); err != nil {
			Te.Fatal(err)
		}
		r, header, err := New(name)
		if err != nil {
			Te.Fatal(err)
		}
		if header["source"] != "test" || header["prec"] != "2" {
			Te.Errorf("%s: unexpected header %v", name, header)
		}
		if r.Len() != frames[0].NVecs() {
			Te.Errorf("%s: %d atoms, expected %d", name, r.Len(), frames[0].NVecs())
		}
		read := v3.Zeros(r.Len())
		rbox := make([]float64, 9)
		for k, f := range frames {
			if err := r.Next(read, rbox); err != nil {
				Te.Fatalf("%s frame %d: %v", name, k, err)
			}
			for i := 0; i < f.NVecs(); i++ {
				for j := 0; j < 3; j++ {
					if math.Abs(f.At(i, j)-read.At(i, j)) > 0.01 {
						Te.Errorf("%s frame %d atom %d: %v vs %v", name, k, i, f.RawRowView(i), read.RawRowView(i))
					}
				}
			}
			if rbox[4] != 50 {
				Te.Errorf("%s: box not read: %v", name, rbox)
			}
		}
		err = r.Next(read)
		var last chem.LastFrameError
		if !errors.As(err, &last) {
			Te.Errorf("%s: expected the end of the trajectory, got %v", name, err)
		}
		if r.Readable() {
			Te.Errorf("%s: reader still readable after the last frame", name)
		}
	}
}

func TestSTFPrecision(Te *testing.T) {
	frames := testFrames(Te)
	name := filepath.Join(Te.TempDir(), "p.stf")
	w, err := NewWriter(name, frames[0].NVecs(), map[string]string{"prec": "3"})
	if err != nil {
		Te.Fatal(err)
	}
	if err := w.WNext(frames[1]); err != nil {
		Te.Fatal(err)
	}
	w.Close()
	r, header, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if header["prec"] != "3" {
		Te.Errorf("unexpected header %v", header)
	}
	read := v3.Zeros(r.Len())
	if err := r.Next(read); err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < read.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(frames[1].At(i, j)-read.At(i, j)) > 0.001 {
				Te.Errorf("atom %d: %v vs %v", i, frames[1].RawRowView(i), read.RawRowView(i))
			}
		}
	}
	if _, err := NewWriter(filepath.Join(Te.TempDir(), "bad.stf"), 3, map[string]string{"prec": "x"}); err == nil {
		Te.Errorf("a bad precision should be rejected")
	}
}
