/*
 * files.go, part of dihscan.
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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/dihscan/v3"
)

func symbolFromName(name string) (string, error) {
	symbol := ""
	if len(name) == 0 {
		return symbol, fmt.Errorf("Couldn't guess symbol from empty PDB name")
	}
	if len(name) == 4 || name[0] == 'H' { //I thiiink only Hs can have 4-char names in amber.
		symbol = "H"
	} else if name[0] == 'C' { //Ca is not considered here
		switch name {
		case "CU":
			symbol = "Cu"
		case "CO":
			symbol = "Co"
		case "CL":
			symbol = "Cl"
		default:
			symbol = "C"
		}
	} else if name[0] == 'N' {
		if name == "NA" {
			symbol = "Na"
		} else {
			symbol = "N"
		}
	} else if name[0] == 'O' {
		symbol = "O"
	} else if name[0] == 'P' {
		symbol = "P"
	} else if name[0] == 'S' {
		if name == "SE" {
			symbol = "Se"
		} else {
			symbol = "S"
		}
	} else if strings.HasPrefix(name, "ZN") {
		symbol = "Zn"
	}
	if symbol == "" {
		return symbol, fmt.Errorf("Couldn't guess symbol from PDB name %s", name)
	}
	return symbol, nil
}

//pad returns line padded with blanks up to 80 characters, so the fixed
//columns can be sliced without checking each time.
func pad(line string) string {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 80 {
		line += strings.Repeat(" ", 80-len(line))
	}
	return line
}

// Parses a valid ATOM or HETATM line of a PDB file, returns an Atom
// object with the info except for the coordinates, which are returned
// separately as an array of 3 float64.
func readFullPDBLine(line string, contlines int) (*Atom, [3]float64, error) {
	var coords [3]float64
	err := make([]error, 5) //accumulate errors to check at the end of the read line.
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, err[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	atom.Name = strings.TrimSpace(line[12:16])
	atom.Molname = strings.TrimSpace(line[17:20])
	atom.Chain = strings.TrimSpace(line[21:22])
	atom.Molid, err[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	atom.ICode = line[26]
	coords, err[2] = readPDBCoords(line)
	//occupancy, b-factor and symbol are optional, errors are not fatal.
	atom.Occupancy, _ = strconv.ParseFloat(strings.TrimSpace(line[54:60]), 64)
	atom.Bfactor, _ = strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
	atom.Symbol = strings.TrimSpace(line[76:78])
	if len(atom.Symbol) == 2 {
		atom.Symbol = atom.Symbol[:1] + strings.ToLower(atom.Symbol[1:])
	}
	if atom.Symbol == "" {
		atom.Symbol, err[3] = symbolFromName(atom.Name)
	}
	for i := range err {
		if err[i] != nil {
			return nil, coords, NewError(fmt.Sprintf("line %d: %s", contlines, err[i].Error()), "readFullPDBLine")
		}
	}
	return atom, coords, nil
}

func readPDBCoords(line string) ([3]float64, error) {
	var coords [3]float64
	var err error
	for i := 0; i < 3; i++ {
		coords[i], err = strconv.ParseFloat(strings.TrimSpace(line[30+8*i:38+8*i]), 64)
		if err != nil {
			return coords, err
		}
	}
	return coords, nil
}

// PDBFileRead reads the PDB file pdbname. See PDBRead.
func PDBFileRead(pdbname string) (*Topology, []*v3.Matrix, error) {
	pdbfile, err := os.Open(pdbname)
	if err != nil {
		return nil, nil, NewError(err.Error(), "PDBFileRead")
	}
	defer pdbfile.Close()
	top, frames, err := PDBRead(pdbfile)
	if err != nil {
		return nil, nil, errDecorate(err, "PDBFileRead "+pdbname)
	}
	return top, frames, nil
}

// PDBRead reads the atomic entries of a PDB stream. It returns the topology, taken from the
// first model, and one coordinate matrix per model. Bonds are taken from the CONECT records
// if any are present, and assigned from the distances in the first model otherwise.
func PDBRead(pdb io.Reader) (*Topology, []*v3.Matrix, error) {
	molecule := make([]*Atom, 0)
	coords := [][]float64{make([]float64, 0)}
	serials := make(map[int]int)
	conect := make([][]int, 0)
	firstModel := true //are we reading the first model? if not we only save coordinates
	scanner := bufio.NewScanner(pdb)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	contlines := 0 //count the lines read to better report errors
	for scanner.Scan() {
		contlines++
		raw := scanner.Text()
		if len(raw) < 4 {
			continue
		}
		line := pad(raw)
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			var c [3]float64
			var err error
			if firstModel {
				var at *Atom
				at, c, err = readFullPDBLine(line, contlines)
				if err == nil {
					serials[at.ID] = len(molecule)
					molecule = append(molecule, at)
				}
			} else {
				c, err = readPDBCoords(line)
				if err != nil {
					err = NewError(fmt.Sprintf("line %d: %s", contlines, err.Error()), "readPDBCoords")
				}
			}
			if err != nil {
				return nil, nil, errDecorate(err, "PDBRead")
			}
			coords[len(coords)-1] = append(coords[len(coords)-1], c[:]...)
		case strings.HasPrefix(line, "ENDMDL"):
			//the next model, if any, will only add coordinates.
			if len(coords[len(coords)-1]) > 0 {
				firstModel = false
				coords = append(coords, make([]float64, 0, len(molecule)*3))
			}
		case strings.HasPrefix(line, "CONECT"):
			fields, err := conectFields(line)
			if err != nil {
				return nil, nil, NewError(fmt.Sprintf("line %d: %s", contlines, err.Error()), "PDBRead")
			}
			conect = append(conect, fields)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, NewError(err.Error(), "PDBRead")
	}
	if len(coords[len(coords)-1]) == 0 {
		coords = coords[:len(coords)-1]
	}
	if len(molecule) == 0 {
		return nil, nil, NewError("No atoms found", "PDBRead")
	}
	frames := make([]*v3.Matrix, 0, len(coords))
	for i, c := range coords {
		if len(c) != 3*len(molecule) {
			return nil, nil, NewError(fmt.Sprintf("Model %d has %d atoms, expected %d", i+1, len(c)/3, len(molecule)), "PDBRead")
		}
		m, err := v3.NewMatrix(c)
		if err != nil {
			return nil, nil, errDecorate(err, "PDBRead")
		}
		frames = append(frames, m)
	}
	top, err := NewTopology(molecule)
	if err != nil {
		return nil, nil, errDecorate(err, "PDBRead")
	}
	if len(conect) == 0 {
		if err := AssignBonds(frames[0], top); err != nil {
			return nil, nil, errDecorate(err, "PDBRead")
		}
		return top, frames, nil
	}
	for _, f := range conect {
		from, ok := serials[f[0]]
		if !ok {
			return nil, nil, NewError(fmt.Sprintf("%s: serial %d", ErrMalformedBond, f[0]), "PDBRead")
		}
		for _, s := range f[1:] {
			to, ok := serials[s]
			if !ok {
				return nil, nil, NewError(fmt.Sprintf("%s: serial %d", ErrMalformedBond, s), "PDBRead")
			}
			if err := top.AddBond(from, to, math.Sqrt(frames[0].Dist2(from, to))); err != nil {
				return nil, nil, errDecorate(err, "PDBRead")
			}
		}
	}
	return top, frames, nil
}

//conectFields returns the serial numbers in a CONECT line: the atom
//first, then the atoms bonded to it.
func conectFields(line string) ([]int, error) {
	ret := make([]int, 0, 5)
	for start := 6; start+5 <= 31; start += 5 {
		f := strings.TrimSpace(line[start : start+5])
		if f == "" {
			continue
		}
		s, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	if len(ret) < 2 {
		return nil, fmt.Errorf("CONECT record without bonded atoms")
	}
	return ret, nil
}

// PDBWrite writes the frames as models of a PDB stream, using the
// atom information in top. Bonds are written as CONECT records.
// A single frame is written without MODEL records.
func PDBWrite(out io.Writer, top *Topology, frames ...*v3.Matrix) error {
	w := bufio.NewWriter(out)
	fmt.Fprint(w, pdbRemark)
	for j, coords := range frames {
		model := 0
		if len(frames) > 1 {
			model = j + 1
		}
		if err := writePDBModel(w, top, coords, model); err != nil {
			return errDecorate(err, "PDBWrite")
		}
	}
	writePDBConect(w, top)
	if err := w.Flush(); err != nil {
		return NewError(err.Error(), "PDBWrite")
	}
	return nil
}

const pdbRemark = "REMARK     WRITTEN WITH DIHSCAN\n"

// PDBWriter writes frames to a PDB stream as they come, one model each.
// It implements TrajWriter. Close must be called to write the bonds and
// the END record.
type PDBWriter struct {
	w     *bufio.Writer
	top   *Topology
	model int
}

var _ TrajWriter = &PDBWriter{}

// NewPDBWriter returns a writer of models of top to out.
func NewPDBWriter(out io.Writer, top *Topology) *PDBWriter {
	P := &PDBWriter{w: bufio.NewWriter(out), top: top}
	fmt.Fprint(P.w, pdbRemark)
	return P
}

// Len returns the number of atoms per frame.
func (P *PDBWriter) Len() int {
	return P.top.Len()
}

// WNext writes coords as the next model and flushes it. The box is ignored.
func (P *PDBWriter) WNext(coords *v3.Matrix, box ...[]float64) error {
	if err := writePDBModel(P.w, P.top, coords, P.model+1); err != nil {
		return errDecorate(err, "PDBWriter.WNext")
	}
	P.model++
	if err := P.w.Flush(); err != nil {
		return NewError(err.Error(), "PDBWriter.WNext")
	}
	return nil
}

// Close writes the CONECT and END records and flushes the writer.
// It does not close the underlying stream.
func (P *PDBWriter) Close() error {
	writePDBConect(P.w, P.top)
	if err := P.w.Flush(); err != nil {
		return NewError(err.Error(), "PDBWriter.Close")
	}
	return nil
}

// writePDBModel writes the atoms of top with the coordinates coords.
// If model is not 0, the atoms are enclosed in MODEL/ENDMDL records.
func writePDBModel(w *bufio.Writer, top *Topology, coords *v3.Matrix, model int) error {
	if coords.NVecs() != top.Len() {
		return NewError(fmt.Sprintf("Frame has %d coordinates for %d atoms", coords.NVecs(), top.Len()), "writePDBModel")
	}
	if model > 0 {
		fmt.Fprintf(w, "MODEL     %4d\n", model)
	}
	chainprev := top.Atoms[0].Chain //this is to know when the chain changes.
	for i, at := range top.Atoms {
		if at.Chain != chainprev {
			fmt.Fprintln(w, "TER")
			chainprev = at.Chain
		}
		first := "ATOM"
		if at.Het {
			first = "HETATM"
		}
		c := coords.RawRowView(i)
		name := at.Name
		//4 chars for the atom name are used when hydrogens are included.
		if len(name) < 4 {
			name = " " + name
		}
		chain := at.Chain
		if chain == "" {
			chain = " "
		}
		icode := at.ICode
		if icode == 0 {
			icode = ' '
		}
		_, err := fmt.Fprintf(w, "%-6s%5d %-4s %3s %1s%4d%c   %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  \n", first, at.ID, name, at.Molname, chain,
			at.Molid, icode, c[0], c[1], c[2], at.Occupancy, at.Bfactor, at.Symbol)
		if err != nil {
			return NewError(err.Error(), "writePDBModel")
		}
	}
	if model > 0 {
		fmt.Fprint(w, "ENDMDL\n")
	}
	return nil
}

func writePDBConect(w *bufio.Writer, top *Topology) {
	for _, at := range top.Atoms {
		if len(at.Bonds) == 0 {
			continue
		}
		fmt.Fprintf(w, "CONECT%5d", at.ID)
		for k, b := range at.Bonds {
			if k > 0 && k%4 == 0 {
				fmt.Fprintf(w, "\nCONECT%5d", at.ID)
			}
			fmt.Fprintf(w, "%5d", b.Cross(at).ID)
		}
		fmt.Fprint(w, "\n")
	}
	fmt.Fprint(w, "END\n")
}
