/*
 * stf.go, part of dihscan.
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
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	chem "github.com/rmera/dihscan"
	v3 "github.com/rmera/dihscan/v3"
)

const (
	lzwLitwidth int = 8
	defaultPrec     = 2
)

// Writer writes an stf trajectory. It implements chem.TrajWriter.
type Writer struct {
	f         *os.File
	h         io.WriteCloser
	w         *bufio.Writer
	natoms    int
	filename  string
	writeable bool
	prec      int
}

// Close flushes and closes the trajectory. It can not be used after this call.
func (S *Writer) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.w.Flush()
	if err2 := S.h.Close(); err == nil {
		err = err2
	}
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return Error{message: err.Error(), filename: S.filename, deco: []string{"Close"}, critical: true}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (S *Writer) Len() int {
	return S.natoms
}

// WNext writes coord as the next frame. If box is given, and contains
// 9 numbers, they are written as the box vectors of the frame.
func (S *Writer) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	v := coord.NVecs()
	if v != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	var temp [3]int
	for i := 0; i < v; i++ {
		row := coord.RawRowView(i)
		S.w.WriteString(coordsEncode([3]float64{row[0], row[1], row[2]}, temp, S.prec))
	}
	var err error
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		_, err = fmt.Fprintf(S.w, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n", b[0],
			b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	} else {
		_, err = S.w.WriteString("*\n")
	}
	if err != nil {
		return Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

func writerFor(name string) func(io.Writer) (io.WriteCloser, error) {
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		return func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, gzip.BestCompression) }
	case 'r':
		return func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, flate.BestCompression) }
	}
	return func(a io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
}

// NewWriter creates the stf file name for frames of natoms atoms. The pairs in
// header are written to the file header, sorted by key. The "prec" key, if present,
// sets the number of decimals kept. Otherwise 2 are kept.
func NewWriter(name string, natoms int, header map[string]string) (*Writer, error) {
	if name == "" {
		return nil, Error{UnableToOpen, name, []string{"NewWriter"}, true}
	}
	S := &Writer{filename: name, natoms: natoms, prec: defaultPrec}
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 1 {
			return nil, Error{fmt.Sprintf("Invalid precision %q", p), name, []string{"NewWriter"}, true}
		}
		S.prec = prec
	}
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + " " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.h, err = writerFor(name)(S.f)
	if err != nil {
		S.f.Close()
		return nil, Error{"Can't start compression " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.w = bufio.NewWriter(S.h)
	S.writeable = true
	keys := make([]string, 0, len(header)+1)
	for k := range header {
		keys = append(keys, k)
	}
	if _, ok := header["prec"]; !ok {
		keys = append(keys, "prec")
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := header[k]
		if k == "prec" {
			v = strconv.Itoa(S.prec)
		}
		fmt.Fprintf(S.w, "%s=%s\n", k, v)
	}
	fmt.Fprintf(S.w, "** %d\n", S.natoms)
	return S, nil
}

// Reader reads an stf trajectory. It implements chem.Traj.
type Reader struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	readable bool
}

// zstd's Decoder doesn't implement io.ReadCloser, its Close returns nothing.
type zstdrc struct {
	*zstd.Decoder
}

func (s zstdrc) Close() error {
	s.Decoder.Close()
	return nil
}

func readerFor(name string) func(io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return func(a io.Reader) (io.ReadCloser, error) { return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		return func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case 'r':
		return func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	}
	return func(a io.Reader) (io.ReadCloser, error) {
		r, err := zstd.NewReader(a)
		if err != nil {
			return nil, err
		}
		return zstdrc{r}, nil
	}
}

func coordsEncode(f [3]float64, temp [3]int, prec int) string {
	p := 100.0
	if prec != defaultPrec {
		p = math.Pow(10.0, float64(prec))
	}
	for i, v := range f {
		temp[i] = int(math.RoundToEven(v * p))
	}
	return fmt.Sprintf("%d %d %d\n", temp[0], temp[1], temp[2])
}

// New opens an stf trajectory for reading, and returns the handle and
// the header, which is never nil.
func New(name string) (*Reader, map[string]string, error) {
	S := &Reader{filename: name, natoms: -1, prec: defaultPrec}
	m := make(map[string]string)
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{UnableToOpen + " " + err.Error(), name, []string{"New"}, true}
	}
	S.dec, err = readerFor(name)(bufio.NewReader(S.f))
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"Can't read header " + err.Error(), name, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.close()
			return nil, nil, Error{"Can't read header " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from '%s'", str), name, []string{"New"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from '%s': %s", nat[1], err.Error()), name, []string{"New"}, true}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.close()
			return nil, nil, Error{"Malformed header line " + str, name, []string{"New"}, true}
		}
		m[k] = v
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 1 {
			slog.Warn("invalid precision in trajectory, assuming the default", "file", name, "prec", p)
		} else {
			S.prec = prec
		}
	}
	S.readable = true
	return S, m, nil
}

// Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *Reader) Readable() bool {
	return S.readable
}

func coordsDecode(str string, temp *[3]float64, prec int) error {
	p := 100.0
	if prec != defaultPrec {
		p = math.Pow(10.0, float64(prec))
	}
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("Ill formated coordinates line in stf: %d fields: %s", len(s), str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Can't parse coordinate %d (%s). Error: %s", i, v, err.Error())
		}
		temp[i] = float64(f) / p
	}
	return nil
}

// Next puts in c the coordinates for the next frame of the trajectory
// and, if given, and the information is present, puts the box vectors in box.
// If c is nil, the frame is read and checked, but discarded.
// At the end of the trajectory, Next returns an error implementing chem.LastFrameError
// and closes the handle.
func (S *Reader) Next(c *v3.Matrix, box ...[]float64) error {
	if !S.readable {
		return Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			if err == io.EOF && i == 0 && b == "" {
				//nothing bad happened here, the trajectory just ended.
				S.close()
				return newlastFrameError(S.filename, "Next")
			}
			return Error{ReadError + " " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if strings.HasPrefix(b, "*") {
			return Error{fmt.Sprintf("%s: frame with %d atoms, expected %d", WrongFormat, i, S.natoms), S.filename, []string{"Next"}, true}
		}
		if err = coordsDecode(strings.TrimSuffix(b, "\n"), &temp, S.prec); err != nil {
			return Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		c.SetRow(i, temp[:])
	}
	s, err := S.h.ReadString('\n')
	if err != nil {
		return Error{"Can't read the frame termination mark " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if s[0] != '*' {
		return Error{fmt.Sprintf("%s: more than %d atoms in frame", WrongFormat, S.natoms), S.filename, []string{"Next"}, true}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		fields := strings.Fields(s)
		if len(fields) < 10 { // The "*" and the 9 numbers
			slog.Debug("trajectory frame without box information", "file", S.filename)
			return nil
		}
		for j, v := range fields[1:10] {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				//a bad box is not fatal, we zero it.
				slog.Warn("failed to read the box of a frame", "file", S.filename)
				for i := range box[0] {
					box[0][i] = 0.0
				}
				break
			}
			box[0][j] = f
		}
	}
	return nil
}

func (S *Reader) close() {
	S.dec.Close()
	S.f.Close()
	S.readable = false
}

// Close closes the object, and marks it as unreadable.
func (S *Reader) Close() error {
	if S.readable {
		S.close()
	}
	return nil
}

// Len returns the number of atoms in each frame of the trajectory.
func (S *Reader) Len() int {
	return S.natoms
}

//errDecorate is a helper function that asserts that the error
//implements chem.Error and decorates the error with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(chem.Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

// Error is the general structure for stf trajectory errors. It fullfills chem.Error and chem.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate returns the decoration of the error. Since Error is a value, the
// new information is only seen by the returned slice, use errDecorate to keep it.
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
)

// lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// lastFrameError does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}

var (
	_ chem.Traj           = (*Reader)(nil)
	_ chem.TrajWriter     = (*Writer)(nil)
	_ chem.LastFrameError = (*lastFrameError)(nil)
)
