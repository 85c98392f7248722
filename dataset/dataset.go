// Package dataset stores one integer per frame, and writes, summarizes and plots it.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Int is an integer data set keyed by frame. Frames are 0-based.
type Int struct {
	Name   string
	frames []int
	values []int
}

// NewInt returns an empty data set called name.
func NewInt(name string) *Int {
	return &Int{Name: name}
}

// Add appends value for frame. Frames are expected in increasing order,
// but that is not enforced.
func (D *Int) Add(frame, value int) {
	D.frames = append(D.frames, frame)
	D.values = append(D.values, value)
}

// Len returns the number of values in D.
func (D *Int) Len() int {
	return len(D.values)
}

// At returns the frame and the value of the i-th element of D.
func (D *Int) At(i int) (frame, value int) {
	return D.frames[i], D.values[i]
}

func (D *Int) floats() []float64 {
	ret := make([]float64, len(D.values))
	for i, v := range D.values {
		ret[i] = float64(v)
	}
	return ret
}

// WriteStd writes D as a two-column table: a "#Frame" header followed by the name
// of the set, and then one line per value. Frames are written 1-based.
func (D *Int) WriteStd(w io.Writer) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "%-8s %12s\n", "#Frame", D.Name)
	for i, v := range D.values {
		fmt.Fprintf(b, "%8d %12d\n", D.frames[i]+1, v)
	}
	return b.Flush()
}

// Summary holds simple statistics of a data set.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	//Zeros counts the values equal to zero.
	Zeros int
}

// Summary returns the statistics of the values in D. The fields are NaN
// (but N and Zeros) if D is empty.
func (D *Int) Summary() Summary {
	S := Summary{N: D.Len(), Mean: math.NaN(), StdDev: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	if S.N == 0 {
		return S
	}
	f := D.floats()
	S.Mean, S.StdDev = stat.MeanStdDev(f, nil)
	if S.N == 1 {
		S.StdDev = 0
	}
	S.Min = floats.Min(f)
	S.Max = floats.Max(f)
	for _, v := range D.values {
		if v == 0 {
			S.Zeros++
		}
	}
	return S
}

func (S Summary) String() string {
	return fmt.Sprintf("N: %d Mean: %.3f StdDev: %.3f Min: %.0f Max: %.0f Zeros: %d", S.N, S.Mean, S.StdDev, S.Min, S.Max, S.Zeros)
}

// Histogram counts the values of D in the bins defined by dividers, which must be
// sorted and have at least 2 elements. Values outside the dividers are not counted.
func (D *Int) Histogram(dividers []float64) []float64 {
	rawdata := D.floats()
	sort.Float64s(rawdata)
	//stat.Histogram panics with values that are off limits,
	//so we remove them here before the call.
	maxi := sort.SearchFloat64s(rawdata, dividers[len(dividers)-1])
	mini := sort.SearchFloat64s(rawdata, dividers[0])
	rawdata = rawdata[mini:maxi]
	if len(rawdata) == 0 {
		return make([]float64, len(dividers)-1)
	}
	return stat.Histogram(nil, dividers, rawdata, nil)
}
