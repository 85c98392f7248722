/*
 * scan/scan_test.go, part of dihscan.
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

package scan

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	chem "github.com/rmera/dihscan"
	"github.com/rmera/dihscan/clash"
	v3 "github.com/rmera/dihscan/v3"
	"gonum.org/v1/gonum/floats"
)

type recorder struct {
	frames []*v3.Matrix
	natoms int
	closed bool
}

func (r *recorder) WNext(c *v3.Matrix, box ...[]float64) error {
	r.frames = append(r.frames, c.Clone())
	return nil
}

func (r *recorder) Len() int { return r.natoms }

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func ala5(Te *testing.T) (*chem.Topology, *v3.Matrix) {
	Te.Helper()
	top, frames, err := chem.PDBFileRead("../test/ala5.pdb")
	if err != nil {
		Te.Fatal(err)
	}
	return top, frames[0]
}

func selectMask(Te *testing.T, top *chem.Topology, expr string) []int {
	Te.Helper()
	m, err := chem.ParseMask(expr)
	if err != nil {
		Te.Fatal(err)
	}
	sel, err := m.Select(top)
	if err != nil {
		Te.Fatal(err)
	}
	return sel
}

func seeded(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed)))
}

func contains(s []int, v int) bool {
	for _, w := range s {
		if w == v {
			return true
		}
	}
	return false
}

func TestIdentify(Te *testing.T) {
	top, _ := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, "*"))
	if err != nil {
		Te.Fatal(err)
	}
	if len(dihs) != 10 {
		Te.Fatalf("expected 10 dihedrals, got %d", len(dihs))
	}
	for i, d := range dihs {
		if i > 0 && d.Atom1 <= dihs[i-1].Atom1 {
			Te.Errorf("dihedrals not ordered by atom1")
		}
		if contains(d.Movable, d.Atom1) {
			Te.Errorf("dihedral %d: atom1 %d is movable", i, d.Atom1)
		}
		if !contains(d.Movable, d.Atom2) {
			Te.Errorf("dihedral %d: atom2 %d is not movable", i, d.Atom2)
		}
		for _, c := range d.CheckAtoms {
			if contains(d.Movable, c) {
				Te.Errorf("dihedral %d: check atom %d is movable", i, c)
			}
			if top.Atom(c).Residue() != top.Atom(d.Atom1).Residue() {
				Te.Errorf("dihedral %d: check atom %d not in the residue of atom1", i, c)
			}
		}
		if !d.Fixed(d.Atom2) || !d.Fixed(d.Atom1) {
			Te.Errorf("dihedral %d: axis atoms should be fixed", i)
		}
		if d.Residue != top.Atom(d.Atom2).Residue() {
			Te.Errorf("dihedral %d: wrong residue %d", i, d.Residue)
		}
		if d.Interval != 60 || d.MaxSteps != 6 {
			Te.Errorf("dihedral %d: unexpected interval %f, %d steps", i, d.Interval, d.MaxSteps)
		}
	}
	//phi of residue 1: N 0-CA 1. Everything but N moves.
	if d := dihs[0]; d.Atom1 != 0 || d.Atom2 != 1 || len(d.Movable) != 24 || len(d.CheckAtoms) != 1 || d.Kind(top) != "phi" {
		Te.Errorf("unexpected first dihedral %+v", d)
	}
	//psi of residue 1: CA 1-C 2. N, CA and CB stay.
	d := dihs[1]
	if d.Atom1 != 1 || d.Atom2 != 2 || d.Kind(top) != "psi" {
		Te.Errorf("unexpected second dihedral %+v", d)
	}
	want := []int{0, 1, 4}
	if len(d.CheckAtoms) != 3 || d.CheckAtoms[0] != want[0] || d.CheckAtoms[1] != want[1] || d.CheckAtoms[2] != want[2] {
		Te.Errorf("check atoms %v, want %v", d.CheckAtoms, want)
	}
	if d.Fixed(3) || !d.Fixed(4) {
		Te.Errorf("O 3 moves, CB 4 doesn't")
	}
}

func TestIdentifyMasks(Te *testing.T) {
	top, _ := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, ":2"))
	if err != nil {
		Te.Fatal(err)
	}
	if len(dihs) != 2 || dihs[0].Atom1 != 5 || dihs[1].Atom1 != 6 {
		Te.Errorf("expected phi and psi of residue 2, got %d dihedrals", len(dihs))
	}
	//partners outside the mask are skipped silently.
	dihs, err = Identify(top, selectMask(Te, top, "@N"))
	if err != nil || len(dihs) != 0 {
		Te.Errorf("expected no dihedrals and no error, got %d, %v", len(dihs), err)
	}
	if _, err = Identify(top, nil); err == nil {
		Te.Errorf("an empty mask should fail")
	}
	if _, err = Identify(top, []int{0, 30}); err == nil || !strings.Contains(err.Error(), chem.ErrOutOfRange) {
		Te.Errorf("expected an out of range error, got %v", err)
	}
}

func TestBack(Te *testing.T) {
	cases := [][3]int{{10, 5, 5}, {1, 2, 0}, {0, 5, 0}, {3, 2, 1}, {4, 5, 0}}
	for _, c := range cases {
		if got := back(c[0], c[1]); got != c[2] {
			Te.Errorf("back(%d, %d) = %d, want %d", c[0], c[1], got, c[2])
		}
	}
}

func normAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a <= -180 {
		a += 360
	}
	return a
}

func TestIntervalMode(Te *testing.T) {
	top, coords := ala5(Te)
	orig := coords.Clone()
	dihs, err := Identify(top, selectMask(Te, top, ":2@N,CA"))
	if err != nil {
		Te.Fatal(err)
	}
	if len(dihs) != 1 {
		Te.Fatalf("expected 1 dihedral, got %d", len(dihs))
	}
	cfg := DefaultConfig()
	cfg.Mode = ModeInterval
	cfg.Interval = 90
	sink := &recorder{natoms: top.Len()}
	S, err := NewScanner(cfg, top, dihs, WithSink(sink))
	if err != nil {
		Te.Fatal(err)
	}
	r, err := S.Scan(coords)
	if err != nil {
		Te.Fatal(err)
	}
	if r.Rotations != 4 || r.Visits != 1 {
		Te.Errorf("unexpected report %+v", r)
	}
	if len(sink.frames) != 5 {
		Te.Fatalf("expected 5 frames, got %d", len(sink.frames))
	}
	prev := chem.DihedralIdx(sink.frames[0], 2, 5, 6, 7) * chem.Rad2Deg
	for i, f := range sink.frames[1:] {
		phi := chem.DihedralIdx(f, 2, 5, 6, 7) * chem.Rad2Deg
		if d := normAngle(phi - prev); math.Abs(d-90) > 1e-6 {
			Te.Errorf("frame %d: phi changed by %f", i+1, d)
		}
		prev = phi
	}
	for i := 0; i < orig.NVecs(); i++ {
		if !floats.EqualApprox(orig.RawRowView(i), sink.frames[4].RawRowView(i), 1e-9) {
			Te.Errorf("a full turn should restore atom %d", i)
		}
	}
	if dihs[0].Current != 0 {
		Te.Errorf("current angle should be back to 0, got %f", dihs[0].Current)
	}
}

func TestRandomNoCheck(Te *testing.T) {
	top, coords := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, "*"))
	if err != nil {
		Te.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	sink := &recorder{natoms: top.Len()}
	S, err := NewScanner(DefaultConfig(), top, dihs, seeded(7), WithMetrics(m), WithSink(sink))
	if err != nil {
		Te.Fatal(err)
	}
	r, err := S.Random(coords)
	if err != nil {
		Te.Fatal(err)
	}
	if r.Rotations != len(dihs) || r.Visits != len(dihs) || r.Backtracks != 0 || r.Aborted {
		Te.Errorf("unexpected report %+v", r)
	}
	if len(sink.frames) != 1 {
		Te.Errorf("random mode should write only the final frame, wrote %d", len(sink.frames))
	}
	if got := testutil.ToFloat64(m.Rotations); got != float64(len(dihs)) {
		Te.Errorf("rotations metric %f", got)
	}
	if got := testutil.ToFloat64(m.Scans.WithLabelValues(ModeRandom)); got != 1 {
		Te.Errorf("scans metric %f", got)
	}
	//bond lengths are kept
	for _, b := range top.Bonds() {
		d := math.Sqrt(coords.Dist2(b.At1.Index(), b.At2.Index()))
		if math.Abs(d-b.Dist) > 1e-6 {
			Te.Errorf("bond %d-%d changed length from %f to %f", b.At1.Index(), b.At2.Index(), b.Dist, d)
		}
	}
	//the same seed gives the same conformation.
	_, coords2 := ala5(Te)
	S2, err := NewScanner(DefaultConfig(), top, dihs, seeded(7))
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := S2.Random(coords2); err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < coords.NVecs(); i++ {
		if !floats.EqualApprox(coords.RawRowView(i), coords2.RawRowView(i), 1e-9) {
			Te.Errorf("same seed, different coordinates for atom %d", i)
		}
	}
}

func TestRandomCheckNoClash(Te *testing.T) {
	top, coords := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, "*"))
	if err != nil {
		Te.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Check = true
	cfg.Cutoff = 0.01
	S, err := NewScanner(cfg, top, dihs, seeded(3))
	if err != nil {
		Te.Fatal(err)
	}
	r, err := S.Random(coords)
	if err != nil {
		Te.Fatal(err)
	}
	if r.Rotations != len(dihs) || r.Backtracks != 0 || r.Aborted {
		Te.Errorf("unexpected report %+v", r)
	}
}

// With a huge cutoff every rotation clashes inside the residue, so each visit
// exhausts its retries and goes back to the first dihedral until the budget runs out.
func TestRandomExhausted(Te *testing.T) {
	top, coords := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, "*"))
	if err != nil {
		Te.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Check = true
	cfg.Cutoff = 100
	cfg.Increment = 90
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	S, err := NewScanner(cfg, top, dihs, seeded(11), WithMetrics(m))
	if err != nil {
		Te.Fatal(err)
	}
	r, err := S.Random(coords)
	if err != nil {
		Te.Fatal(err)
	}
	max := len(dihs) * cfg.MaxFactor
	if !r.Aborted || r.Visits != max+1 || r.Exhausted != max+1 || r.Rotations != 4*(max+1) || r.Unresolvable != 0 {
		Te.Errorf("unexpected report %+v", r)
	}
	if got := testutil.ToFloat64(m.Aborts); got != 1 {
		Te.Errorf("aborts metric %f", got)
	}
	if got := testutil.ToFloat64(m.Backtracks.WithLabelValues("exhausted")); got != float64(max+1) {
		Te.Errorf("backtracks metric %f", got)
	}
}

// The O of residue 2 is put on top of the N of residue 3, which can't be moved
// by rotating phi of residue 3.
func TestRandomUnresolvable(Te *testing.T) {
	top, coords := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, ":3@N,CA"))
	if err != nil {
		Te.Fatal(err)
	}
	if len(dihs) != 1 || dihs[0].Atom1 != 10 || !dihs[0].Fixed(10) {
		Te.Fatalf("unexpected dihedrals %v", dihs)
	}
	n := coords.RawRowView(10)
	coords.SetRow(8, []float64{n[0] + 0.4, n[1], n[2]})
	cfg := DefaultConfig()
	cfg.Check = true
	S, err := NewScanner(cfg, top, dihs, seeded(5))
	if err != nil {
		Te.Fatal(err)
	}
	r, err := S.Random(coords)
	if err != nil {
		Te.Fatal(err)
	}
	if !r.Aborted || r.Unresolvable != 3 || r.Visits != 3 || r.Rotations != 3 {
		Te.Errorf("unexpected report %+v", r)
	}
}

// With every dihedral selected, the O of residue 2 on top of the N of residue 3
// can't be moved by phi of residue 3 (position 4), so psi of residue 2 (position 3)
// is visited again.
func TestVisitUnresolvable(Te *testing.T) {
	top, coords := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, "*"))
	if err != nil {
		Te.Fatal(err)
	}
	if dihs[4].Atom1 != 10 || dihs[3].Atom1 != 6 {
		Te.Fatalf("unexpected dihedral order")
	}
	n := coords.RawRowView(10)
	coords.SetRow(8, []float64{n[0] + 0.4, n[1], n[2]})
	cfg := DefaultConfig()
	cfg.Check = true
	S, err := NewScanner(cfg, top, dihs, seeded(5))
	if err != nil {
		Te.Fatal(err)
	}
	var r Report
	next, err := S.visit(coords, 4, &r)
	if err != nil {
		Te.Fatal(err)
	}
	if next != 3 {
		Te.Errorf("an unresolvable clash at position 4 should go back to 3, went to %d", next)
	}
	if r.Unresolvable != 1 || r.Backtracks != 1 || r.Rotations != 1 {
		Te.Errorf("unexpected report %+v", r)
	}
}

// With backtrack 4, exhausting the retries at position 10 resumes the scan at 5.
func TestVisitExhausted(Te *testing.T) {
	top, coords := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, "*"))
	if err != nil {
		Te.Fatal(err)
	}
	//ala5 has 10 dihedrals; the list only needs to be long enough.
	long := make([]*Dihedral, 0, 12)
	long = append(long, dihs...)
	long = append(long, dihs[:2]...)
	cfg := DefaultConfig()
	cfg.Check = true
	cfg.Cutoff = 100
	cfg.Increment = 90
	cfg.Backtrack = 4
	S, err := NewScanner(cfg, top, long, seeded(2))
	if err != nil {
		Te.Fatal(err)
	}
	var r Report
	next, err := S.visit(coords, 10, &r)
	if err != nil {
		Te.Fatal(err)
	}
	if next != 5 {
		Te.Errorf("exhausted retries at position 10 should go back to 5, went to %d", next)
	}
	if r.Exhausted != 1 || r.Backtracks != 1 || r.Rotations != 360/cfg.Increment {
		Te.Errorf("unexpected report %+v", r)
	}
}

// The O of residue 2 is put where the CB of residue 3 lands after the first, random,
// rotation of phi of residue 3. The clash is solved by the fixed increments that follow.
func TestRandomClashSolved(Te *testing.T) {
	const seed = 9
	top, coords := ala5(Te)
	dihs, err := Identify(top, selectMask(Te, top, ":3@N,CA"))
	if err != nil {
		Te.Fatal(err)
	}
	if len(dihs) != 1 {
		Te.Fatalf("expected 1 dihedral, got %d", len(dihs))
	}
	d := dihs[0]
	cfg := DefaultConfig()
	cfg.Check = true
	cfg.Increment = 10
	first := float64(rand.New(rand.NewPCG(seed, seed)).IntN(360) + 1)
	want := coords.Clone()
	if err := chem.BondRotate(want, d.Atom1, d.Atom2, first, d.Movable); err != nil {
		Te.Fatal(err)
	}
	cb := want.RawRowView(14)
	obstacle := []float64{cb[0], cb[1], cb[2]}
	coords.SetRow(8, obstacle)
	want.SetRow(8, obstacle)

	S, err := NewScanner(cfg, top, dihs, seeded(seed))
	if err != nil {
		Te.Fatal(err)
	}
	//increments needed to clear the clash, found the same way the scanner does.
	increments := 0
	for {
		res := S.index.CheckResidue(want, d, d.Residue-1, S.cutoff2, S.rescutoff2)
		if res.Kind == clash.NoClash {
			break
		}
		if res.Kind == clash.Unresolvable {
			Te.Fatalf("the clash should be solvable, got %+v", res)
		}
		if increments++; increments > 36 {
			Te.Fatal("the clash is never solved")
		}
		if err := chem.BondRotate(want, d.Atom1, d.Atom2, float64(cfg.Increment), d.Movable); err != nil {
			Te.Fatal(err)
		}
	}
	if increments < 2 {
		Te.Fatalf("the obstacle should take a few increments to clear, took %d", increments)
	}
	r, err := S.Random(coords)
	if err != nil {
		Te.Fatal(err)
	}
	if r.Rotations != 1+increments || r.Backtracks != 0 || r.Visits != 1 || r.Aborted {
		Te.Errorf("expected %d rotations and no backtracks, got %+v", 1+increments, r)
	}
	for i := 0; i < coords.NVecs(); i++ {
		if !floats.EqualApprox(want.RawRowView(i), coords.RawRowView(i), 1e-9) {
			Te.Errorf("atom %d: %v, want %v", i, coords.RawRowView(i), want.RawRowView(i))
		}
	}
}

func TestConfigValidate(Te *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		Te.Fatal(err)
	}
	bad := map[string]func(*Config){
		"mode":      func(c *Config) { c.Mode = "impose" },
		"interval":  func(c *Config) { c.Interval = 0 },
		"cutoff":    func(c *Config) { c.Cutoff = 0 },
		"rescutoff": func(c *Config) { c.ResCutoff = -1 },
		"backtrack": func(c *Config) { c.Backtrack = -1 },
		"increment": func(c *Config) { c.Increment = 7 },
		"maxfactor": func(c *Config) { c.MaxFactor = 0 },
	}
	for field, f := range bad {
		c := DefaultConfig()
		f(&c)
		err := c.Validate()
		if err == nil {
			Te.Errorf("invalid %s accepted", field)
			continue
		}
		if !strings.Contains(err.Error(), field+"=") {
			Te.Errorf("error for %s doesn't name it: %v", field, err)
		}
	}
	c := DefaultConfig()
	c.Increment = 7
	if _, err := NewScanner(c, nil, nil); err == nil {
		Te.Errorf("NewScanner accepted an invalid configuration")
	}
}

func TestLoadConfig(Te *testing.T) {
	c, err := LoadConfig(strings.NewReader("mode: interval\ninterval: 90\nseed: 42\n"))
	if err != nil {
		Te.Fatal(err)
	}
	if c.Mode != ModeInterval || c.Interval != 90 || c.Seed == nil || *c.Seed != 42 || c.Backtrack != 4 {
		Te.Errorf("unexpected config %+v", c)
	}
	if _, err := LoadConfig(strings.NewReader("")); err != nil {
		Te.Errorf("an empty file should give the defaults: %v", err)
	}
	if _, err := LoadConfig(strings.NewReader("increment: 7\n")); err == nil {
		Te.Errorf("increment 7 accepted")
	}
	if _, err := LoadConfig(strings.NewReader("cutof: 1\n")); err == nil {
		Te.Errorf("unknown field accepted")
	}
}

func TestAction(Te *testing.T) {
	top, _, err := chem.PDBFileRead("../test/ala5.pdb")
	if err != nil {
		Te.Fatal(err)
	}
	sink := &recorder{natoms: top.Len()}
	cfg := DefaultConfig()
	A := NewAction(cfg, seeded(1), WithSink(sink), WithMetrics(NewMetrics(prometheus.NewRegistry())))
	if _, err := A.DoAction(0, v3.Zeros(top.Len())); err == nil {
		Te.Errorf("DoAction before Setup should fail")
	}
	mask, err := chem.ParseMask(":2-4")
	if err != nil {
		Te.Fatal(err)
	}
	if err := A.Setup(top, mask); err != nil {
		Te.Fatal(err)
	}
	if len(A.Dihedrals()) != 6 {
		Te.Errorf("expected 6 dihedrals, got %d", len(A.Dihedrals()))
	}
	for frame := 0; frame < 3; frame++ {
		_, coords := ala5(Te)
		if _, err := A.DoAction(frame, coords); err != nil {
			Te.Fatal(err)
		}
	}
	P := A.Problems()
	if P.Name != ProblemsName || P.Len() != 3 {
		Te.Errorf("expected 3 problem counts, got %d", P.Len())
	}
	if f, _ := P.At(2); f != 2 {
		Te.Errorf("third count stored for frame %d", f)
	}
	if len(sink.frames) != 3 {
		Te.Errorf("expected 3 frames written, got %d", len(sink.frames))
	}
	if err := A.Close(); err != nil || !sink.closed {
		Te.Errorf("sink not closed: %v", err)
	}
	empty, _ := chem.ParseMask(":9")
	if err := NewAction(cfg).Setup(top, empty); err == nil {
		Te.Errorf("Setup with a mask that selects nothing should fail")
	}
}
