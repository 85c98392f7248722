/*
 * scan/scanner.go, part of dihscan.
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
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	chem "github.com/rmera/dihscan"
	"github.com/rmera/dihscan/clash"
	v3 "github.com/rmera/dihscan/v3"
)

// Report summarizes one scan of a frame.
type Report struct {
	//Visits counts the times a dihedral was taken up by the scan, including revisits after backtracking.
	Visits       int
	Rotations    int
	Backtracks   int
	Unresolvable int
	Exhausted    int
	//Aborted is true if a random scan ran out of visits before the last dihedral.
	Aborted bool
}

// Scanner rotates the dihedrals of a molecule, one frame at a time.
// A Scanner is not safe for concurrent use.
type Scanner struct {
	cfg          Config
	top          *chem.Topology
	dihs         []*Dihedral
	index        clash.Index
	cutoff2      float64
	rescutoff2   float64
	maxVisits    int
	maxIncrement int
	rng          *rand.Rand
	log          *slog.Logger
	metrics      *Metrics
	sink         chem.TrajWriter
}

// Option sets optional parts of a Scanner.
type Option func(*Scanner)

// WithRand sets the random number generator used in random mode.
func WithRand(r *rand.Rand) Option {
	return func(S *Scanner) { S.rng = r }
}

// WithLogger sets the logger for scan diagnostics. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(S *Scanner) { S.log = l }
}

// WithMetrics sets where the scan counts its work. Without it nothing is counted.
func WithMetrics(m *Metrics) Option {
	return func(S *Scanner) { S.metrics = m }
}

// WithSink sets a trajectory where frames are written: every rotation in
// interval mode, the final frame in random mode.
func WithSink(w chem.TrajWriter) Option {
	return func(S *Scanner) { S.sink = w }
}

// NewScanner returns a Scanner for the dihedrals dihs of top. cfg is validated
// and the interval of each dihedral is set from it. Unless WithRand is given,
// the generator is seeded once, from cfg.Seed or from the clock.
func NewScanner(cfg Config, top *chem.Topology, dihs []*Dihedral, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errDecorate(err, "scan.NewScanner")
	}
	S := &Scanner{
		cfg:          cfg,
		top:          top,
		dihs:         dihs,
		index:        clash.NewIndex(top),
		cutoff2:      cfg.Cutoff * cfg.Cutoff,
		rescutoff2:   cfg.ResCutoff * cfg.ResCutoff,
		maxVisits:    len(dihs) * cfg.MaxFactor,
		maxIncrement: 360 / cfg.Increment,
	}
	for _, o := range opts {
		o(S)
	}
	if S.log == nil {
		S.log = slog.Default()
	}
	if S.rng == nil {
		seed := uint64(time.Now().UnixNano())
		if cfg.Seed != nil {
			seed = *cfg.Seed
		}
		S.rng = rand.New(rand.NewPCG(seed, seed))
	}
	for _, d := range dihs {
		if d.Residue < 0 || d.Residue >= len(S.index) {
			return nil, chem.NewError(fmt.Sprintf("%s: residue %d", chem.ErrOutOfRange, d.Residue), "scan.NewScanner")
		}
		d.SetInterval(cfg.Interval)
	}
	return S, nil
}

// Dihedrals returns the dihedrals handled by S, in scan order.
func (S *Scanner) Dihedrals() []*Dihedral {
	return S.dihs
}

// Scan runs the scan mode set in the configuration on coords.
func (S *Scanner) Scan(coords *v3.Matrix) (Report, error) {
	if S.cfg.Mode == ModeInterval {
		return S.Interval(coords)
	}
	return S.Random(coords)
}

func (S *Scanner) label(d *Dihedral) string {
	a1, a2 := S.top.Atom(d.Atom1), S.top.Atom(d.Atom2)
	return fmt.Sprintf("%s%d:%s-%s", a1.Molname, a1.Molid, a1.Name, a2.Name)
}

func (S *Scanner) write(coords *v3.Matrix) error {
	if S.sink == nil {
		return nil
	}
	if err := S.sink.WNext(coords); err != nil {
		return errDecorate(err, "scan.write")
	}
	return nil
}

// Interval rotates each dihedral, in order, by its interval until it has gone
// around once. coords is written to the sink before the first rotation and after each one.
// No clashes are checked.
func (S *Scanner) Interval(coords *v3.Matrix) (Report, error) {
	var r Report
	if err := S.write(coords); err != nil {
		return r, errDecorate(err, "scan.Interval")
	}
	for _, d := range S.dihs {
		r.Visits++
		S.log.Debug("rotating dihedral", "dihedral", S.label(d), "interval", d.Interval, "steps", d.MaxSteps)
		for step := 0; step < d.MaxSteps; step++ {
			if err := chem.BondRotate(coords, d.Atom1, d.Atom2, d.Interval, d.Movable); err != nil {
				return r, errDecorate(err, "scan.Interval")
			}
			d.Current = math.Mod(d.Current+d.Interval, 360)
			r.Rotations++
			S.metrics.rotation()
			if err := S.write(coords); err != nil {
				return r, errDecorate(err, "scan.Interval")
			}
		}
	}
	S.metrics.scanDone(ModeInterval, r)
	return r, nil
}

// back returns cursor moved back by steps positions, never before the first one.
func back(cursor, steps int) int {
	if cursor-steps < 0 {
		return 0
	}
	return cursor - steps
}

// Random rotates each dihedral, in order, by a random angle between 1 and 360 degrees.
// If clash checks are enabled, a rotation that leaves a clash that the dihedral can't
// solve sends the scan back to the previous dihedral. Otherwise the dihedral is rotated by the configured
// increment until the clash disappears or a full turn is completed, in which case the scan
// goes back Backtrack+1 dihedrals. The scan stops early, without error, once
// it has visited more than MaxFactor times the number of dihedrals.
// The final coordinates are written to the sink.
func (S *Scanner) Random(coords *v3.Matrix) (Report, error) {
	var r Report
	n := len(S.dihs)
	cursor := 0
	for cursor < n {
		r.Visits++
		next, err := S.visit(coords, cursor, &r)
		if err != nil {
			return r, errDecorate(err, "scan.Random")
		}
		cursor = next
		if cursor < n && r.Visits > S.maxVisits {
			r.Aborted = true
			S.log.Warn("visit budget exceeded, stopping the scan", "visits", r.Visits, "max", S.maxVisits, "dihedral", S.label(S.dihs[cursor]), "position", cursor)
			break
		}
	}
	if err := S.write(coords); err != nil {
		return r, errDecorate(err, "scan.Random")
	}
	S.metrics.scanDone(ModeRandom, r)
	return r, nil
}

// visit rotates the dihedral at cursor and returns the position of the next dihedral to visit.
func (S *Scanner) visit(coords *v3.Matrix, cursor int, r *Report) (int, error) {
	d := S.dihs[cursor]
	//residues up to that of the next dihedral are checked.
	limit := d.Residue - 1
	if cursor+1 < len(S.dihs) {
		limit = S.dihs[cursor+1].Residue
	}
	step := float64(S.rng.IntN(360) + 1)
	//the clash with the largest distance is the least severe.
	leastSevere := 0.0
	leastAttempt := 0
	for attempt := 0; ; {
		if err := chem.BondRotate(coords, d.Atom1, d.Atom2, step, d.Movable); err != nil {
			return cursor, err
		}
		r.Rotations++
		S.metrics.rotation()
		if !S.cfg.Check {
			return cursor + 1, nil
		}
		res := S.index.CheckResidue(coords, d, limit, S.cutoff2, S.rescutoff2)
		switch res.Kind {
		case clash.NoClash:
			return cursor + 1, nil
		case clash.Unresolvable:
			r.Unresolvable++
			r.Backtracks++
			S.metrics.backtrack("unresolvable")
			S.log.Debug("clash can't be solved rotating this dihedral, trying the previous one again", "dihedral", S.label(d), "atoms", res.Atoms, "distance", math.Sqrt(res.D2))
			return back(cursor, 1), nil
		}
		if res.D2 > leastSevere {
			leastSevere = res.D2
			leastAttempt = attempt
		}
		step = float64(S.cfg.Increment)
		attempt++
		if attempt == S.maxIncrement {
			r.Exhausted++
			r.Backtracks++
			S.metrics.backtrack("exhausted")
			S.log.Debug("no clash-free angle found", "dihedral", S.label(d), "attempts", attempt, "leastsevere", math.Sqrt(leastSevere), "leastattempt", leastAttempt, "back", S.cfg.Backtrack+1)
			return back(cursor, S.cfg.Backtrack+1), nil
		}
	}
}

func errDecorate(err error, caller string) error {
	if e, ok := err.(chem.Error); ok {
		e.Decorate(caller)
	}
	return err
}
