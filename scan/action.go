/*
 * scan/action.go, part of dihscan.
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
	"io"
	"log/slog"

	chem "github.com/rmera/dihscan"
	"github.com/rmera/dihscan/clash"
	"github.com/rmera/dihscan/dataset"
	v3 "github.com/rmera/dihscan/v3"
)

// ProblemsName is the name of the data set with the number of problems per frame.
const ProblemsName = "Nprob"

// Action scans frames one at a time and counts the close contacts left in each.
type Action struct {
	cfg      Config
	opts     []Option
	log      *slog.Logger
	metrics  *Metrics
	sink     chem.TrajWriter
	top      *chem.Topology
	scanner  *Scanner
	problems *dataset.Int
}

// NewAction returns an action that will use cfg and pass opts to its scanner.
// Setup must be called before DoAction.
func NewAction(cfg Config, opts ...Option) *Action {
	var probe Scanner
	for _, o := range opts {
		o(&probe)
	}
	A := &Action{cfg: cfg, opts: opts, log: probe.log, metrics: probe.metrics, sink: probe.sink, problems: dataset.NewInt(ProblemsName)}
	if A.log == nil {
		A.log = slog.Default()
	}
	return A
}

// Setup finds the dihedrals of top selected by mask and prepares the scanner.
// It fails if the configuration is invalid or mask selects nothing.
func (A *Action) Setup(top *chem.Topology, mask *chem.Mask) error {
	sel, err := mask.Select(top)
	if err != nil {
		return errDecorate(err, "scan.Action.Setup")
	}
	dihs, err := Identify(top, sel)
	if err != nil {
		return errDecorate(err, "scan.Action.Setup")
	}
	A.scanner, err = NewScanner(A.cfg, top, dihs, A.opts...)
	if err != nil {
		return errDecorate(err, "scan.Action.Setup")
	}
	A.top = top
	A.log.Info("dihedral scan set up", "mode", A.cfg.Mode, "mask", mask.String(), "atoms", len(sel), "dihedrals", len(dihs), "check", A.cfg.Check)
	if len(dihs) == 0 {
		A.log.Warn("no rotatable dihedrals selected, frames will not change", "mask", mask.String())
	}
	for _, d := range dihs {
		A.log.Debug("dihedral", "name", A.scanner.label(d), "kind", d.Kind(top), "residue", d.Residue+1, "movable", len(d.Movable), "checkatoms", d.CheckAtoms)
	}
	return nil
}

// Dihedrals returns the dihedrals found by Setup.
func (A *Action) Dihedrals() []*Dihedral {
	if A.scanner == nil {
		return nil
	}
	return A.scanner.Dihedrals()
}

// DoAction scans coords, in place, and returns the number of problems left in
// the frame, which is also added to the problems data set under frame.
func (A *Action) DoAction(frame int, coords *v3.Matrix) (int, error) {
	if A.scanner == nil {
		return 0, chem.NewError("Action used before Setup", "scan.Action.DoAction")
	}
	if coords.NVecs() != A.top.Len() {
		return 0, chem.NewError("Frame and topology have different numbers of atoms", "scan.Action.DoAction")
	}
	r, err := A.scanner.Scan(coords)
	if err != nil {
		return 0, errDecorate(err, "scan.Action.DoAction")
	}
	n := A.scanner.index.Problems(coords, A.top, A.cfg.ProblemCutoff, A.cfg.ResCutoff)
	A.problems.Add(frame, n)
	A.metrics.problems(n)
	A.log.Debug("frame scanned", "frame", frame+1, "problems", n, "visits", r.Visits, "rotations", r.Rotations, "backtracks", r.Backtracks, "aborted", r.Aborted)
	return n, nil
}

// Problems returns the data set with one problem count per frame processed.
func (A *Action) Problems() *dataset.Int {
	return A.problems
}

// Close closes the trajectory sink, if it can be closed.
func (A *Action) Close() error {
	if c, ok := A.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
