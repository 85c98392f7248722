/*
 * run.go, part of dihscan.
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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	chem "github.com/rmera/dihscan"
	"github.com/rmera/dihscan/chemplot"
	"github.com/rmera/dihscan/scan"
	"github.com/rmera/dihscan/traj/stf"
	v3 "github.com/rmera/dihscan/v3"
	"github.com/spf13/cobra"
)

type runFlags struct {
	mask     string
	traj     string
	outTraj  string
	out      string
	plot     string
	rama     string
	metrics  string
	seed     uint64
	override scan.Config
}

func newRunCmd(g *globals) *cobra.Command {
	f := &runFlags{override: scan.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "run topology.pdb",
		Short: "Scan the dihedrals of every frame and count the close contacts left",
		Long: `run reads a PDB file and scans the dihedrals selected by --mask in each
of its models, or in each frame of the STF trajectory given with --traj.
The number of close contacts left in each frame is written as a table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyOverrides(cmd, &g.cfg, f)
			return runScan(cmd.OutOrStdout(), g, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.mask, "mask", "*", "Atoms whose backbone bonds can be rotated")
	fl.StringVar(&f.traj, "traj", "", "STF trajectory with the frames to scan, instead of the models of the PDB file")
	fl.StringVar(&f.outTraj, "outtraj", "", "Write scanned frames here, as PDB (.pdb) or STF")
	fl.StringVar(&f.out, "out", "", "File for the problems table (default stdout)")
	fl.StringVar(&f.plot, "plot", "", "Plot the problems per frame to this file")
	fl.StringVar(&f.rama, "rama", "", "Ramachandran plot of the scanned frames")
	fl.StringVar(&f.metrics, "metrics", "", "Write scan metrics in Prometheus text format to this file")
	fl.StringVar(&f.override.Mode, "mode", f.override.Mode, "Scan mode: interval or random")
	fl.Float64Var(&f.override.Interval, "interval", f.override.Interval, "Interval mode step, in degrees")
	fl.BoolVar(&f.override.Check, "check", f.override.Check, "Check for clashes in random mode")
	fl.Float64Var(&f.override.Cutoff, "cutoff", f.override.Cutoff, "Atom-atom clash distance, in A")
	fl.Float64Var(&f.override.ResCutoff, "rescutoff", f.override.ResCutoff, "Residues further apart than this, in A, are not checked")
	fl.IntVar(&f.override.Backtrack, "backtrack", f.override.Backtrack, "Dihedrals to go back when no clash-free angle is found")
	fl.IntVar(&f.override.Increment, "increment", f.override.Increment, "Step, in degrees, when trying to solve a clash")
	fl.IntVar(&f.override.MaxFactor, "maxfactor", f.override.MaxFactor, "The scan stops after this many times the number of dihedrals visits")
	fl.Uint64Var(&f.seed, "seed", 0, "Random seed (default: from the clock)")
	fl.Float64Var(&f.override.ProblemCutoff, "problem-cutoff", f.override.ProblemCutoff, "Contacts closer than this, in A, are problems")
	return cmd
}

// applyOverrides copies into cfg the flags set in the command line.
func applyOverrides(cmd *cobra.Command, cfg *scan.Config, f *runFlags) {
	fl := cmd.Flags()
	o := f.override
	if fl.Changed("mode") {
		cfg.Mode = o.Mode
	}
	if fl.Changed("interval") {
		cfg.Interval = o.Interval
	}
	if fl.Changed("check") {
		cfg.Check = o.Check
	}
	if fl.Changed("cutoff") {
		cfg.Cutoff = o.Cutoff
	}
	if fl.Changed("rescutoff") {
		cfg.ResCutoff = o.ResCutoff
	}
	if fl.Changed("backtrack") {
		cfg.Backtrack = o.Backtrack
	}
	if fl.Changed("increment") {
		cfg.Increment = o.Increment
	}
	if fl.Changed("maxfactor") {
		cfg.MaxFactor = o.MaxFactor
	}
	if fl.Changed("problem-cutoff") {
		cfg.ProblemCutoff = o.ProblemCutoff
	}
	if fl.Changed("seed") {
		seed := f.seed
		cfg.Seed = &seed
	}
}

func runScan(stdout io.Writer, g *globals, f *runFlags, pdbname string) (err error) {
	top, frames, err := chem.PDBFileRead(pdbname)
	if err != nil {
		return err
	}
	mask, err := chem.ParseMask(f.mask)
	if err != nil {
		return err
	}
	var src chem.Traj = &models{frames: frames, name: pdbname}
	if f.traj != "" {
		rd, header, err := stf.New(f.traj)
		if err != nil {
			return err
		}
		defer rd.Close()
		if rd.Len() != top.Len() {
			return fmt.Errorf("%s has %d atoms, %s has %d", f.traj, rd.Len(), pdbname, top.Len())
		}
		g.log.Debug("trajectory opened", "file", f.traj, "header", header)
		src = rd
	}
	opts := []scan.Option{scan.WithLogger(g.log)}
	reg := prometheus.NewRegistry()
	if f.metrics != "" {
		opts = append(opts, scan.WithMetrics(scan.NewMetrics(reg)))
	}
	if f.outTraj != "" {
		sink, err := openSink(f.outTraj, top)
		if err != nil {
			return err
		}
		opts = append(opts, scan.WithSink(sink))
	}
	A := scan.NewAction(g.cfg, opts...)
	defer func() {
		if cerr := A.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := A.Setup(top, mask); err != nil {
		return err
	}
	var sets []chemplot.RamaSet
	var rama [][][2]float64
	if f.rama != "" {
		sets = chemplot.RamaList(top)
	}
	coords := v3.Zeros(top.Len())
	err = eachFrame(src, coords, func(frame int) error {
		if _, err := A.DoAction(frame, coords); err != nil {
			return err
		}
		if sets == nil {
			return nil
		}
		angles, err := chemplot.RamaCalc(coords, sets)
		if err != nil {
			return err
		}
		rama = append(rama, angles)
		return nil
	})
	if err != nil {
		return err
	}
	P := A.Problems()
	g.log.Info("scan finished", "frames", P.Len(), "problems", P.Summary().String())
	if err := writeTable(stdout, f.out, P.WriteStd); err != nil {
		return err
	}
	if f.plot != "" {
		if err := P.Plot("Problems per frame", f.plot); err != nil {
			return err
		}
	}
	if f.rama != "" {
		if len(sets) == 0 {
			g.log.Warn("no residues with a complete backbone, skipping the Ramachandran plot")
		} else if err := chemplot.RamaPlot(rama, "Scanned frames", f.rama); err != nil {
			return err
		}
	}
	if f.metrics != "" {
		if err := prometheus.WriteToTextfile(f.metrics, reg); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(stdout io.Writer, name string, write func(io.Writer) error) error {
	if name == "" {
		return write(stdout)
	}
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
