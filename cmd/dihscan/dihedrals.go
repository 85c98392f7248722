package main

import (
	"fmt"

	chem "github.com/rmera/dihscan"
	"github.com/rmera/dihscan/scan"
	"github.com/spf13/cobra"
)

func newDihedralsCmd(g *globals) *cobra.Command {
	var maskExpr string
	cmd := &cobra.Command{
		Use:   "dihedrals topology.pdb",
		Short: "List the rotatable dihedrals selected by a mask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _, err := chem.PDBFileRead(args[0])
			if err != nil {
				return err
			}
			mask, err := chem.ParseMask(maskExpr)
			if err != nil {
				return err
			}
			sel, err := mask.Select(top)
			if err != nil {
				return err
			}
			dihs, err := scan.Identify(top, sel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s %-8s %-4s %6s %6s %8s %s\n", "#", "Residue", "Kind", "Atom1", "Atom2", "Movable", "Check")
			for i, d := range dihs {
				at := top.Atom(d.Atom2)
				fmt.Fprintf(out, "%-4d %-8s %-4s %6d %6d %8d %v\n", i+1, fmt.Sprintf("%s%d", at.Molname, at.Molid), d.Kind(top), d.Atom1+1, d.Atom2+1, len(d.Movable), d.CheckAtoms)
			}
			g.log.Info("dihedrals identified", "mask", mask.String(), "count", len(dihs))
			return nil
		},
	}
	cmd.Flags().StringVar(&maskExpr, "mask", "*", "Atoms whose backbone bonds can be rotated")
	return cmd
}
