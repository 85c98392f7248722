package main

import (
	"errors"
	"os"
	"strings"

	chem "github.com/rmera/dihscan"
	"github.com/rmera/dihscan/traj/stf"
	v3 "github.com/rmera/dihscan/v3"
)

// models serves the models of a PDB file as a trajectory.
type models struct {
	frames []*v3.Matrix
	next   int
	name   string
}

func (M *models) Readable() bool { return M.next < len(M.frames) }

func (M *models) Len() int {
	if len(M.frames) == 0 {
		return 0
	}
	return M.frames[0].NVecs()
}

func (M *models) Next(out *v3.Matrix, box ...[]float64) error {
	if !M.Readable() {
		return &endOfModels{file: M.name}
	}
	if out != nil {
		out.Copy(M.frames[M.next])
	}
	M.next++
	return nil
}

type endOfModels struct {
	file string
	deco []string
}

func (E *endOfModels) Error() string { return "EOF" }

func (E *endOfModels) Decorate(d string) []string {
	if d != "" {
		E.deco = append(E.deco, d)
	}
	return E.deco
}

func (E *endOfModels) Critical() bool              { return false }
func (E *endOfModels) FileName() string            { return E.file }
func (E *endOfModels) Format() string              { return "pdb" }
func (E *endOfModels) NormalLastFrameTermination() {}

var _ chem.LastFrameError = &endOfModels{}

// pdbSink writes each frame it gets as a model of a PDB file.
type pdbSink struct {
	*chem.PDBWriter
	f *os.File
}

func newPDBSink(name string, top *chem.Topology) (*pdbSink, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &pdbSink{PDBWriter: chem.NewPDBWriter(f, top), f: f}, nil
}

// Close finishes the PDB stream and closes the file.
func (P *pdbSink) Close() error {
	if err := P.PDBWriter.Close(); err != nil {
		P.f.Close()
		return err
	}
	return P.f.Close()
}

// openSink returns a PDB sink for names ending in .pdb and an
// STF writer for anything else.
func openSink(name string, top *chem.Topology) (chem.TrajWriter, error) {
	if strings.HasSuffix(strings.ToLower(name), ".pdb") {
		return newPDBSink(name, top)
	}
	return stf.NewWriter(name, top.Len(), map[string]string{"generator": "dihscan"})
}

// eachFrame reads frames from t into buf, calling fn after each one,
// until the trajectory ends.
func eachFrame(t chem.Traj, buf *v3.Matrix, fn func(frame int) error) error {
	for frame := 0; t.Readable(); frame++ {
		err := t.Next(buf)
		if err != nil {
			var last chem.LastFrameError
			if errors.As(err, &last) {
				return nil
			}
			return err
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
	return nil
}
