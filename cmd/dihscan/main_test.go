package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/dihscan"
	"github.com/rmera/dihscan/traj/stf"
	v3 "github.com/rmera/dihscan/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ala5 = "../../test/ala5.pdb"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, logs bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDihedralsCommand(t *testing.T) {
	out, err := execute(t, "dihedrals", ala5, "--mask", ":2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "ALA2")
	assert.Contains(t, lines[1], "phi")
	assert.Contains(t, lines[2], "psi")
}

func TestRunRandom(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "nprob.dat")
	metrics := filepath.Join(dir, "scan.prom")
	outtraj := filepath.Join(dir, "out.stz")
	plot := filepath.Join(dir, "nprob.png")
	rama := filepath.Join(dir, "rama.png")
	_, err := execute(t, "run", ala5, "--seed", "3", "--out", table, "--metrics", metrics,
		"--outtraj", outtraj, "--plot", plot, "--rama", rama)
	require.NoError(t, err)

	data, err := os.ReadFile(table)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#Frame"))
	assert.Contains(t, lines[0], "Nprob")
	assert.Equal(t, "1", strings.Fields(lines[1])[0])

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "dihscan_rotations_total 10")
	assert.Contains(t, string(prom), `dihscan_scans_total{mode="random"} 1`)

	for _, name := range []string{plot, rama} {
		info, err := os.Stat(name)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}

	rd, _, err := stf.New(outtraj)
	require.NoError(t, err)
	defer rd.Close()
	assert.Equal(t, 25, rd.Len())
	require.NoError(t, rd.Next(v3.Zeros(25)))
	err = rd.Next(nil)
	var last chem.LastFrameError
	assert.ErrorAs(t, err, &last)
}

func TestRunIntervalConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "scan.yaml")
	require.NoError(t, os.WriteFile(config, []byte("mode: interval\ninterval: 180\n"), 0o644))
	outtraj := filepath.Join(dir, "frames.pdb")
	out, err := execute(t, "run", ala5, "--config", config, "--interval", "90", "--mask", ":2@N,CA", "--outtraj", outtraj)
	require.NoError(t, err)
	assert.Contains(t, out, "#Frame")

	top, frames, err := chem.PDBFileRead(outtraj)
	require.NoError(t, err)
	assert.Equal(t, 25, top.Len())
	//the start frame and one per 90 degree step.
	require.Len(t, frames, 5)
	phi0 := chem.DihedralIdx(frames[0], 2, 5, 6, 7) * chem.Rad2Deg
	phi2 := chem.DihedralIdx(frames[2], 2, 5, 6, 7) * chem.Rad2Deg
	assert.InDelta(t, 180, abs(phi2-phi0), 0.1)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestRunSTFInput(t *testing.T) {
	dir := t.TempDir()
	_, frames, err := chem.PDBFileRead(ala5)
	require.NoError(t, err)
	in := filepath.Join(dir, "in.stf")
	w, err := stf.NewWriter(in, 25, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.WNext(frames[0]))
	}
	require.NoError(t, w.Close())

	out, err := execute(t, "run", ala5, "--traj", in, "--seed", "1", "--mode", "random", "--check")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("increment: 7\n"), 0o644))
	cases := map[string][]string{
		"config":    {"run", ala5, "--config", bad},
		"flag":      {"run", ala5, "--increment", "7"},
		"mask":      {"run", ala5, "--mask", ":1-"},
		"empty":     {"run", ala5, "--mask", ":9"},
		"log level": {"run", ala5, "--log-level", "loud"},
		"no file":   {"dihedrals", filepath.Join(dir, "missing.pdb")},
		"args":      {"run"},
	}
	for name, args := range cases {
		_, err := execute(t, args...)
		assert.Error(t, err, name)
	}
}
