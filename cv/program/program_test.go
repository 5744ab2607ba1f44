package program

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/alan-christopher/cvcircuit/cv"
	"github.com/alan-christopher/cvcircuit/cv/fock"
	"github.com/alan-christopher/cvcircuit/cv/sim"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoYAML = `
qubits_per_mode: 3
qumodes: 2
init: [0, 0]
gates:
  - {op: D, modes: [0], param: 1}
  - {op: bs, modes: [0, 1], param: 1.5707963267948966}
`

func TestLoad(t *testing.T) {
	p, err := Load(strings.NewReader(demoYAML))
	require.NoError(t, err)
	want := Default()
	want.Gates[1].Param = 1.5707963267948966
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tcs := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown field", "qumodes: 1\nwires: 3\n"},
		{"no qumodes", "qumodes: 0\n"},
		{"unknown op", "qumodes: 1\ngates: [{op: X, modes: [0]}]\n"},
		{"arity", "qumodes: 2\ngates: [{op: BS, modes: [0]}]\n"},
		{"complex rotation", "qumodes: 1\ngates: [{op: R, modes: [0], param: 1, imag: 1}]\n"},
		{"long init", "qumodes: 1\ninit: [0, 0]\n"},
		{"negative shots", "qumodes: 1\nshots: -1\n"},
		{"too wide", "qubits_per_mode: 7\nqumodes: 1\n"},
		{"too wide for two-mode gate", "qubits_per_mode: 5\nqumodes: 2\ngates: [{op: BS, modes: [0, 1], param: 1}]\n"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tc.doc)); err == nil {
				t.Errorf("Load(%q) succeeded, want error", tc.doc)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	out, err := Default().Marshal()
	require.NoError(t, err)
	p, err := Load(bytes.NewReader(out))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), p); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDefault(t *testing.T) {
	b, err := Default().Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 6, b.Circuit.NumQubits())
	assert.Equal(t, 4, b.Circuit.Len())
	assert.Nil(t, b.Clbits)

	res, err := sim.New(sim.Opts{}).Execute(context.Background(), b.Circuit)
	require.NoError(t, err)
	marg, err := fock.Marginals(res.Statevector, b.CV.QubitsPerMode(), b.CV.NumQumodes())
	require.NoError(t, err)
	assert.InDelta(t, 1, fock.MeanPhotons(marg[1]), 1e-2)
}

func TestBuildEveryGate(t *testing.T) {
	p := &Program{
		QubitsPerMode: 1,
		Qumodes:       2,
		Init:          []int{1, 0},
		Gates: []Gate{
			{Op: "D", Modes: []int{0}, Param: 0.1, Imag: 0.2},
			{Op: "S", Modes: []int{1}, Param: 0.1},
			{Op: "R", Modes: []int{0}, Param: math.Pi},
			{Op: "K", Modes: []int{1}, Param: 0.5},
			{Op: "BS", Modes: []int{1, 0}, Param: 0.3},
			{Op: "S2", Modes: []int{0, 1}, Param: 0.2, Imag: -0.1},
		},
		Measure: true,
	}
	b, err := p.Build(nil)
	require.NoError(t, err)
	// 2 initializations, 6 gates and 2 measurements.
	assert.Equal(t, 10, b.Circuit.Len())
	require.NotNil(t, b.Clbits)
	assert.Equal(t, 2, b.Clbits.Size())
}

func TestBuildWideSingleModeProgram(t *testing.T) {
	p := &Program{
		QubitsPerMode: 5,
		Qumodes:       2,
		Gates:         []Gate{{Op: "D", Modes: []int{1}, Param: 0.5}},
	}
	b, err := p.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 32, b.CV.Cutoff())
	assert.Equal(t, 1, b.Circuit.Len())
}

func TestBuildDefaultWidth(t *testing.T) {
	b, err := (&Program{Qumodes: 3}).Build(nil)
	require.NoError(t, err)
	assert.Equal(t, cv.DefaultQubitsPerMode, b.CV.QubitsPerMode())
	assert.Equal(t, 3*cv.DefaultQubitsPerMode, b.Circuit.NumQubits())
}

func TestBuildPropagatesAdapterErrors(t *testing.T) {
	tcs := []struct {
		name string
		p    *Program
		eerr error
	}{
		{"fock cutoff", &Program{QubitsPerMode: 1, Qumodes: 1, Init: []int{2}}, cv.ErrFockCutoff},
		{"qumode range", &Program{Qumodes: 1, Gates: []Gate{{Op: "D", Modes: []int{1}, Param: 1}}}, cv.ErrQumodeRange},
		{"same qumode", &Program{Qumodes: 2, Gates: []Gate{{Op: "BS", Modes: []int{1, 1}}}}, cv.ErrSameQumode},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.p.Build(nil)
			if !errors.Is(err, tc.eerr) {
				t.Errorf("Build error == %v, want %v", err, tc.eerr)
			}
		})
	}
}
