package fock

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarginals(t *testing.T) {
	// (|1,2> + |3,0>)/sqrt(2) with two qubits per qumode; qumode 0 in the
	// low bits.
	state := make([]complex128, 16)
	state[1+2<<2] = complex(1/math.Sqrt2, 0)
	state[3] = complex(0, 1/math.Sqrt2)
	marg, err := Marginals(state, 2, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 0, 0.5}, marg[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0, 0.5, 0}, marg[1], 1e-12)
	assert.InDelta(t, 2, MeanPhotons(marg[0]), 1e-12)
	assert.InDelta(t, 1, MeanPhotons(marg[1]), 1e-12)
}

func TestMarginalsDimension(t *testing.T) {
	tcs := []struct {
		name          string
		dim           int
		qubits, modes int
	}{
		{"too small", 8, 2, 2},
		{"no qubits", 4, 0, 1},
		{"no modes", 4, 2, 0},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Marginals(make([]complex128, tc.dim), tc.qubits, tc.modes); err == nil {
				t.Errorf("Marginals succeeded, want error")
			}
		})
	}
}

func TestDecodeCounts(t *testing.T) {
	counts := map[string]int{
		// qumode 1 = 10b, qumode 0 = 01b.
		"1001": 5,
		"0000": 7,
		"0011": 5,
	}
	out, err := DecodeCounts(counts, 2)
	require.NoError(t, err)
	want := []Outcome{
		{Photons: []int{0, 0}, Count: 7},
		{Photons: []int{1, 2}, Count: 5},
		{Photons: []int{3, 0}, Count: 5},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("DecodeCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeCountsMergesSpacing(t *testing.T) {
	out, err := DecodeCounts(map[string]int{"10 01": 2, "1001": 3}, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 5, out[0].Count)
	assert.Equal(t, "|1,2>", out[0].String())
}

func TestDecodeCountsErrors(t *testing.T) {
	if _, err := DecodeCounts(map[string]int{"101": 1}, 2); err == nil {
		t.Errorf("accepted an outcome that does not split into qumodes")
	}
	if _, err := DecodeCounts(map[string]int{"1x": 1}, 1); err == nil {
		t.Errorf("accepted a malformed outcome")
	}
	if _, err := DecodeCounts(nil, 0); err == nil {
		t.Errorf("accepted zero qubits per mode")
	}
}
