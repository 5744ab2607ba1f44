// Package fock reads photon-number information back out of qubit-encoded
// qumodes: marginal Fock distributions of a statevector, and measurement
// counts regrouped by qumode.
package fock

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alan-christopher/cvcircuit/cv/bitmap"
)

// Marginals returns, for each of the first numQumodes qumodes encoded in
// qubitsPerMode qubits each, the probability of every Fock number.
func Marginals(state []complex128, qubitsPerMode, numQumodes int) ([][]float64, error) {
	if qubitsPerMode < 1 || numQumodes < 1 {
		return nil, fmt.Errorf("need positive qubits per mode and qumodes, got %d and %d", qubitsPerMode, numQumodes)
	}
	if len(state) < 1<<(qubitsPerMode*numQumodes) {
		return nil, fmt.Errorf("state of dimension %d cannot hold %d qumodes of %d qubits",
			len(state), numQumodes, qubitsPerMode)
	}
	cutoff := 1 << qubitsPerMode
	mask := cutoff - 1
	marg := make([][]float64, numQumodes)
	for m := range marg {
		marg[m] = make([]float64, cutoff)
	}
	for i, a := range state {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p == 0 {
			continue
		}
		for m := range marg {
			marg[m][(i>>(m*qubitsPerMode))&mask] += p
		}
	}
	return marg, nil
}

// MeanPhotons returns the mean photon number of the Fock distribution dist.
func MeanPhotons(dist []float64) float64 {
	var mean float64
	for n, p := range dist {
		mean += float64(n) * p
	}
	return mean
}

// An Outcome is one measured configuration of photon numbers, one entry per
// qumode, together with how many shots produced it.
type Outcome struct {
	Photons []int
	Count   int
}

func (o Outcome) String() string {
	parts := make([]string, len(o.Photons))
	for i, n := range o.Photons {
		parts[i] = strconv.Itoa(n)
	}
	return "|" + strings.Join(parts, ",") + ">"
}

// DecodeCounts regroups measurement counts, keyed by classical bitstrings
// with the highest bit first, into photon numbers. Classical bits
// [i*qubitsPerMode, (i+1)*qubitsPerMode) are read as qumode i. Outcomes are
// sorted by decreasing count, ties broken by photon numbers.
func DecodeCounts(counts map[string]int, qubitsPerMode int) ([]Outcome, error) {
	if qubitsPerMode < 1 {
		return nil, fmt.Errorf("need positive qubits per mode, got %d", qubitsPerMode)
	}
	merged := make(map[string]*Outcome)
	for key, count := range counts {
		bits, err := bitmap.FromString(key)
		if err != nil {
			return nil, err
		}
		if bits.Size()%qubitsPerMode != 0 {
			return nil, fmt.Errorf("outcome %q does not split into qumodes of %d bits", key, qubitsPerMode)
		}
		var photons []int
		for lo := 0; lo < bits.Size(); lo += qubitsPerMode {
			mode, err := bitmap.Slice(bits, lo, lo+qubitsPerMode)
			if err != nil {
				return nil, err
			}
			photons = append(photons, int(bitmap.Uint(mode)))
		}
		o := Outcome{Photons: photons}
		if prev, ok := merged[o.String()]; ok {
			prev.Count += count
			continue
		}
		o.Count = count
		merged[o.String()] = &o
	}
	out := make([]Outcome, 0, len(merged))
	for _, o := range merged {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].String() < out[j].String()
	})
	return out, nil
}
