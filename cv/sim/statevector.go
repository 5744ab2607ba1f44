package sim

import (
	"math"
	"math/rand"
)

// targetOffsets returns, for every j in [0, 2^k), the state index offset
// obtained by spreading the bits of j over the target qubits: bit t of j
// lands on qubit targets[t].
func targetOffsets(targets []int) (offsets []int, mask int) {
	dim := 1 << len(targets)
	offsets = make([]int, dim)
	for _, q := range targets {
		mask |= 1 << q
	}
	for j := 0; j < dim; j++ {
		off := 0
		for t, q := range targets {
			if j&(1<<t) != 0 {
				off |= 1 << q
			}
		}
		offsets[j] = off
	}
	return offsets, mask
}

// applyUnitary applies the row-major matrix u to the target qubits of state.
func applyUnitary(state []complex128, u []complex128, targets []int) {
	offsets, mask := targetOffsets(targets)
	dim := len(offsets)
	in := make([]complex128, dim)
	for base := range state {
		if base&mask != 0 {
			continue
		}
		for j, off := range offsets {
			in[j] = state[base|off]
		}
		for r, off := range offsets {
			row := u[r*dim : (r+1)*dim]
			var s complex128
			for c, v := range row {
				if v != 0 {
					s += v * in[c]
				}
			}
			state[base|off] = s
		}
	}
}

// resetTargets projects the target qubits onto |0…0>. If they are entangled
// with, or not already in, the zero state an outcome is sampled with r and
// the state collapsed onto it before the targets are cleared.
func resetTargets(state []complex128, targets []int, r *rand.Rand) {
	offsets, mask := targetOffsets(targets)
	probs := make([]float64, len(offsets))
	for i, a := range state {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p == 0 {
			continue
		}
		probs[outcomeOf(i, offsets)] += p
	}
	outcome := sample(probs, r)
	norm := probs[outcome]
	scale := complex(1/math.Sqrt(norm), 0)
	off := offsets[outcome]
	for base := range state {
		if base&mask != 0 {
			continue
		}
		state[base] = state[base|off] * scale
	}
	for i := range state {
		if i&mask != 0 {
			state[i] = 0
		}
	}
}

// prepareTargets maps |rest>|0…0> to |rest>|vec> on the target qubits. The
// targets must already be in the zero state.
func prepareTargets(state []complex128, vec []complex128, targets []int) {
	offsets, mask := targetOffsets(targets)
	for base := range state {
		if base&mask != 0 {
			continue
		}
		a := state[base]
		for j, off := range offsets {
			state[base|off] = a * vec[j]
		}
	}
}

// outcomeOf returns the value j whose spread offsets match the target bits of
// index i.
func outcomeOf(i int, offsets []int) int {
	j := 0
	for t := 0; 1<<t < len(offsets); t++ {
		if i&offsets[1<<t] != 0 {
			j |= 1 << t
		}
	}
	return j
}

// sample draws an index from the (possibly unnormalized) distribution probs.
func sample(probs []float64, r *rand.Rand) int {
	var total float64
	for _, p := range probs {
		total += p
	}
	x := r.Float64() * total
	last := 0
	for i, p := range probs {
		if p == 0 {
			continue
		}
		last = i
		if x < p {
			return i
		}
		x -= p
	}
	return last
}
