// Package sim executes circuits on an exact statevector simulator.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/alan-christopher/cvcircuit/cv/bitmap"
	"github.com/alan-christopher/cvcircuit/cv/circuit"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	DefaultShots       = 1024
	DefaultSeed  int64 = 1
	// MaxQubits bounds the statevector at 2^MaxQubits amplitudes.
	MaxQubits = 24
)

var (
	ErrTooManyQubits     = errors.New("too many qubits to simulate")
	ErrMidCircuitMeasure = errors.New("operation on a measured qubit")
)

// Opts configures a Simulator. Zero values select defaults.
type Opts struct {
	// Shots is the number of samples drawn for circuits with measurements.
	// Defaults to DefaultShots.
	Shots int

	// Rand drives measurement sampling and the collapse performed when
	// initializing qubits that are not in the zero state. Defaults to a
	// source seeded with DefaultSeed.
	Rand *rand.Rand

	// Logger receives per-instruction debug logs. Defaults to a no-op
	// logger.
	Logger *zerolog.Logger
}

// A Simulator runs circuits. It is safe for concurrent use, although
// executions sharing a simulator are serialized.
type Simulator struct {
	mu    sync.Mutex
	shots int
	rand  *rand.Rand
	log   zerolog.Logger
}

// New returns a simulator configured by opts.
func New(opts Opts) *Simulator {
	s := &Simulator{
		shots: opts.Shots,
		rand:  opts.Rand,
		log:   zerolog.Nop(),
	}
	if s.shots <= 0 {
		s.shots = DefaultShots
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(DefaultSeed))
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "sim").Logger()
	}
	return s
}

// A Result packages together the output of one circuit execution.
type Result struct {
	JobID     string
	NumQubits int
	Shots     int

	// Statevector is the final state before any measurement. Index bit q
	// holds the value of flat qubit q.
	Statevector []complex128

	// Counts maps classical register bitstrings, highest bit first, to the
	// number of shots producing them. Empty when nothing is measured.
	Counts map[string]int
}

// Probabilities returns the computational basis probabilities of the final
// state.
func (r *Result) Probabilities() []float64 {
	p := make([]float64, len(r.Statevector))
	for i, a := range r.Statevector {
		p[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return p
}

type measurement struct {
	qubit, clbit int
}

// Execute runs c from the all-zero state.
func (s *Simulator) Execute(ctx context.Context, c *circuit.Circuit) (*Result, error) {
	n := c.NumQubits()
	if n > MaxQubits {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyQubits, n, MaxQubits)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &Result{
		JobID:     uuid.NewString(),
		NumQubits: n,
		Counts:    make(map[string]int),
	}
	log := s.log.With().Str("job", res.JobID).Logger()
	log.Debug().Int("qubits", n).Int("instructions", c.Len()).Msg("executing circuit")

	state := make([]complex128, 1<<n)
	state[0] = 1
	var measurements []measurement
	measured := make(map[int]bool)
	for i, in := range c.Instructions() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("executing instruction %d: %w", i, err)
		}
		if in.Kind != circuit.KindMeasure {
			for _, q := range in.Qubits {
				if measured[q] {
					return nil, fmt.Errorf("%w: %s on qubit %d at instruction %d", ErrMidCircuitMeasure, in.Label, q, i)
				}
			}
		}
		switch in.Kind {
		case circuit.KindUnitary:
			applyUnitary(state, in.Matrix, in.Qubits)
		case circuit.KindInitialize:
			resetTargets(state, in.Qubits, s.rand)
			prepareTargets(state, in.Vector, in.Qubits)
		case circuit.KindMeasure:
			measured[in.Qubits[0]] = true
			measurements = append(measurements, measurement{in.Qubits[0], in.Clbits[0]})
		default:
			return nil, fmt.Errorf("unsupported instruction kind %v", in.Kind)
		}
		log.Debug().Int("index", i).Str("op", in.Label).Ints("qubits", in.Qubits).Msg("applied instruction")
	}
	res.Statevector = state

	if len(measurements) > 0 {
		res.Shots = s.shots
		s.sampleCounts(res, measurements, c.NumClbits())
	}
	log.Debug().Int("distinct_outcomes", len(res.Counts)).Msg("circuit executed")
	return res, nil
}

func (s *Simulator) sampleCounts(res *Result, ms []measurement, nClbits int) {
	cum := make([]float64, len(res.Statevector))
	var total float64
	for i, p := range res.Probabilities() {
		total += p
		cum[i] = total
	}
	for shot := 0; shot < s.shots; shot++ {
		x := s.rand.Float64() * total
		idx := sort.SearchFloat64s(cum, x)
		if idx >= len(cum) {
			idx = len(cum) - 1
		}
		// SearchFloat64s returns the first cum >= x; skip zero-probability
		// states sharing that cumulative value.
		for idx < len(cum)-1 && cum[idx] <= x {
			idx++
		}
		outcome := bitmap.NewDense(nil, nClbits)
		for _, m := range ms {
			outcome.Set(m.clbit, idx&(1<<m.qubit) != 0)
		}
		res.Counts[outcome.String()]++
	}
}
