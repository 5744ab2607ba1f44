// Package cv maps continuous-variable (CV) gates onto qubit circuits.
//
// Each qumode is encoded in a fixed number n of consecutive qubits of a
// quantum register, holding a Fock state truncated at cutoff 2^n. Qumode i
// owns qubits [i*n, (i+1)*n), with the first of them the least significant
// bit of the photon number. Gates are built by the gates package and applied
// through the circuit's generic unitary primitive.
package cv

import (
	"errors"
	"fmt"

	"github.com/alan-christopher/cvcircuit/cv/circuit"
	"github.com/alan-christopher/cvcircuit/cv/gates"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// DefaultQubitsPerMode is the encoding width used when Opts leaves it unset.
var DefaultQubitsPerMode = 2

var (
	ErrQumodeRange = errors.New("qumode out of range")
	ErrFockCutoff  = errors.New("fock state must be lower than the cutoff")
	ErrSameQumode  = errors.New("two-mode gate needs two distinct qumodes")
)

// Opts configures a Circuit. Zero values select defaults.
type Opts struct {
	// QubitsPerMode is the number of qubits encoding each qumode. Defaults
	// to DefaultQubitsPerMode.
	QubitsPerMode int

	// Logger receives a debug entry per applied gate. Defaults to a no-op
	// logger.
	Logger *zerolog.Logger
}

// A Circuit applies CV operations to the qumodes encoded in one quantum
// register of an underlying qubit circuit.
type Circuit struct {
	circuit       *circuit.Circuit
	qr            *circuit.QuantumRegister
	qubitsPerMode int
	numQumodes    int
	gates         *gates.Gates
	log           zerolog.Logger
}

// New returns a Circuit encoding qr.Size()/QubitsPerMode qumodes in qr, which
// must be a register of c.
func New(c *circuit.Circuit, qr *circuit.QuantumRegister, opts Opts) (*Circuit, error) {
	if c == nil {
		return nil, errors.New("must provide circuit")
	}
	if qr == nil {
		return nil, errors.New("must provide quantum register")
	}
	if !c.HasRegister(qr) {
		return nil, fmt.Errorf("register %s is not part of the circuit", qr.Name())
	}
	n := opts.QubitsPerMode
	if n == 0 {
		n = DefaultQubitsPerMode
	}
	if n < 0 {
		return nil, fmt.Errorf("qubits per mode must be positive, got %d", n)
	}
	if qr.Size() == 0 || qr.Size()%n != 0 {
		return nil, fmt.Errorf("register of %d qubits cannot hold qumodes of %d qubits", qr.Size(), n)
	}
	g, err := gates.New(n)
	if err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "cv").Logger()
	}
	return &Circuit{
		circuit:       c,
		qr:            qr,
		qubitsPerMode: n,
		numQumodes:    qr.Size() / n,
		gates:         g,
		log:           log,
	}, nil
}

// QubitsPerMode returns the number of qubits encoding each qumode.
func (cv *Circuit) QubitsPerMode() int { return cv.qubitsPerMode }

// NumQumodes returns the number of qumodes in the register.
func (cv *Circuit) NumQumodes() int { return cv.numQumodes }

// Cutoff returns the number of Fock states representable per qumode.
func (cv *Circuit) Cutoff() int { return cv.gates.Cutoff() }

// Gates returns the gate builder shared by every operation on cv.
func (cv *Circuit) Gates() *gates.Gates { return cv.gates }

// Underlying returns the qubit circuit cv appends to.
func (cv *Circuit) Underlying() *circuit.Circuit { return cv.circuit }

// Register returns the quantum register holding the qumodes.
func (cv *Circuit) Register() *circuit.QuantumRegister { return cv.qr }

// QumodeQubits returns the qubits encoding qumode, least significant first.
func (cv *Circuit) QumodeQubits(qumode int) ([]circuit.Qubit, error) {
	if qumode < 0 || qumode >= cv.numQumodes {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrQumodeRange, qumode, cv.numQumodes)
	}
	start := cv.qubitsPerMode * qumode
	return cv.qr.Slice(start, start+cv.qubitsPerMode)
}

// Initialize prepares qumode i in the Fock state fockStates[i]. Qumodes
// beyond len(fockStates) are left alone. Nothing is appended if any entry is
// invalid.
func (cv *Circuit) Initialize(fockStates []int) error {
	if len(fockStates) > cv.numQumodes {
		return fmt.Errorf("%w: %d fock states for %d qumodes", ErrQumodeRange, len(fockStates), cv.numQumodes)
	}
	cutoff := cv.Cutoff()
	for qumode, n := range fockStates {
		if n < 0 || n >= cutoff {
			return fmt.Errorf("%w: qumode %d: n=%d, cutoff %d", ErrFockCutoff, qumode, n, cutoff)
		}
	}
	for qumode, n := range fockStates {
		qubits, err := cv.QumodeQubits(qumode)
		if err != nil {
			return err
		}
		vector := make([]complex128, cutoff)
		vector[n] = 1
		if err := cv.circuit.Initialize(vector, qubits); err != nil {
			return fmt.Errorf("initializing qumode %d: %w", qumode, err)
		}
		cv.log.Debug().Int("qumode", qumode).Int("fock", n).Msg("initialized qumode")
	}
	return nil
}

// DGate displaces qumode by alpha.
func (cv *Circuit) DGate(alpha complex128, qumode int) error {
	return cv.applySingle("D", qumode, func() *mat.CDense { return cv.gates.D(alpha) })
}

// SGate squeezes qumode by z.
func (cv *Circuit) SGate(z complex128, qumode int) error {
	return cv.applySingle("S", qumode, func() *mat.CDense { return cv.gates.S(z) })
}

// RGate rotates qumode in phase space by phi.
func (cv *Circuit) RGate(phi float64, qumode int) error {
	return cv.applySingle("R", qumode, func() *mat.CDense { return cv.gates.R(phi) })
}

// KGate applies a Kerr interaction of strength kappa to qumode.
func (cv *Circuit) KGate(kappa float64, qumode int) error {
	return cv.applySingle("K", qumode, func() *mat.CDense { return cv.gates.K(kappa) })
}

// BSGate applies a beamsplitter with angle phi between qumodes[0] and
// qumodes[1].
func (cv *Circuit) BSGate(phi float64, qumodes [2]int) error {
	return cv.applyPair("BS", qumodes, func() (*mat.CDense, error) { return cv.gates.BS(phi) })
}

// S2Gate applies two-mode squeezing z to qumodes[0] and qumodes[1].
func (cv *Circuit) S2Gate(z complex128, qumodes [2]int) error {
	return cv.applyPair("S2", qumodes, func() (*mat.CDense, error) { return cv.gates.S2(z) })
}

// The matrix is built lazily so that a bad qumode index fails before any
// exponential is computed.
func (cv *Circuit) applySingle(name string, qumode int, build func() *mat.CDense) error {
	qubits, err := cv.QumodeQubits(qumode)
	if err != nil {
		return fmt.Errorf("%s gate: %w", name, err)
	}
	if err := cv.circuit.Unitary(build(), qubits, name); err != nil {
		return fmt.Errorf("%s gate on qumode %d: %w", name, qumode, err)
	}
	cv.log.Debug().Str("gate", name).Int("qumode", qumode).Ints("qubits", cv.flatIndices(qubits)).Msg("applied gate")
	return nil
}

func (cv *Circuit) applyPair(name string, qumodes [2]int, build func() (*mat.CDense, error)) error {
	if qumodes[0] == qumodes[1] {
		return fmt.Errorf("%s gate: %w: %d", name, ErrSameQumode, qumodes[0])
	}
	first, err := cv.QumodeQubits(qumodes[0])
	if err != nil {
		return fmt.Errorf("%s gate: %w", name, err)
	}
	second, err := cv.QumodeQubits(qumodes[1])
	if err != nil {
		return fmt.Errorf("%s gate: %w", name, err)
	}
	u, err := build()
	if err != nil {
		return fmt.Errorf("%s gate: %w", name, err)
	}
	qubits := append(first, second...)
	if err := cv.circuit.Unitary(u, qubits, name); err != nil {
		return fmt.Errorf("%s gate on qumodes %v: %w", name, qumodes, err)
	}
	cv.log.Debug().Str("gate", name).Ints("qumodes", qumodes[:]).Ints("qubits", cv.flatIndices(qubits)).Msg("applied gate")
	return nil
}

// flatIndices maps qubits, already accepted by the circuit, to their
// positions in it.
func (cv *Circuit) flatIndices(qubits []circuit.Qubit) []int {
	idx := make([]int, 0, len(qubits))
	for _, q := range qubits {
		i, err := cv.circuit.QubitIndex(q)
		if err != nil {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}
