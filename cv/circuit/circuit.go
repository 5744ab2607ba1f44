// Package circuit provides a minimal discrete-variable quantum circuit model:
// registers of qubits and classical bits, and an ordered list of
// instructions (arbitrary unitaries, state initializations and
// measurements) to be run by a simulator.
//
// Qubit lists are little-endian: the first qubit passed to Unitary or
// Initialize is the least significant bit of the matrix or vector index.
package circuit

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the absolute tolerance used when checking that
// unitaries are unitary and state vectors are normalized.
const DefaultTolerance = 1e-8

var (
	ErrDimension       = errors.New("dimension does not match qubit count")
	ErrNotUnitary      = errors.New("matrix is not unitary")
	ErrNotNormalized   = errors.New("state vector is not normalized")
	ErrDuplicateQubit  = errors.New("duplicate qubit")
	ErrUnknownRegister = errors.New("register is not part of this circuit")
)

// Kind distinguishes the instruction types a circuit can hold.
type Kind int

const (
	KindUnitary Kind = iota
	KindInitialize
	KindMeasure
)

func (k Kind) String() string {
	switch k {
	case KindUnitary:
		return "unitary"
	case KindInitialize:
		return "initialize"
	case KindMeasure:
		return "measure"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// An Instruction is one step of a circuit. Qubits and Clbits hold flat
// indices into the circuit's qubit and classical bit layout.
type Instruction struct {
	Kind   Kind
	Label  string
	Qubits []int
	Clbits []int

	// Matrix holds a row-major 2^k x 2^k unitary for KindUnitary.
	Matrix []complex128
	// Vector holds a length 2^k state for KindInitialize.
	Vector []complex128
}

// A Register is either a *QuantumRegister or a *ClassicalRegister.
type Register interface {
	Name() string
	Size() int
}

// A Circuit is an ordered list of instructions over a fixed set of
// registers.
type Circuit struct {
	qregs   []*QuantumRegister
	cregs   []*ClassicalRegister
	qOffset map[*QuantumRegister]int
	cOffset map[*ClassicalRegister]int
	nQubits int
	nClbits int
	tol     float64

	instructions []Instruction
}

// New returns an empty circuit over regs, laid out in the order given.
func New(regs ...Register) (*Circuit, error) {
	c := &Circuit{
		qOffset: make(map[*QuantumRegister]int),
		cOffset: make(map[*ClassicalRegister]int),
		tol:     DefaultTolerance,
	}
	for _, r := range regs {
		switch r := r.(type) {
		case *QuantumRegister:
			if _, ok := c.qOffset[r]; ok {
				return nil, fmt.Errorf("register %s added twice", r.Name())
			}
			c.qOffset[r] = c.nQubits
			c.nQubits += r.Size()
			c.qregs = append(c.qregs, r)
		case *ClassicalRegister:
			if _, ok := c.cOffset[r]; ok {
				return nil, fmt.Errorf("register %s added twice", r.Name())
			}
			c.cOffset[r] = c.nClbits
			c.nClbits += r.Size()
			c.cregs = append(c.cregs, r)
		default:
			return nil, fmt.Errorf("unsupported register type %T", r)
		}
	}
	return c, nil
}

// SetTolerance changes the absolute tolerance used to validate unitaries and
// state vectors. Non-positive values restore DefaultTolerance.
func (c *Circuit) SetTolerance(tol float64) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	c.tol = tol
}

// NumQubits returns the total number of qubits across all registers.
func (c *Circuit) NumQubits() int { return c.nQubits }

// NumClbits returns the total number of classical bits across all registers.
func (c *Circuit) NumClbits() int { return c.nClbits }

// Len returns the number of instructions in c.
func (c *Circuit) Len() int { return len(c.instructions) }

// Instructions returns the instructions of c in order. The returned slice
// must not be modified.
func (c *Circuit) Instructions() []Instruction {
	return c.instructions
}

// HasRegister reports whether r is one of c's quantum registers.
func (c *Circuit) HasRegister(r *QuantumRegister) bool {
	_, ok := c.qOffset[r]
	return ok
}

// QubitIndex returns the flat index of q within c.
func (c *Circuit) QubitIndex(q Qubit) (int, error) {
	off, ok := c.qOffset[q.Register]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownRegister, q)
	}
	if q.Index < 0 || q.Index >= q.Register.Size() {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, q)
	}
	return off + q.Index, nil
}

// ClbitIndex returns the flat index of b within c.
func (c *Circuit) ClbitIndex(b Clbit) (int, error) {
	off, ok := c.cOffset[b.Register]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownRegister, b)
	}
	if b.Index < 0 || b.Index >= b.Register.Size() {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, b)
	}
	return off + b.Index, nil
}

func (c *Circuit) qubitIndices(qubits []Qubit) ([]int, error) {
	idx := make([]int, 0, len(qubits))
	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		i, err := c.QubitIndex(q)
		if err != nil {
			return nil, err
		}
		if seen[i] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateQubit, q)
		}
		seen[i] = true
		idx = append(idx, i)
	}
	return idx, nil
}

// Unitary appends an instruction applying u to qubits. u must be a
// 2^k x 2^k unitary for k = len(qubits).
func (c *Circuit) Unitary(u *mat.CDense, qubits []Qubit, label string) error {
	if u == nil {
		return fmt.Errorf("%w: nil matrix", ErrDimension)
	}
	if len(qubits) == 0 {
		return fmt.Errorf("%w: no qubits", ErrDimension)
	}
	idx, err := c.qubitIndices(qubits)
	if err != nil {
		return err
	}
	dim := 1 << len(qubits)
	r, cols := u.Dims()
	if r != dim || cols != dim {
		return fmt.Errorf("%w: %dx%d matrix on %d qubits", ErrDimension, r, cols, len(qubits))
	}
	data := make([]complex128, 0, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			data = append(data, u.At(i, j))
		}
	}
	if e := unitarityError(data, dim); e > c.tol {
		return fmt.Errorf("%w: max |UU†-I| = %g", ErrNotUnitary, e)
	}
	if label == "" {
		label = "unitary"
	}
	c.instructions = append(c.instructions, Instruction{
		Kind:   KindUnitary,
		Label:  label,
		Qubits: idx,
		Matrix: data,
	})
	return nil
}

// Initialize appends an instruction resetting qubits and preparing them in
// the state vec.
func (c *Circuit) Initialize(vec []complex128, qubits []Qubit) error {
	if len(qubits) == 0 {
		return fmt.Errorf("%w: no qubits", ErrDimension)
	}
	idx, err := c.qubitIndices(qubits)
	if err != nil {
		return err
	}
	if len(vec) != 1<<len(qubits) {
		return fmt.Errorf("%w: vector of length %d on %d qubits", ErrDimension, len(vec), len(qubits))
	}
	var norm float64
	for _, v := range vec {
		norm += real(v)*real(v) + imag(v)*imag(v)
	}
	if math.Abs(norm-1) > c.tol {
		return fmt.Errorf("%w: squared norm %g", ErrNotNormalized, norm)
	}
	c.instructions = append(c.instructions, Instruction{
		Kind:   KindInitialize,
		Label:  "initialize",
		Qubits: idx,
		Vector: append([]complex128(nil), vec...),
	})
	return nil
}

// Measure appends a computational basis measurement of q into b.
func (c *Circuit) Measure(q Qubit, b Clbit) error {
	qi, err := c.QubitIndex(q)
	if err != nil {
		return err
	}
	ci, err := c.ClbitIndex(b)
	if err != nil {
		return err
	}
	c.instructions = append(c.instructions, Instruction{
		Kind:   KindMeasure,
		Label:  "measure",
		Qubits: []int{qi},
		Clbits: []int{ci},
	})
	return nil
}

// MeasureRegister measures qr[i] into cr[i] for every i. The registers must
// have the same size.
func (c *Circuit) MeasureRegister(qr *QuantumRegister, cr *ClassicalRegister) error {
	if qr.Size() != cr.Size() {
		return fmt.Errorf("%w: measuring %d qubits into %d bits", ErrDimension, qr.Size(), cr.Size())
	}
	for i := 0; i < qr.Size(); i++ {
		if err := c.Measure(Qubit{qr, i}, Clbit{cr, i}); err != nil {
			return err
		}
	}
	return nil
}

// String renders c as a QASM-like listing.
func (c *Circuit) String() string {
	var sb strings.Builder
	for _, r := range c.qregs {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", r.Name(), r.Size())
	}
	for _, r := range c.cregs {
		fmt.Fprintf(&sb, "creg %s[%d];\n", r.Name(), r.Size())
	}
	for _, in := range c.instructions {
		switch in.Kind {
		case KindMeasure:
			fmt.Fprintf(&sb, "measure %s -> %s;\n", c.qubitName(in.Qubits[0]), c.clbitName(in.Clbits[0]))
		case KindInitialize:
			fmt.Fprintf(&sb, "initialize(%s) %s;\n", formatVector(in.Vector), c.qubitList(in.Qubits))
		default:
			fmt.Fprintf(&sb, "%s %s;\n", in.Label, c.qubitList(in.Qubits))
		}
	}
	return sb.String()
}

func (c *Circuit) qubitList(idx []int) string {
	names := make([]string, 0, len(idx))
	for _, i := range idx {
		names = append(names, c.qubitName(i))
	}
	return strings.Join(names, ",")
}

func (c *Circuit) qubitName(flat int) string {
	for _, r := range c.qregs {
		off := c.qOffset[r]
		if flat >= off && flat < off+r.Size() {
			return Qubit{r, flat - off}.String()
		}
	}
	return fmt.Sprintf("?[%d]", flat)
}

func (c *Circuit) clbitName(flat int) string {
	for _, r := range c.cregs {
		off := c.cOffset[r]
		if flat >= off && flat < off+r.Size() {
			return Clbit{r, flat - off}.String()
		}
	}
	return fmt.Sprintf("?[%d]", flat)
}

func formatVector(v []complex128) string {
	parts := make([]string, 0, len(v))
	for _, a := range v {
		switch {
		case imag(a) == 0:
			parts = append(parts, strconv.FormatFloat(real(a), 'g', 4, 64))
		default:
			parts = append(parts, strconv.FormatComplex(a, 'g', 4, 128))
		}
	}
	return strings.Join(parts, ",")
}

// unitarityError returns max |(U U†)_ij - δ_ij| for a row-major dim x dim U.
func unitarityError(u []complex128, dim int) float64 {
	var worst float64
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			var s complex128
			for k := 0; k < dim; k++ {
				s += u[i*dim+k] * cmplx.Conj(u[j*dim+k])
			}
			if i == j {
				s--
			}
			worst = math.Max(worst, cmplx.Abs(s))
		}
	}
	return worst
}
