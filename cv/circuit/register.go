package circuit

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a bit or slice index falls outside its
// register.
var ErrOutOfRange = errors.New("index out of register range")

// A QuantumRegister is a named, ordered group of qubits.
type QuantumRegister struct {
	name string
	size int
}

// NewQuantumRegister returns a register of size qubits.
func NewQuantumRegister(name string, size int) *QuantumRegister {
	return &QuantumRegister{name: name, size: size}
}

// Name returns the register name.
func (r *QuantumRegister) Name() string { return r.name }

// Size returns the number of qubits in the register.
func (r *QuantumRegister) Size() int { return r.size }

// Qubit returns the i-th qubit of r.
func (r *QuantumRegister) Qubit(i int) (Qubit, error) {
	if i < 0 || i >= r.size {
		return Qubit{}, fmt.Errorf("%w: qubit %d of %s[%d]", ErrOutOfRange, i, r.name, r.size)
	}
	return Qubit{Register: r, Index: i}, nil
}

// Slice returns qubits [lo, hi) of r.
func (r *QuantumRegister) Slice(lo, hi int) ([]Qubit, error) {
	if lo < 0 || hi > r.size || hi < lo {
		return nil, fmt.Errorf("%w: slice [%d:%d] of %s[%d]", ErrOutOfRange, lo, hi, r.name, r.size)
	}
	qs := make([]Qubit, 0, hi-lo)
	for i := lo; i < hi; i++ {
		qs = append(qs, Qubit{Register: r, Index: i})
	}
	return qs, nil
}

// Qubits returns every qubit of r in order.
func (r *QuantumRegister) Qubits() []Qubit {
	qs, _ := r.Slice(0, r.size)
	return qs
}

// A Qubit identifies one qubit of a register.
type Qubit struct {
	Register *QuantumRegister
	Index    int
}

func (q Qubit) String() string {
	if q.Register == nil {
		return fmt.Sprintf("?[%d]", q.Index)
	}
	return fmt.Sprintf("%s[%d]", q.Register.name, q.Index)
}

// A ClassicalRegister is a named, ordered group of classical bits receiving
// measurement outcomes.
type ClassicalRegister struct {
	name string
	size int
}

// NewClassicalRegister returns a register of size bits.
func NewClassicalRegister(name string, size int) *ClassicalRegister {
	return &ClassicalRegister{name: name, size: size}
}

// Name returns the register name.
func (r *ClassicalRegister) Name() string { return r.name }

// Size returns the number of bits in the register.
func (r *ClassicalRegister) Size() int { return r.size }

// Clbit returns the i-th bit of r.
func (r *ClassicalRegister) Clbit(i int) (Clbit, error) {
	if i < 0 || i >= r.size {
		return Clbit{}, fmt.Errorf("%w: clbit %d of %s[%d]", ErrOutOfRange, i, r.name, r.size)
	}
	return Clbit{Register: r, Index: i}, nil
}

// A Clbit identifies one bit of a classical register.
type Clbit struct {
	Register *ClassicalRegister
	Index    int
}

func (c Clbit) String() string {
	if c.Register == nil {
		return fmt.Sprintf("?[%d]", c.Index)
	}
	return fmt.Sprintf("%s[%d]", c.Register.name, c.Index)
}
