// Package program describes CV circuits declaratively, so that they can be
// kept in YAML files and run by the command line tools.
package program

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/alan-christopher/cvcircuit/cv"
	"github.com/alan-christopher/cvcircuit/cv/circuit"
	"github.com/alan-christopher/cvcircuit/cv/gates"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// A Program is a sequence of CV gates on a fixed number of qumodes.
type Program struct {
	QubitsPerMode int    `yaml:"qubits_per_mode"`
	Qumodes       int    `yaml:"qumodes"`
	Init          []int  `yaml:"init,omitempty"`
	Gates         []Gate `yaml:"gates"`
	// Measure adds a measurement of every qubit into a classical register
	// of the same size.
	Measure bool  `yaml:"measure,omitempty"`
	Shots   int   `yaml:"shots,omitempty"`
	Seed    int64 `yaml:"seed,omitempty"`
}

// A Gate is one CV operation. Param holds the real part of complex
// parameters (D, S, S2) or the angle/strength of real ones (R, K, BS); Imag
// holds the imaginary part of complex parameters.
type Gate struct {
	Op    string  `yaml:"op"`
	Modes []int   `yaml:"modes"`
	Param float64 `yaml:"param"`
	Imag  float64 `yaml:"imag,omitempty"`
}

func (g Gate) complexParam() complex128 {
	return complex(g.Param, g.Imag)
}

var gateArity = map[string]int{
	"D": 1, "S": 1, "R": 1, "K": 1,
	"BS": 2, "S2": 2,
}

var realOnly = map[string]bool{"R": true, "K": true, "BS": true}

// Default returns the reference experiment: vacuum on two qumodes of three
// qubits each, a unit displacement of the first and a balanced-to-full
// beamsplitter moving it onto the second.
func Default() *Program {
	return &Program{
		QubitsPerMode: 3,
		Qumodes:       2,
		Init:          []int{0, 0},
		Gates: []Gate{
			{Op: "D", Modes: []int{0}, Param: 1},
			{Op: "BS", Modes: []int{0, 1}, Param: math.Pi / 2},
		},
	}
}

// Load decodes and validates a YAML program. Unknown fields are rejected.
func Load(r io.Reader) (*Program, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	p := new(Program)
	if err := dec.Decode(p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty program")
		}
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	for i := range p.Gates {
		p.Gates[i].Op = strings.ToUpper(p.Gates[i].Op)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Marshal renders p as YAML.
func (p *Program) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// Validate checks p for structural errors. Range errors on Fock states are
// left to cv.Initialize.
func (p *Program) Validate() error {
	if p.QubitsPerMode < 0 || p.QubitsPerMode > gates.MaxQubitsPerMode {
		return fmt.Errorf("%w: qubits_per_mode %d not in [0, %d]", gates.ErrQubitsPerMode, p.QubitsPerMode, gates.MaxQubitsPerMode)
	}
	if p.Qumodes < 1 {
		return fmt.Errorf("qumodes must be positive, got %d", p.Qumodes)
	}
	if p.Shots < 0 {
		return fmt.Errorf("shots must not be negative, got %d", p.Shots)
	}
	if len(p.Init) > p.Qumodes {
		return fmt.Errorf("init has %d entries for %d qumodes", len(p.Init), p.Qumodes)
	}
	for i, g := range p.Gates {
		arity, ok := gateArity[g.Op]
		if !ok {
			return fmt.Errorf("gate %d: unknown op %q", i, g.Op)
		}
		if len(g.Modes) != arity {
			return fmt.Errorf("gate %d: %s takes %d qumodes, got %d", i, g.Op, arity, len(g.Modes))
		}
		if realOnly[g.Op] && g.Imag != 0 {
			return fmt.Errorf("gate %d: %s takes a real parameter", i, g.Op)
		}
		if arity == 2 && p.QubitsPerMode > gates.MaxTwoModeQubitsPerMode {
			return fmt.Errorf("gate %d: %s: %w: %d > %d",
				i, g.Op, gates.ErrTwoModeTooWide, p.QubitsPerMode, gates.MaxTwoModeQubitsPerMode)
		}
	}
	return nil
}

// A Built program: the qubit circuit, its CV view and the registers.
type Built struct {
	Circuit *circuit.Circuit
	CV      *cv.Circuit
	Qubits  *circuit.QuantumRegister
	Clbits  *circuit.ClassicalRegister
}

// Build lays p out on a fresh circuit. logger may be nil.
func (p *Program) Build(logger *zerolog.Logger) (*Built, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.QubitsPerMode
	if n == 0 {
		n = cv.DefaultQubitsPerMode
	}
	qr := circuit.NewQuantumRegister("q", n*p.Qumodes)
	regs := []circuit.Register{qr}
	var cr *circuit.ClassicalRegister
	if p.Measure {
		cr = circuit.NewClassicalRegister("c", n*p.Qumodes)
		regs = append(regs, cr)
	}
	c, err := circuit.New(regs...)
	if err != nil {
		return nil, err
	}
	cvc, err := cv.New(c, qr, cv.Opts{QubitsPerMode: n, Logger: logger})
	if err != nil {
		return nil, err
	}
	if len(p.Init) > 0 {
		if err := cvc.Initialize(p.Init); err != nil {
			return nil, err
		}
	}
	for i, g := range p.Gates {
		if err := apply(cvc, g); err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
	}
	if p.Measure {
		if err := c.MeasureRegister(qr, cr); err != nil {
			return nil, err
		}
	}
	return &Built{Circuit: c, CV: cvc, Qubits: qr, Clbits: cr}, nil
}

func apply(c *cv.Circuit, g Gate) error {
	switch g.Op {
	case "D":
		return c.DGate(g.complexParam(), g.Modes[0])
	case "S":
		return c.SGate(g.complexParam(), g.Modes[0])
	case "R":
		return c.RGate(g.Param, g.Modes[0])
	case "K":
		return c.KGate(g.Param, g.Modes[0])
	case "BS":
		return c.BSGate(g.Param, [2]int{g.Modes[0], g.Modes[1]})
	case "S2":
		return c.S2Gate(g.complexParam(), [2]int{g.Modes[0], g.Modes[1]})
	}
	return fmt.Errorf("unknown op %q", g.Op)
}
