// Package gates builds the matrices of continuous-variable gates over a
// truncated Fock basis, so that they can be applied to the qubits encoding a
// qumode.
//
// Every gate is the exponential of an anti-Hermitian generator built from
// the truncated ladder operators. Truncating the generator rather than the
// exact operator keeps the resulting matrices exactly unitary.
package gates

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// MaxQubitsPerMode bounds the truncation of single-mode gates.
const MaxQubitsPerMode = 6

// MaxTwoModeQubitsPerMode bounds the truncation of two-mode gates, which act
// on 4^qubitsPerMode dimensional spaces.
const MaxTwoModeQubitsPerMode = 4

var (
	// ErrQubitsPerMode is returned for a truncation that cannot be represented.
	ErrQubitsPerMode = errors.New("qubits per mode out of range")
	// ErrTwoModeTooWide is returned by two-mode gates on truncations wider
	// than MaxTwoModeQubitsPerMode.
	ErrTwoModeTooWide = errors.New("qubits per mode too wide for a two-mode gate")
)

// Gates holds the ladder operators for one truncation and builds gate
// matrices from them. It is safe for concurrent use.
type Gates struct {
	qubitsPerMode int
	cutoff        int

	a  *mat.CDense // annihilation
	ad *mat.CDense // creation
	n  *mat.CDense // number

	pairOnce sync.Once
	pair     *pairOps
}

// pairOps are the two-mode ladder operators on the cutoff² dimensional space.
// The first mode is the fast-varying (low) part of the combined index.
type pairOps struct {
	a1, a1d *mat.CDense
	a2, a2d *mat.CDense
}

// New returns the gate builder for qumodes encoded in qubitsPerMode qubits,
// i.e. with a Fock cutoff of 2^qubitsPerMode. Two-mode operators are only
// built on the first two-mode gate.
func New(qubitsPerMode int) (*Gates, error) {
	if qubitsPerMode < 1 || qubitsPerMode > MaxQubitsPerMode {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrQubitsPerMode, qubitsPerMode, MaxQubitsPerMode)
	}
	d := 1 << qubitsPerMode
	g := &Gates{
		qubitsPerMode: qubitsPerMode,
		cutoff:        d,
		a:             annihilation(d),
	}
	g.ad = dagger(g.a)
	g.n = mul(g.ad, g.a)
	return g, nil
}

func (g *Gates) pairOps() (*pairOps, error) {
	if g.qubitsPerMode > MaxTwoModeQubitsPerMode {
		return nil, fmt.Errorf("%w: %d > %d", ErrTwoModeTooWide, g.qubitsPerMode, MaxTwoModeQubitsPerMode)
	}
	g.pairOnce.Do(func() {
		eye := identity(g.cutoff)
		g.pair = &pairOps{
			a1:  kron(eye, g.a),
			a1d: kron(eye, g.ad),
			a2:  kron(g.a, eye),
			a2d: kron(g.ad, eye),
		}
	})
	return g.pair, nil
}

// Cutoff returns the number of representable Fock states per qumode.
func (g *Gates) Cutoff() int {
	return g.cutoff
}

// QubitsPerMode returns the number of qubits encoding each qumode.
func (g *Gates) QubitsPerMode() int {
	return g.qubitsPerMode
}

// Annihilation returns a copy of the truncated annihilation operator.
func (g *Gates) Annihilation() *mat.CDense {
	return clone(g.a)
}

// Creation returns a copy of the truncated creation operator.
func (g *Gates) Creation() *mat.CDense {
	return clone(g.ad)
}

// Number returns a copy of the truncated number operator.
func (g *Gates) Number() *mat.CDense {
	return clone(g.n)
}

// D returns the displacement exp(alpha a† - alpha* a).
func (g *Gates) D(alpha complex128) *mat.CDense {
	gen := combine(
		term{alpha, g.ad},
		term{-cmplx.Conj(alpha), g.a},
	)
	return expm(gen)
}

// S returns the squeezing exp((z* a² - z a†²)/2).
func (g *Gates) S(z complex128) *mat.CDense {
	gen := combine(
		term{cmplx.Conj(z) / 2, mul(g.a, g.a)},
		term{-z / 2, mul(g.ad, g.ad)},
	)
	return expm(gen)
}

// R returns the phase space rotation exp(i phi N).
func (g *Gates) R(phi float64) *mat.CDense {
	return expm(combine(term{complex(0, phi), g.n}))
}

// K returns the Kerr interaction exp(i kappa N²).
func (g *Gates) K(kappa float64) *mat.CDense {
	return expm(combine(term{complex(0, kappa), mul(g.n, g.n)}))
}

// BS returns the beamsplitter exp(phi (a1 a2† - a1† a2)), which for phi=pi/2
// fully exchanges the two modes.
func (g *Gates) BS(phi float64) (*mat.CDense, error) {
	p, err := g.pairOps()
	if err != nil {
		return nil, err
	}
	gen := combine(
		term{complex(phi, 0), mul(p.a1, p.a2d)},
		term{complex(-phi, 0), mul(p.a1d, p.a2)},
	)
	return expm(gen), nil
}

// S2 returns the two-mode squeezing exp(z* a1 a2 - z a1† a2†).
func (g *Gates) S2(z complex128) (*mat.CDense, error) {
	p, err := g.pairOps()
	if err != nil {
		return nil, err
	}
	gen := combine(
		term{cmplx.Conj(z), mul(p.a1, p.a2)},
		term{-z, mul(p.a1d, p.a2d)},
	)
	return expm(gen), nil
}

func annihilation(d int) *mat.CDense {
	a := mat.NewCDense(d, d, nil)
	for n := 1; n < d; n++ {
		a.Set(n-1, n, complex(math.Sqrt(float64(n)), 0))
	}
	return a
}
