package gates

import (
	"gonum.org/v1/gonum/mat"
)

// A term is one scaled operator in a generator.
type term struct {
	c  complex128
	op *mat.CDense
}

// combine returns sum(c_i op_i). All operators must share dimensions.
func combine(terms ...term) *mat.CDense {
	r, c := terms[0].op.Dims()
	out := mat.NewCDense(r, c, nil)
	for _, t := range terms {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := t.op.At(i, j); v != 0 {
					out.Set(i, j, out.At(i, j)+t.c*v)
				}
			}
		}
	}
	return out
}

// expm computes the exponential of a complex matrix.
//
// gonum only provides a real matrix exponential, so the complex matrix
// A + iB is mapped onto the real block matrix [[A, -B], [B, A]]. The map is
// an algebra homomorphism, so exponentiating the block matrix and reading
// back its left column of blocks yields exp(A + iB).
func expm(g *mat.CDense) *mat.CDense {
	n, _ := g.Dims()
	re := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := g.At(i, j)
			re.Set(i, j, real(v))
			re.Set(i+n, j+n, real(v))
			re.Set(i, j+n, -imag(v))
			re.Set(i+n, j, imag(v))
		}
	}
	var e mat.Dense
	e.Exp(re)
	out := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, complex(e.At(i, j), e.At(i+n, j)))
		}
	}
	return out
}

func mul(a, b *mat.CDense) *mat.CDense {
	r, k := a.Dims()
	_, c := b.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for l := 0; l < k; l++ {
			av := a.At(i, l)
			if av == 0 {
				continue
			}
			for j := 0; j < c; j++ {
				out.Set(i, j, out.At(i, j)+av*b.At(l, j))
			}
		}
	}
	return out
}

// kron returns the Kronecker product a ⊗ b, where b varies fastest in the
// combined index.
func kron(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	out := mat.NewCDense(ar*br, ac*bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			av := a.At(i, j)
			if av == 0 {
				continue
			}
			for k := 0; k < br; k++ {
				for l := 0; l < bc; l++ {
					out.Set(i*br+k, j*bc+l, av*b.At(k, l))
				}
			}
		}
	}
	return out
}

func dagger(a *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(c, r, nil)
	out.Copy(a.H())
	return out
}

func identity(d int) *mat.CDense {
	out := mat.NewCDense(d, d, nil)
	for i := 0; i < d; i++ {
		out.Set(i, i, 1)
	}
	return out
}

func clone(a *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(r, c, nil)
	out.Copy(a)
	return out
}
