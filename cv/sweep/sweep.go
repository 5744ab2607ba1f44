// Package sweep runs the displace-then-split experiment for each entry in the
// cartesian product of a collection of tuning parameters, and collects
// statistics showing how the Fock truncation affects the outcome.
package sweep

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/alan-christopher/cvcircuit/cv/fock"
	"github.com/alan-christopher/cvcircuit/cv/program"
	"github.com/alan-christopher/cvcircuit/cv/sim"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of experiments run concurrently when Run is
// given a non-positive worker count.
var DefaultWorkers = 4

// A Grid lists the values to sweep along each dimension.
type Grid struct {
	QubitsPerMode []int
	Alphas        []float64
	Phis          []float64
}

// An Experiment packages together the parameters and result of a single
// point of the grid.
type Experiment struct {
	// Fields corresponding to experiment parameters
	QubitsPerMode int
	Alpha         float64
	Phi           float64

	// Fields corresponding to experiment results
	Cutoff          int
	MeanPhotons0    float64
	MeanPhotons1    float64
	ExpectedPhotons float64
	TopLevelProb    float64
	Succeeded       bool
	Err             error
}

// Columns lists the exported Experiment fields reported by the bench tool,
// in order.
var Columns = []string{"QubitsPerMode", "Alpha", "Phi", "Cutoff", "MeanPhotons0",
	"MeanPhotons1", "ExpectedPhotons", "TopLevelProb", "Succeeded"}

// Points returns the experiments of g in cartesian order, with the first
// dimension varying slowest, and only their parameters filled in.
func (g Grid) Points() []*Experiment {
	var args [][]interface{}
	args = append(args, ints(g.QubitsPerMode), floats(g.Alphas), floats(g.Phis))
	var r []*Experiment
	applyCartesian(func(x []interface{}) {
		r = append(r, &Experiment{
			QubitsPerMode: x[0].(int),
			Alpha:         x[1].(float64),
			Phi:           x[2].(float64),
		})
	}, args)
	return r
}

// Run evaluates every point of g using up to workers goroutines. Failures of
// individual experiments are recorded in them; Run itself only fails when ctx
// is done.
func Run(ctx context.Context, g Grid, workers int, logger *zerolog.Logger) ([]*Experiment, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "sweep").Logger()
	}
	exps := g.Points()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, exp := range exps {
		i, exp := i, exp
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			exp.Err = evaluate(egCtx, exp, int64(i)+1)
			exp.Succeeded = exp.Err == nil
			if exp.Err != nil {
				log.Warn().Err(exp.Err).Int("qubits_per_mode", exp.QubitsPerMode).
					Float64("alpha", exp.Alpha).Float64("phi", exp.Phi).Msg("experiment failed")
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return exps, nil
}

func evaluate(ctx context.Context, exp *Experiment, seed int64) error {
	p := program.Default()
	p.QubitsPerMode = exp.QubitsPerMode
	p.Gates[0].Param = exp.Alpha
	p.Gates[1].Param = exp.Phi
	b, err := p.Build(nil)
	if err != nil {
		return err
	}
	exp.Cutoff = b.CV.Cutoff()
	exp.ExpectedPhotons = exp.Alpha * exp.Alpha

	s := sim.New(sim.Opts{Rand: rand.New(rand.NewSource(seed))})
	res, err := s.Execute(ctx, b.Circuit)
	if err != nil {
		return fmt.Errorf("simulating: %w", err)
	}
	marg, err := fock.Marginals(res.Statevector, b.CV.QubitsPerMode(), b.CV.NumQumodes())
	if err != nil {
		return err
	}
	exp.MeanPhotons0 = fock.MeanPhotons(marg[0])
	exp.MeanPhotons1 = fock.MeanPhotons(marg[1])
	top := exp.Cutoff - 1
	exp.TopLevelProb = math.Max(marg[0][top], marg[1][top])
	return nil
}

func ints(v []int) []interface{} {
	var r []interface{}
	for _, x := range v {
		r = append(r, x)
	}
	return r
}

func floats(v []float64) []interface{} {
	var r []interface{}
	for _, x := range v {
		r = append(r, x)
	}
	return r
}

// applyCartesian calls f once per element of the cartesian product of args.
// An empty dimension yields no calls.
func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 0 {
			return
		}
	}
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
