// cvbench runs the displace-then-split experiment for each entry in the
// cartesian product of a collection of tuning parameters, e.g. qubits per
// qumode and displacement amplitude, and outputs a CSV of relevant statistics
// for each combination, e.g. mean photon numbers and truncation leakage.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/template"

	"github.com/alan-christopher/cvcircuit/cv/sweep"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

var (
	qubitsPerMode = flag.IntSlice("qubitsPerMode", []int{1, 2, 3},
		"The qubits used to encode each qumode. Widths above 4 are reported as failed.")
	alpha   = flag.Float64Slice("alpha", []float64{1}, "The displacement applied to the first qumode.")
	phi     = flag.Float64Slice("phi", []float64{math.Pi / 2}, "The beamsplitter angle.")
	workers = flag.Int("workers", sweep.DefaultWorkers, "The number of experiments to run concurrently.")
)

func main() {
	flag.Parse()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	exps, err := sweep.Run(ctx, sweep.Grid{
		QubitsPerMode: *qubitsPerMode,
		Alphas:        *alpha,
		Phis:          *phi,
	}, *workers, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("sweep aborted")
	}

	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	for _, exp := range exps {
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			log.Fatal().Err(err).Msg("BUG: could not fill in line template")
		}
	}
}

func header() string {
	return strings.Join(sweep.Columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range sweep.Columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}
