// cvsim builds a CV program, either the displace-then-split demo or one read
// from a YAML file, runs it on the statevector simulator and prints the
// result.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/alan-christopher/cvcircuit/cv/fock"
	"github.com/alan-christopher/cvcircuit/cv/program"
	"github.com/alan-christopher/cvcircuit/cv/resultio"
	"github.com/alan-christopher/cvcircuit/cv/sim"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

var (
	programPath = flag.StringP("program", "p", "", "YAML program to run. Runs the displace-then-split demo when empty.")
	format      = flag.StringP("format", "f", "text", "Output format: text, csv, json or proto.")
	shots       = flag.Int("shots", 0, "Shots to sample for measured programs. Overrides the program's value when positive.")
	seed        = flag.Int64("seed", sim.DefaultSeed, "Seed for measurement sampling. Overrides the program's value when set.")
	logLevel    = flag.String("log-level", "", "Log level. Defaults to $CVSIM_LOG_LEVEL, then info.")
	pretty      = flag.Bool("pretty", false, "Human readable logs.")
	outPath     = flag.StringP("out", "o", "", "Write output to this file instead of stdout.")
)

// amplitudes below this probability are omitted from text and csv output.
const printThreshold = 1e-12

func main() {
	// .env is optional.
	_ = godotenv.Load()
	flag.Parse()
	level := *logLevel
	if level == "" {
		level = os.Getenv("CVSIM_LOG_LEVEL")
	}
	log := newLogger(level, *pretty)
	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("cvsim failed")
	}
}

func newLogger(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func run(log zerolog.Logger) error {
	p := program.Default()
	if *programPath != "" {
		f, err := os.Open(*programPath)
		if err != nil {
			return err
		}
		p, err = program.Load(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("loading %s: %w", *programPath, err)
		}
	}
	b, err := p.Build(&log)
	if err != nil {
		return fmt.Errorf("building program: %w", err)
	}

	n := p.Shots
	if *shots > 0 {
		n = *shots
	}
	sd := sim.DefaultSeed
	if p.Seed != 0 {
		sd = p.Seed
	}
	if flag.CommandLine.Changed("seed") {
		sd = *seed
	}
	s := sim.New(sim.Opts{Shots: n, Rand: rand.New(rand.NewSource(sd)), Logger: &log})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := s.Execute(ctx, b.Circuit)
	if err != nil {
		return err
	}
	log.Info().Str("job", res.JobID).Int("qubits", res.NumQubits).Int("shots", res.Shots).Msg("simulation complete")

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch *format {
	case "text":
		return writeText(w, b, res)
	case "csv":
		return writeCSV(w, b, res)
	case "json", "proto":
		msg, err := resultio.Encode(res, extras(b, res))
		if err != nil {
			return err
		}
		if *format == "proto" {
			return resultio.NewWriter(w).Write(msg)
		}
		out, err := resultio.MarshalJSON(msg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
	return fmt.Errorf("unknown format %q", *format)
}

func extras(b *program.Built, res *sim.Result) map[string]interface{} {
	m := map[string]interface{}{
		"qubits_per_mode": b.CV.QubitsPerMode(),
		"qumodes":         b.CV.NumQumodes(),
	}
	marg, err := fock.Marginals(res.Statevector, b.CV.QubitsPerMode(), b.CV.NumQumodes())
	if err != nil {
		return m
	}
	var means []interface{}
	for _, d := range marg {
		means = append(means, fock.MeanPhotons(d))
	}
	m["mean_photons"] = means
	return m
}

func writeText(w io.Writer, b *program.Built, res *sim.Result) error {
	fmt.Fprintf(w, "%s\n", b.Circuit)
	fmt.Fprintf(w, "job %s: %d qubits, %d qumodes with cutoff %d\n\n",
		res.JobID, res.NumQubits, b.CV.NumQumodes(), b.CV.Cutoff())
	fmt.Fprintln(w, "statevector:")
	probs := res.Probabilities()
	for i, a := range res.Statevector {
		if probs[i] < printThreshold {
			continue
		}
		fmt.Fprintf(w, "  %0*b  % .6f%+.6fi  p=%.6f\n", res.NumQubits, i, real(a), imag(a), probs[i])
	}
	marg, err := fock.Marginals(res.Statevector, b.CV.QubitsPerMode(), b.CV.NumQumodes())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nmean photons:")
	for m, d := range marg {
		fmt.Fprintf(w, "  qumode %d: %.6f\n", m, fock.MeanPhotons(d))
	}
	if len(res.Counts) == 0 {
		return nil
	}
	outcomes, err := fock.DecodeCounts(res.Counts, b.CV.QubitsPerMode())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\ncounts (%d shots):\n", res.Shots)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %s: %d\n", o, o.Count)
	}
	return nil
}

// writeCSV emits one row per basis state with non-negligible probability,
// along with the photon number that state assigns to each qumode.
func writeCSV(w io.Writer, b *program.Built, res *sim.Result) error {
	cw := csv.NewWriter(w)
	qpm := b.CV.QubitsPerMode()
	mask := b.CV.Cutoff() - 1
	header := []string{"index", "probability"}
	for m := 0; m < b.CV.NumQumodes(); m++ {
		header = append(header, "n"+strconv.Itoa(m))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, p := range res.Probabilities() {
		if p < printThreshold {
			continue
		}
		row := []string{strconv.Itoa(i), strconv.FormatFloat(p, 'g', 10, 64)}
		for m := 0; m < b.CV.NumQumodes(); m++ {
			row = append(row, strconv.Itoa((i>>(m*qpm))&mask))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
