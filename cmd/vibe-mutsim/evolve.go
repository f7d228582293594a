package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-mutsim/internal/output"
	"github.com/inodb/vibe-mutsim/internal/rng"
	"github.com/inodb/vibe-mutsim/internal/simulate"
)

// evolutionOutput is the evolve command's JSON document.
type evolutionOutput struct {
	SeqID         string  `json:"seqId"`
	Seed          int64   `json:"seed"`
	EffectiveRate float64 `json:"effectiveRate"`
	*simulate.EvolveResult
}

func newEvolveCmd() *cobra.Command {
	var (
		seqID      string
		format     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "evolve [options] <fasta-file>",
		Short: "Run the temperature-scaled per-base substitution engine",
		Long: `Visit every base once per generation and substitute it with a
temperature-scaled probability, using a Kimura-style transition bias. Reports
each substitution, its amino-acid effect and the fitness after each generation.`,
		Example: `  vibe-mutsim evolve ref.fa
  vibe-mutsim evolve --temperature 98.6 --temp-unit F --generations 20 ref.fa
  vibe-mutsim evolve --rng mulberry32 --seed 7 --format tab ref.fa`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return runEvolve(cmd, args[0], seqID, format, outputFile)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&seqID, "seq-id", "", "FASTA record to evolve (default: first record)")
	flags.StringVarP(&format, "format", "f", formatJSON, "Output format: json, tab")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	flags.Int64("seed", 0, "Random seed (default: derived from the clock)")
	flags.Int("generations", 10, "Number of generations")
	flags.Float64("substitution-rate", 0.001, "Base per-site substitution probability at 37 C")
	flags.Float64("temperature", 37, "Environmental temperature")
	flags.String("temp-unit", string(simulate.Celsius), "Temperature unit: C, F")
	flags.String("rng", string(rng.AlgorithmLCG), "Random stream: lcg, mulberry32")
	flags.Duration("timeout", 0, "Abort the evolution after this long (0: no limit)")

	for key, name := range map[string]string{
		"evolve.generations":       "generations",
		"evolve.substitution_rate": "substitution-rate",
		"evolve.temperature":       "temperature",
		"evolve.temp_unit":         "temp-unit",
		"evolve.rng":               "rng",
		"evolve.seed":              "seed",
		"evolve.timeout":           "timeout",
	} {
		viper.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func runEvolve(cmd *cobra.Command, fastaPath, seqID, format, outputFile string) error {
	id, seq, err := loadSequence(fastaPath, seqID)
	if err != nil {
		return err
	}

	unit, err := simulate.ParseTempUnit(viper.GetString("evolve.temp_unit"))
	if err != nil {
		return &usageError{err}
	}
	alg, err := rng.ParseAlgorithm(viper.GetString("evolve.rng"))
	if err != nil {
		return &usageError{err}
	}

	p := simulate.EvolveParams{
		Sequence:         seq,
		Temperature:      viper.GetFloat64("evolve.temperature"),
		TempUnit:         unit,
		SubstitutionRate: viper.GetFloat64("evolve.substitution_rate"),
		NumGenerations:   viper.GetInt("evolve.generations"),
		Seed:             resolveSeed(cmd, "evolve.seed"),
	}

	ctx := cmd.Context()
	if timeout := viper.GetDuration("evolve.timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ev := simulate.NewEvolver()
	ev.SetAlgorithm(alg)
	ev.SetLogger(logger)

	rate := simulate.EffectiveRate(p.SubstitutionRate, p.Temperature, p.TempUnit)
	logger.Info("starting evolution",
		zap.String("seq_id", id),
		zap.Int("length", len(seq)),
		zap.Int64("seed", p.Seed),
		zap.Float64("effective_rate", rate))

	res, err := ev.Run(ctx, p)
	if err != nil {
		return fmt.Errorf("evolve %s: %w", id, err)
	}

	w, closeOut, err := openOutput(cmd, outputFile)
	if err != nil {
		return err
	}

	out := evolutionOutput{SeqID: id, Seed: p.Seed, EffectiveRate: rate, EvolveResult: res}
	if format == formatJSON {
		err = output.WriteJSON(w, out)
	} else {
		err = writeTab(w, func(tw *output.TabWriter) error {
			if err := tw.Comment("seq_id: %s", id); err != nil {
				return err
			}
			if err := tw.Comment("seed: %d", p.Seed); err != nil {
				return err
			}
			if err := tw.WriteEvents(res.Mutations); err != nil {
				return err
			}
			if err := tw.Comment(""); err != nil {
				return err
			}
			return tw.WriteFitness(res.FitnessHistory)
		})
	}
	if err != nil {
		closeOut()
		return err
	}
	return closeOut()
}
