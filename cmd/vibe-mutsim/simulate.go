package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-mutsim/internal/duckdb"
	"github.com/inodb/vibe-mutsim/internal/genome"
	"github.com/inodb/vibe-mutsim/internal/output"
	"github.com/inodb/vibe-mutsim/internal/rng"
	"github.com/inodb/vibe-mutsim/internal/simulate"
)

// simulationOutput is one replicate as written by the simulate command.
type simulationOutput struct {
	RunID string `json:"runId,omitempty"`
	SeqID string `json:"seqId"`
	Seed  int64  `json:"seed"`
	*simulate.Result
}

func newSimulateCmd() *cobra.Command {
	var (
		gffPath    string
		seqID      string
		format     string
		outputFile string
		replicates int
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "simulate [options] <fasta-file>",
		Short: "Run a multi-generation mutation simulation",
		Long: `Mutate a sequence over discrete generations with per-site substitution,
insertion and deletion rates. Annotations from a GFF file label each mutation
as coding or non-coding.`,
		Example: `  vibe-mutsim simulate ref.fa
  vibe-mutsim simulate --gff genes.gff --generations 50 --seed 42 ref.fa
  vibe-mutsim simulate --replicates 8 --format tab -o runs.tsv ref.fa
  vibe-mutsim simulate --save ref.fa`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if replicates < 1 {
				return &usageError{fmt.Errorf("--replicates must be at least 1, got %d", replicates)}
			}
			return runSimulate(cmd, args[0], gffPath, seqID, format, outputFile, replicates, save)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&gffPath, "gff", "", "GFF annotation file")
	flags.StringVar(&seqID, "seq-id", "", "FASTA record to simulate (default: first record)")
	flags.StringVarP(&format, "format", "f", formatJSON, "Output format: json, tab")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	flags.IntVar(&replicates, "replicates", 1, "Number of independent replicates, seeded seed, seed+1, ...")
	flags.BoolVar(&save, "save", false, "Persist results to the run store")

	flags.Int64("seed", 0, "Random seed (default: derived from the clock)")
	flags.Int("generations", 10, "Number of generations")
	flags.Float64("substitution-rate", 0.001, "Per-site substitution probability per generation")
	flags.Float64("insertion-rate", 0.0001, "Per-site insertion probability per generation")
	flags.Float64("deletion-rate", 0.0001, "Per-site deletion probability per generation")
	flags.String("dispatch", string(simulate.DispatchRate), "Mutation kind dispatch: rate, feature-type")
	flags.String("rng", string(rng.AlgorithmMulberry32), "Random stream: mulberry32, lcg")
	flags.Duration("timeout", 0, "Abort the simulation after this long (0: no limit)")
	flags.Int("workers", 0, "Parallel replicates (0: number of CPUs)")

	for key, name := range map[string]string{
		"simulation.seed":              "seed",
		"simulation.generations":       "generations",
		"simulation.substitution_rate": "substitution-rate",
		"simulation.insertion_rate":    "insertion-rate",
		"simulation.deletion_rate":     "deletion-rate",
		"simulation.dispatch":          "dispatch",
		"simulation.rng":               "rng",
		"simulation.timeout":           "timeout",
		"simulation.workers":           "workers",
	} {
		viper.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func simulationParams(cmd *cobra.Command, seq string) (simulate.Params, rng.Algorithm, error) {
	dispatch, err := simulate.ParseDispatchMode(viper.GetString("simulation.dispatch"))
	if err != nil {
		return simulate.Params{}, "", &usageError{err}
	}
	alg, err := rng.ParseAlgorithm(viper.GetString("simulation.rng"))
	if err != nil {
		return simulate.Params{}, "", &usageError{err}
	}

	p := simulate.Params{
		Sequence:       seq,
		Seed:           resolveSeed(cmd, "simulation.seed"),
		NumGenerations: viper.GetInt("simulation.generations"),
		Rates: simulate.Rates{
			Substitution: viper.GetFloat64("simulation.substitution_rate"),
			Insertion:    viper.GetFloat64("simulation.insertion_rate"),
			Deletion:     viper.GetFloat64("simulation.deletion_rate"),
		},
		Dispatch: dispatch,
	}
	return p, alg, nil
}

func runSimulate(cmd *cobra.Command, fastaPath, gffPath, seqID, format, outputFile string, replicates int, save bool) error {
	id, seq, err := loadSequence(fastaPath, seqID)
	if err != nil {
		return err
	}
	features, err := loadAnnotations(gffPath)
	if err != nil {
		return err
	}

	p, alg, err := simulationParams(cmd, seq)
	if err != nil {
		return err
	}
	p.Annotations = features

	ctx := cmd.Context()
	if timeout := viper.GetDuration("simulation.timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	gen := simulate.NewGenerator()
	gen.SetAlgorithm(alg)
	gen.SetLogger(logger)

	seeds := make([]int64, replicates)
	for i := range seeds {
		seeds[i] = p.Seed + int64(i)
	}

	logger.Info("starting simulation",
		zap.String("seq_id", id),
		zap.Int("length", len(seq)),
		zap.Int64("seed", p.Seed),
		zap.Int("replicates", replicates),
		zap.Int("generations", p.NumGenerations))

	results, err := gen.RunSeeds(ctx, p, seeds, viper.GetInt("simulation.workers"))
	if err != nil {
		return fmt.Errorf("simulate %s: %w", id, err)
	}

	outputs := make([]simulationOutput, len(results))
	for i, res := range results {
		outputs[i] = simulationOutput{SeqID: id, Seed: seeds[i], Result: res}
	}

	if save {
		if err := saveRuns(ctx, fastaPath, p, alg, outputs); err != nil {
			return err
		}
	}

	w, closeOut, err := openOutput(cmd, outputFile)
	if err != nil {
		return err
	}
	if err := writeSimulations(w, format, outputs); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func saveRuns(ctx context.Context, fastaPath string, p simulate.Params, alg rng.Algorithm, outputs []simulationOutput) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var fp duckdb.FileFingerprint
	if fastaPath != genome.Stdin {
		if fp, err = duckdb.StatFile(fastaPath); err != nil {
			return fmt.Errorf("fingerprint input: %w", err)
		}
	}

	for i := range outputs {
		meta := duckdb.RunMeta{
			SeqID:          outputs[i].SeqID,
			Input:          fp,
			Seed:           outputs[i].Seed,
			NumGenerations: p.NumGenerations,
			Rates:          p.Rates,
			Dispatch:       p.Dispatch,
			Algorithm:      alg,
		}
		id, err := store.SaveRun(ctx, meta, outputs[i].Result)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		outputs[i].RunID = id
		logger.Info("saved run", zap.String("run_id", id), zap.String("store", store.Path()))
	}
	return nil
}

func writeSimulations(w io.Writer, format string, outputs []simulationOutput) error {
	if format == formatJSON {
		if len(outputs) == 1 {
			return output.WriteJSON(w, outputs[0])
		}
		return output.WriteJSON(w, outputs)
	}

	return writeTab(w, func(tw *output.TabWriter) error {
		for i, o := range outputs {
			if i > 0 {
				if err := tw.Comment(""); err != nil {
					return err
				}
			}
			if err := writeSimulationTab(tw, o); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSimulationTab(tw *output.TabWriter, o simulationOutput) error {
	var err error
	comment := func(format string, args ...any) {
		if err == nil {
			err = tw.Comment(format, args...)
		}
	}
	comment("seq_id: %s", o.SeqID)
	comment("seed: %d", o.Seed)
	if o.RunID != "" {
		comment("run_id: %s", o.RunID)
	}
	comment("total_mutations: %d", o.Summary.TotalMutations)
	comment("final_length: %d", o.Summary.FinalLength)
	comment("avg_mutations_per_gen: %.2f", o.Summary.AvgMutationsPerGen)
	comment("fitness: %.2f", o.Summary.Fitness)
	for _, warning := range o.Warnings {
		comment("warning: %s", warning)
	}
	if err != nil {
		return err
	}

	if err := tw.WriteMutationLog(o.MutationLog); err != nil {
		return err
	}
	if err := tw.Comment(""); err != nil {
		return err
	}
	return tw.WriteStats(o.Stats)
}
