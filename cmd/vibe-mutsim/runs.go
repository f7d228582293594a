package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-mutsim/internal/duckdb"
	"github.com/inodb/vibe-mutsim/internal/output"
)

// runOutput is a stored run as written by runs show.
type runOutput struct {
	CreatedAt      time.Time `json:"createdAt"`
	Input          string    `json:"input,omitempty"`
	NumGenerations int       `json:"numGenerations"`
	Dispatch       string    `json:"dispatch"`
	Algorithm      string    `json:"rng"`
	simulationOutput
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and inspect persisted simulations",
		Long:  "Query simulations and diffs saved with --save. The store location is set by --store or store.path.",
		Example: `  vibe-mutsim runs list
  vibe-mutsim runs show 3f1c2a9e-...
  vibe-mutsim runs diff 9b0d4c11-...`,
	}

	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())
	cmd.AddCommand(newRunsRmCmd())
	cmd.AddCommand(newRunsDiffCmd())

	return cmd
}

func newRunsListCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				outs := make([]runOutput, len(runs))
				for i := range runs {
					outs[i] = newRunOutput(&runs[i])
				}
				return output.WriteJSON(w, outs)
			}
			return writeTab(w, func(tw *output.TabWriter) error {
				header := []string{"#Run_ID", "Created", "Seq_ID", "Seed", "Generations", "Mutations", "Final_length", "Fitness"}
				return tw.WriteRows(header, len(runs), func(i int) []string {
					r := runs[i]
					return []string{
						r.ID,
						r.CreatedAt.UTC().Format(time.RFC3339),
						r.Meta.SeqID,
						strconv.FormatInt(r.Meta.Seed, 10),
						strconv.Itoa(r.Meta.NumGenerations),
						strconv.Itoa(r.Result.Summary.TotalMutations),
						strconv.Itoa(r.Result.Summary.FinalLength),
						strconv.FormatFloat(r.Result.Summary.Fitness, 'f', 2, 64),
					}
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs (0: all)")
	cmd.Flags().StringVarP(&format, "format", "f", formatTab, "Output format: json, tab")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run with its mutation log",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.LoadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			warnIfInputChanged(run)

			out := newRunOutput(run)
			w := cmd.OutOrStdout()
			if format == formatJSON {
				return output.WriteJSON(w, out)
			}
			return writeTab(w, func(tw *output.TabWriter) error {
				return writeSimulationTab(tw, out.simulationOutput)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json, tab")
	return cmd
}

func newRunsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <run-id>...",
		Short: "Delete stored runs",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.DeleteRun(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

func newRunsDiffCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff <diff-id>",
		Short: "Show a stored sequence comparison",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := store.LoadDiff(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeDiff(cmd.OutOrStdout(), format, diffOutput{
				DiffID:      d.ID,
				RefID:       d.RefID,
				QueryID:     d.QueryID,
				Summary:     d.Summary,
				Differences: d.Records,
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json, tab")
	return cmd
}

func newRunOutput(r *duckdb.Run) runOutput {
	return runOutput{
		CreatedAt:      r.CreatedAt,
		Input:          r.Meta.Input.Path,
		NumGenerations: r.Meta.NumGenerations,
		Dispatch:       string(r.Meta.Dispatch),
		Algorithm:      string(r.Meta.Algorithm),
		simulationOutput: simulationOutput{
			RunID:  r.ID,
			SeqID:  r.Meta.SeqID,
			Seed:   r.Meta.Seed,
			Result: r.Result,
		},
	}
}

// warnIfInputChanged logs when the FASTA a run was made from no longer
// matches its recorded fingerprint.
func warnIfInputChanged(r *duckdb.Run) {
	if r.Meta.Input.Path == "" {
		return
	}
	current, err := duckdb.StatFile(r.Meta.Input.Path)
	if err != nil {
		logger.Warn("run input no longer readable", zap.String("path", r.Meta.Input.Path), zap.Error(err))
		return
	}
	if !current.Matches(r.Meta.Input) {
		logger.Warn("run input changed since simulation", zap.String("path", r.Meta.Input.Path))
	}
}
