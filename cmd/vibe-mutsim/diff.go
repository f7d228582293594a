package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-mutsim/internal/diff"
	"github.com/inodb/vibe-mutsim/internal/output"
)

// diffOutput is the diff command's JSON document.
type diffOutput struct {
	DiffID      string        `json:"diffId,omitempty"`
	RefID       string        `json:"refId"`
	QueryID     string        `json:"queryId"`
	Summary     diff.Summary  `json:"summary"`
	Differences []diff.Record `json:"differences"`
}

func newDiffCmd() *cobra.Command {
	var (
		refID      string
		queryID    string
		format     string
		outputFile string
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "diff [options] <ref-fasta> <query-fasta>",
		Short: "List positional differences between two sequences",
		Long: `Compare a query sequence against a reference position by position.

No alignment is performed: an insertion or deletion shifts every later base, so
each downstream position that no longer lines up is reported separately.`,
		Example: `  vibe-mutsim diff ref.fa mutated.fa
  vibe-mutsim diff --ref-id chr1 --query-id chr1_mut both.fa both.fa
  vibe-mutsim diff --format tab --save ref.fa mutated.fa
  vibe-mutsim diff --format vcf -o mutated.vcf ref.fa mutated.fa`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatVCF {
				if err := checkFormat(format); err != nil {
					return err
				}
			}

			rid, ref, err := loadSequence(args[0], refID)
			if err != nil {
				return err
			}
			qid, query, err := loadSequence(args[1], queryID)
			if err != nil {
				return err
			}

			out := diffOutput{RefID: rid, QueryID: qid}
			out.Differences = diff.Detect(query, ref)
			out.Summary = diff.Summarize(out.Differences)

			logger.Info("compared sequences",
				zap.String("ref_id", rid),
				zap.String("query_id", qid),
				zap.Int("differences", out.Summary.Total))

			if save {
				store, err := openStore()
				if err != nil {
					return err
				}
				out.DiffID, err = store.SaveDiff(cmd.Context(), rid, qid, out.Differences)
				store.Close()
				if err != nil {
					return fmt.Errorf("save diff: %w", err)
				}
			}

			w, closeOut, err := openOutput(cmd, outputFile)
			if err != nil {
				return err
			}
			if format == formatVCF {
				err = writeDiffVCF(w, ref, out)
			} else {
				err = writeDiff(w, format, out)
			}
			if err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&refID, "ref-id", "", "Reference FASTA record (default: first record)")
	flags.StringVar(&queryID, "query-id", "", "Query FASTA record (default: first record)")
	flags.StringVarP(&format, "format", "f", formatJSON, "Output format: json, tab, vcf")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	flags.BoolVar(&save, "save", false, "Persist the comparison to the run store")

	return cmd
}

func writeDiff(w io.Writer, format string, out diffOutput) error {
	if format == formatJSON {
		return output.WriteJSON(w, out)
	}
	return writeTab(w, func(tw *output.TabWriter) error {
		if out.DiffID != "" {
			if err := tw.Comment("diff_id: %s", out.DiffID); err != nil {
				return err
			}
		}
		if err := tw.Comment("ref: %s query: %s", out.RefID, out.QueryID); err != nil {
			return err
		}
		s := out.Summary
		if err := tw.Comment("substitutions: %d insertions: %d deletions: %d total: %d",
			s.Substitutions, s.Insertions, s.Deletions, s.Total); err != nil {
			return err
		}
		return tw.WriteDiff(out.Differences)
	})
}

// writeDiffVCF writes the differences as VCF records on the reference contig.
func writeDiffVCF(w io.Writer, ref string, out diffOutput) error {
	vw := output.NewVCFWriter(w, out.RefID, ref)
	if err := vw.WriteHeader(); err != nil {
		return err
	}
	if err := vw.WriteRecords(out.Differences); err != nil {
		return err
	}
	return vw.Flush()
}
