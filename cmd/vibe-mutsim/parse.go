package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-mutsim/internal/annotate"
	"github.com/inodb/vibe-mutsim/internal/genome"
	"github.com/inodb/vibe-mutsim/internal/output"
	"github.com/inodb/vibe-mutsim/internal/simulate"
)

// sequenceInfo describes one parsed FASTA record.
type sequenceInfo struct {
	ID             string   `json:"id"`
	Length         int      `json:"length"`
	AmbiguousRatio float64  `json:"ambiguousRatio"`
	Warnings       []string `json:"warnings"`
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Inspect FASTA and GFF inputs",
		Long:  "Parse an input file the way simulate reads it and print what was understood.",
	}

	cmd.AddCommand(newParseFASTACmd())
	cmd.AddCommand(newParseGFFCmd())

	return cmd
}

func newParseFASTACmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "fasta <file>",
		Short: "List FASTA records with their length and quality warnings",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			records, err := genome.LoadFASTA(args[0])
			if err != nil {
				return err
			}

			infos := make([]sequenceInfo, 0, records.Len())
			for _, id := range records.IDs() {
				seq, _ := records.Get(id)
				infos = append(infos, sequenceInfo{
					ID:             id,
					Length:         len(seq),
					AmbiguousRatio: simulate.AmbiguousRatio(seq),
					Warnings:       simulate.InputWarnings(seq),
				})
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				return output.WriteJSON(w, infos)
			}
			return writeTab(w, func(tw *output.TabWriter) error {
				return tw.WriteRows([]string{"#ID", "Length", "N_ratio", "Warnings"}, len(infos), func(i int) []string {
					return []string{
						infos[i].ID,
						strconv.Itoa(infos[i].Length),
						strconv.FormatFloat(infos[i].AmbiguousRatio, 'f', 4, 64),
						joinOrDash(infos[i].Warnings),
					}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTab, "Output format: json, tab")
	return cmd
}

func newParseGFFCmd() *cobra.Command {
	var (
		format string
		at     int
	)

	cmd := &cobra.Command{
		Use:   "gff <file>",
		Short: "List parsed GFF features",
		Example: `  vibe-mutsim parse gff genes.gff
  vibe-mutsim parse gff --at 1200 genes.gff   # features covering base 1200`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if at < 0 {
				return &usageError{fmt.Errorf("--at must be a 1-based position, got %d", at)}
			}
			features, err := genome.LoadGFF(args[0])
			if err != nil {
				return err
			}
			if at > 0 {
				features = featuresAt(features, at)
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				if features == nil {
					features = []genome.Feature{}
				}
				return output.WriteJSON(w, features)
			}
			return writeTab(w, func(tw *output.TabWriter) error {
				return tw.WriteRows([]string{"#Seqname", "Type", "Name", "Start", "End", "Strand", "CODING"}, len(features), func(i int) []string {
					f := features[i]
					strand := "+"
					if f.Strand < 0 {
						strand = "-"
					}
					coding := "-"
					if annotate.IsCodingType(f.Type) {
						coding = "YES"
					}
					return []string{f.SeqName, f.Type, f.Name, strconv.Itoa(f.Start), strconv.Itoa(f.End), strand, coding}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTab, "Output format: json, tab")
	cmd.Flags().IntVar(&at, "at", 0, "Only list features covering this 1-based position")
	return cmd
}

// featuresAt returns the features containing the 1-based position pos, in
// file order.
func featuresAt(features []genome.Feature, pos int) []genome.Feature {
	hits := genome.BuildFeatureIndex(features).Overlaps(pos - 1)
	out := make([]genome.Feature, len(hits))
	for i, f := range hits {
		out[i] = *f
	}
	return out
}

func joinOrDash(ss []string) string {
	if len(ss) == 0 {
		return "-"
	}
	return strings.Join(ss, "; ")
}
