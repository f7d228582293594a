// Package output provides result formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-mutsim/internal/diff"
	"github.com/inodb/vibe-mutsim/internal/simulate"
)

var (
	mutationColumns = []string{
		"#Generation",
		"Position",
		"Index",
		"Kind",
		"Change",
		"Amino_acids",
		"Feature",
		"Feature_type",
		"CODING",
	}
	statsColumns = []string{
		"#Generation",
		"Population_size",
		"Mutation_count",
		"Coding_density",
	}
	eventColumns = []string{
		"#Generation",
		"Position",
		"Type",
		"Original",
		"Mutated",
		"Amino_acids",
		"Context",
	}
	fitnessColumns = []string{
		"#Generation",
		"Fitness",
	}
	diffColumns = []string{
		"#Pos",
		"Ref",
		"Alt",
		"Type",
	}
)

// TabWriter writes tab-delimited tables.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

func (tw *TabWriter) row(values ...string) error {
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// dash substitutes "-" for empty values.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "-"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// WriteMutationLog writes the generator's mutation log.
func (tw *TabWriter) WriteMutationLog(log []simulate.MutationRecord) error {
	if err := tw.row(mutationColumns...); err != nil {
		return err
	}
	for _, r := range log {
		if err := tw.row(
			strconv.Itoa(r.Generation),
			strconv.Itoa(r.Position),
			strconv.Itoa(r.Index),
			string(r.Kind),
			r.Change,
			dash(r.AminoAcidChange),
			dash(r.Feature),
			dash(r.Type),
			yesNo(r.IsCoding),
		); err != nil {
			return fmt.Errorf("write mutation record: %w", err)
		}
	}
	return nil
}

// WriteStats writes per-generation statistics.
func (tw *TabWriter) WriteStats(stats []simulate.GenerationStats) error {
	if err := tw.row(statsColumns...); err != nil {
		return err
	}
	for _, s := range stats {
		if err := tw.row(
			strconv.Itoa(s.Generation),
			strconv.Itoa(s.PopulationSize),
			strconv.Itoa(s.MutationCount),
			formatFloat(s.CodingDensity),
		); err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
	}
	return nil
}

// WriteEvents writes the per-base engine's mutation events.
func (tw *TabWriter) WriteEvents(events []simulate.MutationEvent) error {
	if err := tw.row(eventColumns...); err != nil {
		return err
	}
	for _, e := range events {
		if err := tw.row(
			strconv.Itoa(e.Generation),
			strconv.Itoa(e.Position),
			string(e.Type),
			e.Original,
			e.Mutated,
			e.AminoAcidChange,
			e.Context,
		); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	return nil
}

// WriteFitness writes a fitness history.
func (tw *TabWriter) WriteFitness(history []simulate.FitnessPoint) error {
	if err := tw.row(fitnessColumns...); err != nil {
		return err
	}
	for _, p := range history {
		if err := tw.row(strconv.Itoa(p.Generation), formatFloat(p.Fitness)); err != nil {
			return fmt.Errorf("write fitness: %w", err)
		}
	}
	return nil
}

// WriteDiff writes positional differences.
func (tw *TabWriter) WriteDiff(records []diff.Record) error {
	if err := tw.row(diffColumns...); err != nil {
		return err
	}
	for _, r := range records {
		if err := tw.row(strconv.Itoa(r.Pos), r.Ref, r.Alt, string(r.Type)); err != nil {
			return fmt.Errorf("write diff record: %w", err)
		}
	}
	return nil
}

// WriteRows writes a header followed by n rows produced by row.
func (tw *TabWriter) WriteRows(header []string, n int, row func(i int) []string) error {
	if err := tw.row(header...); err != nil {
		return err
	}
	for i := range n {
		if err := tw.row(row(i)...); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

// Comment writes a "# "-prefixed line, or a blank line when format is empty.
func (tw *TabWriter) Comment(format string, args ...any) error {
	if format == "" {
		return tw.w.WriteByte('\n')
	}
	_, err := fmt.Fprintf(tw.w, "# "+format+"\n", args...)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
