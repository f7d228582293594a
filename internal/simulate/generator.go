package simulate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/vibe-mutsim/internal/annotate"
	"github.com/inodb/vibe-mutsim/internal/rng"
)

// nucleotides is the alphabet new bases are drawn from, in draw order.
var nucleotides = [4]byte{'A', 'T', 'G', 'C'}

// Generator runs multi-generation mutation simulations. A Generator holds no
// per-run state and is safe for concurrent use.
type Generator struct {
	algorithm rng.Algorithm
	logger    *zap.Logger
}

// NewGenerator creates a generator using the canonical random stream.
func NewGenerator() *Generator {
	return &Generator{
		algorithm: rng.AlgorithmMulberry32,
		logger:    zap.NewNop(),
	}
}

// SetAlgorithm selects the random stream implementation for future runs.
func (g *Generator) SetAlgorithm(alg rng.Algorithm) {
	g.algorithm = alg
}

// SetLogger sets the logger for warning and debug messages.
func (g *Generator) SetLogger(l *zap.Logger) {
	g.logger = l
}

// Run simulates p.NumGenerations generations of mutation on p.Sequence.
// The context is checked between generations.
func (g *Generator) Run(ctx context.Context, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	dispatch, _ := ParseDispatchMode(string(p.Dispatch))

	agg := newAggregator(len(p.Annotations) > 0, p.NumGenerations)
	if w := InputWarnings(p.Sequence); len(w) > 0 {
		g.logger.Warn("input quality warnings",
			zap.Int("length", len(p.Sequence)),
			zap.Float64("n_ratio", AmbiguousRatio(p.Sequence)),
			zap.Strings("warnings", w))
		agg.warn(w...)
	}

	run := &run{
		src:        rng.New(g.algorithm, p.Seed),
		classifier: annotate.NewClassifier(p.Annotations),
		rates:      p.Rates,
		dispatch:   dispatch,
	}

	seq := []byte(p.Sequence)
	for gen := 1; gen <= p.NumGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		next, recs, count := run.step(gen, seq)
		seq = next
		agg.record(recs)
		s := agg.endGeneration(gen, len(seq), count)

		g.logger.Debug("generation complete",
			zap.Int("generation", gen),
			zap.Int("length", s.PopulationSize),
			zap.Int("mutations", s.MutationCount))
	}

	current := string(seq)
	summary := agg.summary(len(seq), p.NumGenerations)
	summary.Fitness = ScoreRecords(current, agg.log)

	return &Result{
		ReferenceSeq: previewReference(p.Sequence),
		CurrentSeq:   current,
		MutationLog:  agg.log,
		Stats:        agg.stats,
		Warnings:     agg.warnings,
		Summary:      summary,
	}, nil
}

// run owns the mutable state of one simulation.
type run struct {
	src        rng.Source
	classifier annotate.Classifier
	rates      Rates
	dispatch   DispatchMode
}

// candidates draws n positions uniformly from [0, length) and returns the
// distinct ones in ascending order. Duplicates collapse, so fewer than n
// positions may come back.
func (r *run) candidates(length, n int) []int {
	seen := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		seen[rng.Intn(r.src, length)] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// kind chooses the edit for a candidate from the draw u in [0, 1).
func (r *run) kind(u float64, cls annotate.Classification) (Kind, bool) {
	if r.dispatch == DispatchFeatureType {
		return kindOf(cls.Type)
	}
	total := r.rates.Total()
	switch {
	case u < r.rates.Substitution/total:
		return Substitution, true
	case u < (r.rates.Substitution+r.rates.Insertion)/total:
		return Insertion, true
	default:
		return Deletion, true
	}
}

// step applies one generation to seq and returns the new sequence, the edits
// applied, and the number of candidates processed.
//
// Candidates are visited in ascending order of their position in seq. Each
// insertion shifts later array indices by +1 and each deletion by -1; offset
// tracks that net shift. Because every earlier edit lies strictly before the
// current candidate, the output can be assembled by copying untouched runs of
// seq instead of splicing.
func (r *run) step(gen int, seq []byte) ([]byte, []MutationRecord, int) {
	length := len(seq)
	expected := int(math.Floor(float64(length) * r.rates.Total()))
	if expected <= 0 || length == 0 {
		return seq, nil, 0
	}

	positions := r.candidates(length, expected)
	out := make([]byte, 0, length+len(positions))
	var recs []MutationRecord
	cursor, offset, count := 0, 0, 0

	for _, pos := range positions {
		idx := pos + offset
		if idx < 0 || idx >= length+offset {
			continue
		}

		u := r.src.Float64()
		cls := r.classifier.Classify(pos)
		kind, ok := r.kind(u, cls)
		count++
		if !ok {
			continue
		}

		out = append(out, seq[cursor:pos]...)
		cursor = pos

		rec := MutationRecord{
			Generation:     gen,
			Position:       pos + 1,
			Index:          idx,
			Kind:           kind,
			Classification: cls,
		}

		switch kind {
		case Substitution:
			orig := seq[pos]
			alt := r.substitute(orig)
			out = append(out, alt)
			cursor = pos + 1
			rec.Change = string(orig) + "→" + string(alt)
			rec.AminoAcidChange = aminoAcidChange(seq, pos, alt)
		case Insertion:
			base := nucleotides[rng.Intn(r.src, len(nucleotides))]
			out = append(out, base)
			offset++
			rec.Change = "+" + string(base)
		case Deletion:
			cursor = pos + 1
			offset--
			rec.Change = "-" + string(seq[pos])
		}
		recs = append(recs, rec)
	}

	out = append(out, seq[cursor:]...)
	return out, recs, count
}

// substitute picks a base other than orig uniformly from the alphabet.
func (r *run) substitute(orig byte) byte {
	others := make([]byte, 0, len(nucleotides))
	for _, b := range nucleotides {
		if b != orig {
			others = append(others, b)
		}
	}
	return others[rng.Intn(r.src, len(others))]
}

// aminoAcidChange evaluates a substitution against the frame-0 codon of seq
// containing pos.
func aminoAcidChange(seq []byte, pos int, alt byte) string {
	start := (pos / 3) * 3
	end := min(start+3, len(seq))
	return annotate.AminoAcidChange(string(seq[start:end]), pos-start, alt)
}
