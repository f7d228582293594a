package simulate

import "github.com/inodb/vibe-mutsim/internal/annotate"

// Fitness model constants.
const (
	BaseFitness       = 100.0
	MissensePenalty   = 1.5
	FrameshiftPenalty = 10.0
	StopCodonPenalty  = 5.0
)

// Context labels for per-base mutation events.
const (
	ContextCoding    = "coding"
	ContextNonCoding = "non-coding"
)

// Fitness scores a sequence and the events that produced it. It starts at
// BaseFitness and subtracts MissensePenalty per coding substitution that
// changes an amino acid, FrameshiftPenalty per insertion or deletion, and
// StopCodonPenalty per stop codon in frame 0 of seq. The result is never
// negative.
func Fitness(seq string, events []MutationEvent) float64 {
	f := BaseFitness
	for _, e := range events {
		f -= penalty(e.Type, e.Context == ContextCoding, e.AminoAcidChange)
	}
	return clampFitness(f - StopCodonPenalty*float64(annotate.CountStopCodons(seq)))
}

// ScoreRecords applies the Fitness model to a generator mutation log, using
// the annotation classification as the coding context.
func ScoreRecords(seq string, recs []MutationRecord) float64 {
	f := BaseFitness
	for _, r := range recs {
		f -= penalty(r.Kind, r.IsCoding, r.AminoAcidChange)
	}
	return clampFitness(f - StopCodonPenalty*float64(annotate.CountStopCodons(seq)))
}

func penalty(kind Kind, coding bool, aaChange string) float64 {
	switch kind {
	case Insertion, Deletion:
		return FrameshiftPenalty
	case Substitution:
		if coding && aaChange != "" && aaChange != annotate.NoChange {
			return MissensePenalty
		}
	}
	return 0
}

func clampFitness(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
