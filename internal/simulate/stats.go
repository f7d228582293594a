package simulate

import (
	"math"
	"strings"
)

const (
	shortSequenceBases = 200
	maxAmbiguousRatio  = 0.1
	referencePreview   = 100
)

// Warning messages collected during input validation and summarizing.
const (
	WarnShortSequence  = "Extremely short sequence (<200bp); simulation may be unstable."
	WarnHighN          = "High 'N' count detected; results may be scientifically inaccurate."
	WarnZeroGeneration = "No generations simulated; avgMutationsPerGen reported as 0."
)

// InputWarnings returns the non-fatal quality warnings for seq.
func InputWarnings(seq string) []string {
	var warnings []string
	if len(seq) < shortSequenceBases {
		warnings = append(warnings, WarnShortSequence)
	}
	if AmbiguousRatio(seq) > maxAmbiguousRatio {
		warnings = append(warnings, WarnHighN)
	}
	return warnings
}

// AmbiguousRatio is the fraction of 'N' bases in seq, or 0 for an empty seq.
func AmbiguousRatio(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	return float64(strings.Count(seq, "N")) / float64(len(seq))
}

// AvgPerGeneration divides total by generations, rounded to two decimals.
// Zero generations yields 0 with ok=false instead of NaN or Inf.
func AvgPerGeneration(total, generations int) (avg float64, ok bool) {
	if generations <= 0 {
		return 0, false
	}
	return math.Round(float64(total)/float64(generations)*100) / 100, true
}

// previewReference truncates the reference for display.
func previewReference(seq string) string {
	if len(seq) > referencePreview {
		seq = seq[:referencePreview]
	}
	return seq + "..."
}

// aggregator accumulates the mutation log, per-generation stats and warnings
// for one run.
type aggregator struct {
	annotated bool
	coding    int
	log       []MutationRecord
	stats     []GenerationStats
	warnings  []string
}

func newAggregator(annotated bool, generations int) *aggregator {
	return &aggregator{
		annotated: annotated,
		log:       []MutationRecord{},
		stats:     make([]GenerationStats, 0, generations),
		warnings:  []string{},
	}
}

func (a *aggregator) warn(msgs ...string) {
	a.warnings = append(a.warnings, msgs...)
}

func (a *aggregator) record(recs []MutationRecord) {
	for _, r := range recs {
		if r.IsCoding {
			a.coding++
		}
	}
	a.log = append(a.log, recs...)
}

// endGeneration emits stats using the cumulative log.
func (a *aggregator) endGeneration(gen, length, count int) GenerationStats {
	density := 0.0
	if a.annotated {
		density = float64(a.coding) / float64(max(len(a.log), 1))
	}
	s := GenerationStats{
		Generation:     gen,
		PopulationSize: length,
		MutationCount:  count,
		CodingDensity:  density,
	}
	a.stats = append(a.stats, s)
	return s
}

func (a *aggregator) summary(finalLength, generations int) Summary {
	avg, ok := AvgPerGeneration(len(a.log), generations)
	if !ok {
		a.warn(WarnZeroGeneration)
	}
	return Summary{
		TotalMutations:     len(a.log),
		FinalLength:        finalLength,
		AvgMutationsPerGen: avg,
	}
}
