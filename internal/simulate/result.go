package simulate

import "github.com/inodb/vibe-mutsim/internal/annotate"

// Kind is the type of a single edit.
type Kind string

const (
	Substitution Kind = "substitution"
	Insertion    Kind = "insertion"
	Deletion     Kind = "deletion"
)

// kindOf maps a feature type string onto a Kind, if it names one.
func kindOf(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case Substitution, Insertion, Deletion:
		return k, true
	}
	return "", false
}

// MutationRecord is one applied edit.
// Position is 1-based in the coordinates of the sequence at the start of the
// generation. Index is the 0-based array index the edit was applied at, i.e.
// Position-1 plus the net indel offset of earlier edits in the same generation.
type MutationRecord struct {
	Generation      int    `json:"generation"`
	Position        int    `json:"position"`
	Index           int    `json:"index"`
	Kind            Kind   `json:"kind"`
	Change          string `json:"change"`
	AminoAcidChange string `json:"aminoAcidChange,omitempty"`
	annotate.Classification
}

// GenerationStats summarizes one generation.
// CodingDensity is cumulative over every mutation recorded so far.
type GenerationStats struct {
	Generation     int     `json:"generation"`
	PopulationSize int     `json:"populationSize"`
	MutationCount  int     `json:"mutationCount"`
	CodingDensity  float64 `json:"codingDensity"`
}

// Summary aggregates a whole run.
type Summary struct {
	TotalMutations     int     `json:"totalMutations"`
	FinalLength        int     `json:"finalLength"`
	AvgMutationsPerGen float64 `json:"avgMutationsPerGen"`
	Fitness            float64 `json:"fitness"`
}

// Result is the output of Generator.Run.
type Result struct {
	ReferenceSeq string            `json:"referenceSeq"`
	CurrentSeq   string            `json:"currentSeq"`
	MutationLog  []MutationRecord  `json:"mutationLog"`
	Stats        []GenerationStats `json:"stats"`
	Warnings     []string          `json:"warnings"`
	Summary      Summary           `json:"summary"`
}
