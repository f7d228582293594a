// Package simulate runs stochastic multi-generation mutation of a nucleotide
// sequence and scores the outcome.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/inodb/vibe-mutsim/internal/genome"
)

var (
	// ErrEmptySequence is returned when there is nothing to mutate.
	ErrEmptySequence = errors.New("empty sequence provided")
	// ErrInvalidParams is returned for negative or non-finite inputs.
	ErrInvalidParams = errors.New("invalid simulation parameters")
)

// DispatchMode selects how a surviving candidate position becomes a mutation
// kind.
type DispatchMode string

const (
	// DispatchRate picks the kind from the relative substitution, insertion and
	// deletion rates.
	DispatchRate DispatchMode = "rate"
	// DispatchFeatureType uses the classified feature type as the kind, so only
	// features typed "substitution", "insertion" or "deletion" are mutated.
	// Every other candidate is drawn for and counted but left unchanged.
	DispatchFeatureType DispatchMode = "feature-type"
)

// ParseDispatchMode resolves a user-supplied dispatch mode. Empty means
// DispatchRate.
func ParseDispatchMode(s string) (DispatchMode, error) {
	switch DispatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DispatchRate:
		return DispatchRate, nil
	case DispatchFeatureType, "feature", "classification":
		return DispatchFeatureType, nil
	default:
		return "", fmt.Errorf("%w: unknown dispatch mode %q", ErrInvalidParams, s)
	}
}

// Rates are per-site, per-generation probabilities for each mutation kind.
// They need not sum to 1.
type Rates struct {
	Substitution float64 `json:"substitutionRate" mapstructure:"substitution_rate"`
	Insertion    float64 `json:"insertionRate" mapstructure:"insertion_rate"`
	Deletion     float64 `json:"deletionRate" mapstructure:"deletion_rate"`
}

// Total is the per-site probability that any mutation occurs.
func (r Rates) Total() float64 {
	return r.Substitution + r.Insertion + r.Deletion
}

func (r Rates) validate() error {
	for name, v := range map[string]float64{
		"substitution": r.Substitution,
		"insertion":    r.Insertion,
		"deletion":     r.Deletion,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s rate %v must be a non-negative number", ErrInvalidParams, name, v)
		}
	}
	return nil
}

// Params is the complete input of a simulation run. A run is fully determined
// by these values.
type Params struct {
	Sequence       string           `json:"sequence"`
	Seed           int64            `json:"seed"`
	NumGenerations int              `json:"numGenerations"`
	Rates          Rates            `json:"mutationRates"`
	Annotations    []genome.Feature `json:"annotations,omitempty"`
	Dispatch       DispatchMode     `json:"dispatch,omitempty"`
}

// Validate checks for fatal input problems.
func (p *Params) Validate() error {
	if len(p.Sequence) == 0 {
		return ErrEmptySequence
	}
	if p.NumGenerations < 0 {
		return fmt.Errorf("%w: numGenerations %d must be >= 0", ErrInvalidParams, p.NumGenerations)
	}
	if _, err := ParseDispatchMode(string(p.Dispatch)); err != nil {
		return err
	}
	return p.Rates.validate()
}
