package simulate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-mutsim/internal/annotate"
	"github.com/inodb/vibe-mutsim/internal/rng"
)

const (
	// transitionProbability is the Kimura two-parameter transition share.
	transitionProbability = 0.66
	// nonCodingTail is the number of trailing bases treated as non-coding.
	nonCodingTail = 100
	referenceTemp = 37.0
)

// TempUnit is the unit of EvolveParams.Temperature.
type TempUnit string

const (
	Celsius    TempUnit = "C"
	Fahrenheit TempUnit = "F"
)

// ParseTempUnit resolves a temperature unit. Empty means Celsius.
func ParseTempUnit(s string) (TempUnit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "C":
		return Celsius, nil
	case "F":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("%w: unknown temperature unit %q", ErrInvalidParams, s)
	}
}

// ToCelsius converts t in unit to degrees Celsius.
func ToCelsius(t float64, unit TempUnit) float64 {
	if unit == Fahrenheit {
		return (t - 32) * 5 / 9
	}
	return t
}

// TemperatureFactor scales the mutation rate by 1.1 per 5°C away from 37°C.
func TemperatureFactor(celsius float64) float64 {
	return math.Pow(1.1, (celsius-referenceTemp)/5)
}

// EffectiveRate is the temperature-modulated substitution rate.
func EffectiveRate(base, temperature float64, unit TempUnit) float64 {
	return base * TemperatureFactor(ToCelsius(temperature, unit))
}

// EvolveParams is the input of the per-base engine.
type EvolveParams struct {
	Sequence         string   `json:"sequence"`
	Temperature      float64  `json:"temperature"`
	TempUnit         TempUnit `json:"tempUnit"`
	SubstitutionRate float64  `json:"substitutionRate"`
	NumGenerations   int      `json:"numGenerations"`
	Seed             int64    `json:"seed"`
}

// Validate checks for fatal input problems.
func (p *EvolveParams) Validate() error {
	if len(p.Sequence) == 0 {
		return ErrEmptySequence
	}
	if p.NumGenerations < 0 {
		return fmt.Errorf("%w: numGenerations %d must be >= 0", ErrInvalidParams, p.NumGenerations)
	}
	if p.SubstitutionRate < 0 || math.IsNaN(p.SubstitutionRate) || math.IsInf(p.SubstitutionRate, 0) {
		return fmt.Errorf("%w: substitution rate %v must be a non-negative number", ErrInvalidParams, p.SubstitutionRate)
	}
	if math.IsNaN(p.Temperature) || math.IsInf(p.Temperature, 0) {
		return fmt.Errorf("%w: temperature %v", ErrInvalidParams, p.Temperature)
	}
	_, err := ParseTempUnit(string(p.TempUnit))
	return err
}

// MutationEvent is one per-base engine substitution. Position is 0-based.
type MutationEvent struct {
	Generation      int    `json:"generation"`
	Position        int    `json:"position"`
	Type            Kind   `json:"type"`
	Original        string `json:"original"`
	Mutated         string `json:"mutated"`
	AminoAcidChange string `json:"aminoAcidChange"`
	Context         string `json:"context"`
}

// FitnessPoint is the fitness after a generation.
type FitnessPoint struct {
	Generation int     `json:"generation"`
	Fitness    float64 `json:"fitness"`
}

// EvolveResult is the output of Evolver.Run.
type EvolveResult struct {
	FinalSequence  string          `json:"finalSequence"`
	Mutations      []MutationEvent `json:"mutations"`
	FitnessHistory []FitnessPoint  `json:"fitnessHistory"`
	Hotspots       []int           `json:"hotspots"`
}

// Evolver is the per-base, temperature-driven substitution engine. Every site
// of every generation gets one draw against the effective rate.
type Evolver struct {
	algorithm rng.Algorithm
	logger    *zap.Logger
}

// NewEvolver creates an evolver using the LCG stream its seeds were
// historically keyed to.
func NewEvolver() *Evolver {
	return &Evolver{
		algorithm: rng.AlgorithmLCG,
		logger:    zap.NewNop(),
	}
}

// SetAlgorithm selects the random stream implementation for future runs.
func (e *Evolver) SetAlgorithm(alg rng.Algorithm) {
	e.algorithm = alg
}

// SetLogger sets the logger for debug messages.
func (e *Evolver) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Run evolves p.Sequence for p.NumGenerations generations.
func (e *Evolver) Run(ctx context.Context, p EvolveParams) (*EvolveResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	unit, _ := ParseTempUnit(string(p.TempUnit))
	rate := EffectiveRate(p.SubstitutionRate, p.Temperature, unit)
	src := rng.New(e.algorithm, p.Seed)

	e.logger.Debug("per-base evolution",
		zap.Float64("celsius", ToCelsius(p.Temperature, unit)),
		zap.Float64("effective_rate", rate))

	res := &EvolveResult{
		Mutations:      []MutationEvent{},
		FitnessHistory: make([]FitnessPoint, 0, p.NumGenerations),
		Hotspots:       []int{},
	}

	current := p.Sequence
	for gen := 1; gen <= p.NumGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		next := []byte(current)
		for i := 0; i < len(current); i++ {
			if src.Float64() >= rate {
				continue
			}
			orig := current[i]
			alt := KimuraSubstitute(orig, src)
			if alt == orig {
				continue
			}
			next[i] = alt

			ctxLabel := ContextNonCoding
			if i < len(current)-nonCodingTail {
				ctxLabel = ContextCoding
			}
			res.Mutations = append(res.Mutations, MutationEvent{
				Generation:      gen,
				Position:        i,
				Type:            Substitution,
				Original:        string(orig),
				Mutated:         string(alt),
				AminoAcidChange: annotate.AminoAcidChange(current, i, alt),
				Context:         ctxLabel,
			})
		}
		current = string(next)

		res.FitnessHistory = append(res.FitnessHistory, FitnessPoint{
			Generation: gen,
			Fitness:    Fitness(current, res.Mutations),
		})
	}

	res.FinalSequence = current
	return res, nil
}

// KimuraSubstitute draws a replacement for base under the Kimura
// two-parameter model: the transition partner (A<->G, C<->T) with probability
// 0.66, otherwise one of the two transversion partners. Bases outside ACGT
// come back unchanged after the first draw.
func KimuraSubstitute(base byte, src rng.Source) byte {
	u := src.Float64()
	var transition byte
	var transversions [2]byte
	switch base {
	case 'A':
		transition, transversions = 'G', [2]byte{'C', 'T'}
	case 'G':
		transition, transversions = 'A', [2]byte{'C', 'T'}
	case 'C':
		transition, transversions = 'T', [2]byte{'A', 'G'}
	case 'T':
		transition, transversions = 'C', [2]byte{'A', 'G'}
	default:
		return base
	}
	if u < transitionProbability {
		return transition
	}
	return transversions[rng.Intn(src, 2)]
}
