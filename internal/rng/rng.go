// Package rng provides seedable, reproducible pseudo-random streams.
//
// Every stream is owned by a single simulation run. Nothing here touches
// process-wide state, so two runs with the same seed and call order always
// observe the same values.
package rng

import (
	"fmt"
	"strings"
)

// Source produces a deterministic stream of floats in [0, 1).
type Source interface {
	Float64() float64
}

// Algorithm names a stream implementation.
type Algorithm string

const (
	// AlgorithmMulberry32 is the canonical generator for new code.
	AlgorithmMulberry32 Algorithm = "mulberry32"
	// AlgorithmLCG is the Park-Miller minimal standard generator used by the
	// per-base engine.
	AlgorithmLCG Algorithm = "lcg"
)

// ParseAlgorithm resolves a user-supplied algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(AlgorithmMulberry32), "mix", "xorshift":
		return AlgorithmMulberry32, nil
	case string(AlgorithmLCG), "park-miller", "parkmiller":
		return AlgorithmLCG, nil
	default:
		return "", fmt.Errorf("unknown rng algorithm %q", s)
	}
}

// New creates a fresh stream of the given algorithm.
func New(alg Algorithm, seed int64) Source {
	if alg == AlgorithmLCG {
		return NewParkMiller(seed)
	}
	return NewMulberry32(seed)
}

// Intn maps the next draw of src onto [0, n). Returns 0 when n <= 0.
func Intn(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Mulberry32 advances a 32-bit state by a fixed odd constant and bit-mixes it.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 seeds a Mulberry32 stream. Seeds are reduced modulo 2^32.
func NewMulberry32(seed int64) *Mulberry32 {
	return &Mulberry32{state: uint32(seed)}
}

// Float64 returns the next value in [0, 1).
func (m *Mulberry32) Float64() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

const (
	lcgModulus    = 2147483647 // 2^31 - 1
	lcgMultiplier = 16807
)

// ParkMiller is the multiplicative linear congruential generator
// state = state * 16807 mod (2^31 - 1).
type ParkMiller struct {
	state int64
}

// NewParkMiller seeds a ParkMiller stream. Non-positive residues are shifted
// into the valid state range [1, 2^31-2].
func NewParkMiller(seed int64) *ParkMiller {
	s := seed % lcgModulus
	if s <= 0 {
		s += lcgModulus - 1
	}
	return &ParkMiller{state: s}
}

// Float64 returns the next value in [0, 1).
func (p *ParkMiller) Float64() float64 {
	p.state = p.state * lcgMultiplier % lcgModulus
	return float64(p.state-1) / float64(lcgModulus-1)
}
