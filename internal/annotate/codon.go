// Package annotate classifies sequence positions against feature annotations
// and translates codons.
package annotate

import "strings"

// Standard genetic code: DNA codon to amino acid (single letter).
var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// Stop is the amino-acid symbol for TAA, TAG and TGA.
const Stop byte = '*'

// NoChange is reported by AminoAcidChange for synonymous substitutions.
const NoChange = "none"

// TranslateCodon translates a DNA codon to its amino acid.
// Returns 'X' for unknown codons and '*' for stop codons.
func TranslateCodon(codon string) byte {
	if len(codon) != 3 {
		return 'X'
	}
	if aa, ok := codonTable[codon]; ok {
		return aa
	}
	if aa, ok := codonTable[strings.ToUpper(codon)]; ok {
		return aa
	}
	return 'X'
}

// IsStopCodon returns true if the codon is a stop codon (TAA, TAG, TGA).
func IsStopCodon(codon string) bool {
	return TranslateCodon(codon) == Stop
}

// Codons returns all 64 codons over {A,C,G,T}.
func Codons() []string {
	const bases = "TCAG"
	out := make([]string, 0, 64)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				out = append(out, string([]byte{bases[i], bases[j], bases[k]}))
			}
		}
	}
	return out
}

// MutateCodon applies a mutation to a codon at a specific position.
// positionInCodon is 0, 1, or 2 (first, second, or third base).
func MutateCodon(codon string, positionInCodon int, newBase byte) string {
	if len(codon) != 3 || positionInCodon < 0 || positionInCodon > 2 {
		return codon
	}
	var buf [3]byte
	copy(buf[:], codon)
	buf[positionInCodon] = newBase
	return string(buf[:])
}

// CodonAt returns the frame-0 codon containing the 0-based position pos, or ""
// when the codon runs past the end of seq.
func CodonAt(seq string, pos int) string {
	if pos < 0 {
		return ""
	}
	start := (pos / 3) * 3
	if start+3 > len(seq) {
		return ""
	}
	return seq[start : start+3]
}

// AminoAcidChange reports the effect of replacing seq[pos] with newBase on the
// frame-0 codon containing pos: "X->Y" for a missense or nonsense change, or
// NoChange when the translation is unchanged or the codon is incomplete.
func AminoAcidChange(seq string, pos int, newBase byte) string {
	codon := CodonAt(seq, pos)
	if codon == "" {
		return NoChange
	}
	before := TranslateCodon(codon)
	after := TranslateCodon(MutateCodon(codon, pos%3, newBase))
	if before == after {
		return NoChange
	}
	return string([]byte{before, '-', '>', after})
}

// CountStopCodons counts stop codons in non-overlapping windows of three
// starting at position 0. A trailing partial codon is ignored.
func CountStopCodons(seq string) int {
	n := 0
	for i := 0; i+3 <= len(seq); i += 3 {
		if IsStopCodon(seq[i : i+3]) {
			n++
		}
	}
	return n
}
