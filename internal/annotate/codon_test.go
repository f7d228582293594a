package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateCodon(t *testing.T) {
	tests := []struct {
		name  string
		codon string
		want  byte
	}{
		// Standard amino acids
		{"ATG -> Met (start)", "ATG", 'M'},
		{"GGT -> Gly", "GGT", 'G'},
		{"TGT -> Cys", "TGT", 'C'},
		{"TTT -> Phe", "TTT", 'F'},
		{"AAA -> Lys", "AAA", 'K'},

		// Stop codons
		{"TAA -> Stop", "TAA", '*'},
		{"TAG -> Stop", "TAG", '*'},
		{"TGA -> Stop", "TGA", '*'},

		// Case insensitivity
		{"lowercase atg", "atg", 'M'},
		{"mixed case AtG", "AtG", 'M'},

		// Invalid codons
		{"too short", "AT", 'X'},
		{"too long", "ATGG", 'X'},
		{"ambiguous base", "ANG", 'X'},
		{"empty", "", 'X'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateCodon(tt.codon)
			if got != tt.want {
				t.Errorf("TranslateCodon(%q) = %c, want %c", tt.codon, got, tt.want)
			}
		})
	}
}

func TestCodonTableComplete(t *testing.T) {
	codons := Codons()
	assert.Len(t, codons, 64)

	stops := 0
	seen := make(map[string]bool)
	for _, c := range codons {
		assert.False(t, seen[c], "duplicate codon %s", c)
		seen[c] = true

		aa := TranslateCodon(c)
		assert.NotEqual(t, byte('X'), aa, "codon %s has no translation", c)
		if aa == Stop {
			stops++
		}
	}
	assert.Equal(t, 3, stops)
}

func TestIsStopCodon(t *testing.T) {
	tests := []struct {
		codon string
		want  bool
	}{
		{"TAA", true},
		{"TAG", true},
		{"TGA", true},
		{"ATG", false},
		{"GGT", false},
		{"taa", true},
	}

	for _, tt := range tests {
		t.Run(tt.codon, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStopCodon(tt.codon))
		})
	}
}

func TestMutateCodon(t *testing.T) {
	assert.Equal(t, "TGT", MutateCodon("GGT", 0, 'T'))
	assert.Equal(t, "GCT", MutateCodon("GGT", 1, 'C'))
	assert.Equal(t, "GGA", MutateCodon("GGT", 2, 'A'))
	assert.Equal(t, "GGT", MutateCodon("GGT", 3, 'A'), "out of range position")
	assert.Equal(t, "GG", MutateCodon("GG", 0, 'A'), "short codon")
}

func TestCodonAt(t *testing.T) {
	seq := "ATGGGTTA"
	assert.Equal(t, "ATG", CodonAt(seq, 0))
	assert.Equal(t, "ATG", CodonAt(seq, 2))
	assert.Equal(t, "GGT", CodonAt(seq, 4))
	assert.Equal(t, "", CodonAt(seq, 6), "partial trailing codon")
	assert.Equal(t, "", CodonAt(seq, -1))
}

func TestAminoAcidChange(t *testing.T) {
	tests := []struct {
		name    string
		seq     string
		pos     int
		newBase byte
		want    string
	}{
		{"missense G12C", "GGT", 0, 'T', "G->C"},
		{"synonymous wobble", "GGT", 2, 'C', NoChange},
		{"nonsense", "TGG", 2, 'A', "W->*"},
		{"second codon", "ATGAAA", 4, 'G', "K->R"},
		{"incomplete codon", "ATGAA", 4, 'G', NoChange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AminoAcidChange(tt.seq, tt.pos, tt.newBase))
		})
	}
}

func TestCountStopCodons(t *testing.T) {
	assert.Equal(t, 0, CountStopCodons(""))
	assert.Equal(t, 1, CountStopCodons("TAA"))
	assert.Equal(t, 2, CountStopCodons("TAGATGTGA"))
	assert.Equal(t, 0, CountStopCodons("ATAAG"), "out-of-frame stop ignored")
	assert.Equal(t, 1, CountStopCodons("TAATA"), "partial trailing codon ignored")
}
