package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ref   string
		want  []Record
	}{
		{"identical", "ACGT", "ACGT", []Record{}},
		{"both empty", "", "", []Record{}},
		{"trailing insertion", "ACGT", "ACG", []Record{{Pos: 4, Ref: "-", Alt: "T", Type: Insertion}}},
		{"trailing deletion", "ACG", "ACGT", []Record{{Pos: 4, Ref: "T", Alt: "-", Type: Deletion}}},
		{"substitution", "ACTT", "ACGT", []Record{{Pos: 3, Ref: "G", Alt: "T", Type: Substitution}}},
		{"empty query", "", "AC", []Record{
			{Pos: 1, Ref: "A", Alt: "-", Type: Deletion},
			{Pos: 2, Ref: "C", Alt: "-", Type: Deletion},
		}},
		{"empty reference", "G", "", []Record{{Pos: 1, Ref: "-", Alt: "G", Type: Insertion}}},
		{"upstream indel cascades", "AACGT", "ACGT", []Record{
			{Pos: 2, Ref: "C", Alt: "A", Type: Substitution},
			{Pos: 3, Ref: "G", Alt: "C", Type: Substitution},
			{Pos: 4, Ref: "T", Alt: "G", Type: Substitution},
			{Pos: 5, Ref: "-", Alt: "T", Type: Insertion},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.query, tt.ref))
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(Detect("AACGT", "ACGT"))
	assert.Equal(t, Summary{Substitutions: 3, Insertions: 1, Total: 4}, s)
	assert.Equal(t, Summary{}, Summarize(nil))
}
