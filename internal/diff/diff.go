// Package diff compares a query sequence against a reference position by
// position.
//
// No alignment is performed. A single upstream insertion or deletion shifts
// every later base, so each downstream position that no longer lines up is
// reported as its own mismatch.
package diff

// Gap marks a base absent from one of the two sequences.
const Gap = "-"

// Type classifies a positional difference.
type Type string

const (
	Substitution Type = "substitution"
	Insertion    Type = "insertion"
	Deletion     Type = "deletion"
)

// Record is a single positional difference. Pos is 1-based.
type Record struct {
	Pos  int    `json:"pos"`
	Ref  string `json:"ref"`
	Alt  string `json:"alt"`
	Type Type   `json:"type"`
}

// Detect lists every position where query and ref differ. A position past the
// end of ref is an insertion, past the end of query a deletion, anything else
// a substitution. Detect never fails; two empty inputs give an empty list.
func Detect(query, ref string) []Record {
	n := max(len(query), len(ref))
	records := []Record{}

	for i := 0; i < n; i++ {
		q, qok := baseAt(query, i)
		r, rok := baseAt(ref, i)
		if qok && rok && q == r {
			continue
		}

		rec := Record{Pos: i + 1, Ref: Gap, Alt: Gap}
		if rok {
			rec.Ref = string(r)
		}
		if qok {
			rec.Alt = string(q)
		}

		switch {
		case !rok:
			rec.Type = Insertion
		case !qok:
			rec.Type = Deletion
		default:
			rec.Type = Substitution
		}
		records = append(records, rec)
	}

	return records
}

func baseAt(s string, i int) (byte, bool) {
	if i < len(s) {
		return s[i], true
	}
	return 0, false
}

// Summary tallies records by type.
type Summary struct {
	Substitutions int `json:"substitutions"`
	Insertions    int `json:"insertions"`
	Deletions     int `json:"deletions"`
	Total         int `json:"total"`
}

// Summarize counts records by type.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		switch r.Type {
		case Substitution:
			s.Substitutions++
		case Insertion:
			s.Insertions++
		case Deletion:
			s.Deletions++
		}
	}
	s.Total = len(records)
	return s
}
