// Package genome provides sequence and feature annotation loading.
package genome

// Feature is a single GFF/GTF annotation record.
// Start and End are 1-based as written in the source file.
type Feature struct {
	SeqName string `json:"seqname"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Strand  int8   `json:"strand"`
}

// Contains reports whether the 0-based position pos lies inside the feature.
// The check is half-open: pos >= Start-1 and pos < End.
func (f *Feature) Contains(pos int) bool {
	return pos >= f.Start-1 && pos < f.End
}

// Valid reports whether the feature spans at least one position.
func (f *Feature) Valid() bool {
	return f.Start-1 < f.End
}
