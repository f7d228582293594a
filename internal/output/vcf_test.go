package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-mutsim/internal/diff"
)

// vcfBody writes the differences of query against ref and returns the
// non-header lines.
func vcfBody(t *testing.T, ref, query string) []string {
	t.Helper()
	var buf bytes.Buffer
	vw := NewVCFWriter(&buf, "chr1", ref)
	require.NoError(t, vw.WriteHeader())
	require.NoError(t, vw.WriteRecords(diff.Detect(query, ref)))
	require.NoError(t, vw.Flush())

	var body []string
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		if !strings.HasPrefix(line, "#") {
			body = append(body, line)
		}
	}
	return body
}

func TestVCFWriter_Header(t *testing.T) {
	var buf bytes.Buffer
	vw := NewVCFWriter(&buf, "chr1", "ACGT")
	require.NoError(t, vw.WriteHeader())
	require.NoError(t, vw.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, "##fileformat=VCFv4.2", lines[0])
	assert.Contains(t, lines, "##contig=<ID=chr1,length=4>")
	assert.Equal(t, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO", lines[len(lines)-1])
}

func TestVCFWriter_Records(t *testing.T) {
	tests := []struct {
		name       string
		ref, query string
		want       []string
	}{
		{
			name: "substitution",
			ref:  "ACGT", query: "ATGT",
			want: []string{"chr1\t2\t.\tC\tT\t.\tPASS\tTYPE=substitution"},
		},
		{
			name: "tail deletion",
			ref:  "ACGT", query: "ACG",
			want: []string{"chr1\t3\t.\tGT\tG\t.\tPASS\tTYPE=deletion;LEN=1"},
		},
		{
			name: "tail insertion run",
			ref:  "ACG", query: "ACGTT",
			want: []string{"chr1\t3\t.\tG\tGTT\t.\tPASS\tTYPE=insertion;LEN=2"},
		},
		{
			name: "cascade then deletion",
			ref:  "ACGTA", query: "AGTA",
			want: []string{
				"chr1\t2\t.\tC\tG\t.\tPASS\tTYPE=substitution",
				"chr1\t3\t.\tG\tT\t.\tPASS\tTYPE=substitution",
				"chr1\t4\t.\tT\tA\t.\tPASS\tTYPE=substitution",
				"chr1\t4\t.\tTA\tT\t.\tPASS\tTYPE=deletion;LEN=1",
			},
		},
		{
			name: "everything deleted",
			ref:  "AC", query: "",
			want: []string{"chr1\t1\t.\tAC\t<DEL>\t.\tPASS\tTYPE=deletion;LEN=2"},
		},
		{
			name: "insertion into empty reference",
			ref:  "", query: "GA",
			want: []string{"chr1\t0\t.\tN\tNGA\t.\tPASS\tTYPE=insertion;LEN=2"},
		},
		{
			name: "identical",
			ref:  "ACGT", query: "ACGT",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vcfBody(t, tt.ref, tt.query))
		})
	}
}
