package genome

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGFF_SingleCDS(t *testing.T) {
	feats, err := ParseGFF(strings.NewReader("chr1\t.\tCDS\t10\t50\t.\t+\t.\tName=geneA;"))
	require.NoError(t, err)
	require.Len(t, feats, 1)

	assert.Equal(t, Feature{
		SeqName: "chr1",
		Type:    "CDS",
		Name:    "geneA",
		Start:   10,
		End:     50,
		Strand:  1,
	}, feats[0])
}

func TestParseGFF_SkipsCommentsBlankAndShortLines(t *testing.T) {
	content := "##gff-version 3\n" +
		"\n" +
		"   \n" +
		"chr1\t.\tgene\t1\t100\n" +
		"chr1\tsrc\tgene\t1\t100\t.\t-\t.\tID=g1;gene_name=BRCA1\n"

	feats, err := ParseGFF(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, feats, 1)
	assert.Equal(t, "BRCA1", feats[0].Name)
	assert.Equal(t, int8(-1), feats[0].Strand)
}

func TestParseGFF_NameExtraction(t *testing.T) {
	tests := []struct {
		name  string
		attrs string
		want  string
	}{
		{"Name", "ID=x;Name=geneA;", "geneA"},
		{"gene_name", "gene_name=TP53", "TP53"},
		{"locus_tag", "locus_tag=b0001;product=thr", "b0001"},
		{"first match wins", "locus_tag=b1;Name=n1", "b1"},
		{"url decoded", "Name=my%20gene", "my gene"},
		{"bad escape kept raw", "Name=50%", "50%"},
		{"fallback", "ID=cds0", "CDS_10"},
		{"gtf style has no equals", `gene_id "G1"; gene_name "KRAS";`, "CDS_10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := "chr1\t.\tCDS\t10\t20\t.\t+\t.\t" + tt.attrs
			feats, err := ParseGFF(strings.NewReader(line))
			require.NoError(t, err)
			require.Len(t, feats, 1)
			assert.Equal(t, tt.want, feats[0].Name)
		})
	}
}

func TestParseGFF_StrandAndBadCoords(t *testing.T) {
	content := "c\t.\texon\tx\t20\t.\t.\t.\t.\n" +
		"c\t.\texon\t5\t20\t.\t?\t.\t.\n"
	feats, err := ParseGFF(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, feats, 2)

	assert.Equal(t, 0, feats[0].Start)
	assert.Equal(t, int8(-1), feats[0].Strand)
	assert.Equal(t, int8(-1), feats[1].Strand)
}

func TestLoadGFF_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ann.gff3")
	require.NoError(t, os.WriteFile(path, []byte("chr1\t.\tgene\t1\t9\t.\t+\t.\tName=g\n"), 0o644))

	feats, err := LoadGFF(path)
	require.NoError(t, err)
	require.Len(t, feats, 1)
	assert.Equal(t, "g", feats[0].Name)
}

func TestFeatureContains(t *testing.T) {
	f := Feature{Start: 10, End: 50}

	assert.True(t, f.Contains(9), "start-1 inclusive")
	assert.True(t, f.Contains(49))
	assert.False(t, f.Contains(50), "end exclusive")
	assert.False(t, f.Contains(8))

	assert.False(t, (&Feature{Start: 30, End: 10}).Valid())
}
