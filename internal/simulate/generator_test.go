package simulate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-mutsim/internal/annotate"
	"github.com/inodb/vibe-mutsim/internal/genome"
	"github.com/inodb/vibe-mutsim/internal/rng"
)

func baseParams() Params {
	return Params{
		Sequence:       testSequence(600, 11),
		Seed:           42,
		NumGenerations: 8,
		Rates:          Rates{Substitution: 0.01, Insertion: 0.005, Deletion: 0.005},
		Annotations: []genome.Feature{
			{Name: "geneA", Type: "CDS", Start: 1, End: 300, Strand: 1},
			{Name: "prom", Type: "promoter", Start: 301, End: 400, Strand: 1},
		},
	}
}

func runOK(t *testing.T, p Params) *Result {
	t.Helper()
	res, err := NewGenerator().Run(context.Background(), p)
	require.NoError(t, err)
	return res
}

// replay applies a generation's records with splice semantics and checks
// each record against the array it was applied to.
func replay(t *testing.T, seq string, recs []MutationRecord) string {
	t.Helper()
	buf := []byte(seq)
	for _, r := range recs {
		switch r.Kind {
		case Substitution:
			parts := strings.Split(r.Change, "→")
			require.Len(t, parts, 2, "change %q", r.Change)
			require.Equal(t, parts[0], string(buf[r.Index]), "record %+v", r)
			require.NotEqual(t, parts[0], parts[1])
			buf[r.Index] = parts[1][0]
		case Insertion:
			require.True(t, strings.HasPrefix(r.Change, "+"))
			buf = append(buf[:r.Index], append([]byte{r.Change[1]}, buf[r.Index:]...)...)
		case Deletion:
			require.True(t, strings.HasPrefix(r.Change, "-"))
			require.Equal(t, r.Change[1], buf[r.Index], "record %+v", r)
			buf = append(buf[:r.Index], buf[r.Index+1:]...)
		}
	}
	return string(buf)
}

func byGeneration(log []MutationRecord) map[int][]MutationRecord {
	out := make(map[int][]MutationRecord)
	for _, r := range log {
		out[r.Generation] = append(out[r.Generation], r)
	}
	return out
}

func TestRun_Deterministic(t *testing.T) {
	p := baseParams()
	a := runOK(t, p)
	b := runOK(t, p)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("identical inputs produced different results (-a +b):\n%s", diff)
	}
	assert.NotEmpty(t, a.MutationLog)
}

func TestRun_SeedChangesOutcome(t *testing.T) {
	p := baseParams()
	a := runOK(t, p)
	p.Seed = 43
	b := runOK(t, p)
	assert.NotEqual(t, a.CurrentSeq, b.CurrentSeq)
}

func TestRun_AlgorithmChangesOutcome(t *testing.T) {
	p := baseParams()
	a := runOK(t, p)

	g := NewGenerator()
	g.SetAlgorithm(rng.AlgorithmLCG)
	b, err := g.Run(context.Background(), p)
	require.NoError(t, err)
	assert.NotEqual(t, a.CurrentSeq, b.CurrentSeq)
}

func TestRun_ZeroRates(t *testing.T) {
	p := baseParams()
	p.Rates = Rates{}
	res := runOK(t, p)

	assert.Equal(t, p.Sequence, res.CurrentSeq)
	assert.Empty(t, res.MutationLog)
	require.Len(t, res.Stats, p.NumGenerations)
	for i, s := range res.Stats {
		assert.Equal(t, i+1, s.Generation)
		assert.Equal(t, len(p.Sequence), s.PopulationSize)
		assert.Equal(t, 0, s.MutationCount)
		assert.Equal(t, 0.0, s.CodingDensity)
	}
	assert.Equal(t, Summary{TotalMutations: 0, FinalLength: len(p.Sequence), AvgMutationsPerGen: 0, Fitness: res.Summary.Fitness}, res.Summary)
}

func TestRun_ReplayReproducesSequence(t *testing.T) {
	p := baseParams()
	p.Rates = Rates{Substitution: 0.02, Insertion: 0.02, Deletion: 0.02}
	res := runOK(t, p)

	gens := byGeneration(res.MutationLog)
	seq := p.Sequence
	for g := 1; g <= p.NumGenerations; g++ {
		seq = replay(t, seq, gens[g])
		assert.Equal(t, len(seq), res.Stats[g-1].PopulationSize, "generation %d", g)
	}
	assert.Equal(t, res.CurrentSeq, seq)
}

func TestRun_OffsetBookkeeping(t *testing.T) {
	p := baseParams()
	p.Rates = Rates{Substitution: 0.01, Insertion: 0.03, Deletion: 0.03}
	res := runOK(t, p)

	for g, recs := range byGeneration(res.MutationLog) {
		offset := 0
		lastPos := 0
		for _, r := range recs {
			assert.Greater(t, r.Position, lastPos, "generation %d positions ascend", g)
			lastPos = r.Position
			assert.Equal(t, r.Position-1+offset, r.Index, "generation %d record %+v", g, r)
			switch r.Kind {
			case Insertion:
				offset++
			case Deletion:
				offset--
			}
		}
	}
}

func TestRun_LengthInvariant(t *testing.T) {
	p := baseParams()
	p.Rates = Rates{Substitution: 0.01, Insertion: 0.02, Deletion: 0.01}
	res := runOK(t, p)

	gens := byGeneration(res.MutationLog)
	prev := len(p.Sequence)
	for _, s := range res.Stats {
		ins, del := 0, 0
		for _, r := range gens[s.Generation] {
			switch r.Kind {
			case Insertion:
				ins++
			case Deletion:
				del++
			}
		}
		assert.Equal(t, prev+ins-del, s.PopulationSize, "generation %d", s.Generation)
		prev = s.PopulationSize
	}
	assert.Equal(t, prev, res.Summary.FinalLength)
	assert.Equal(t, prev, len(res.CurrentSeq))
}

func TestRun_SingleKindRates(t *testing.T) {
	tests := []struct {
		name  string
		rates Rates
		kind  Kind
		delta int
	}{
		{"substitution only", Rates{Substitution: 0.05}, Substitution, 0},
		{"insertion only", Rates{Insertion: 0.05}, Insertion, 1},
		{"deletion only", Rates{Deletion: 0.05}, Deletion, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			p.Rates = tt.rates
			res := runOK(t, p)
			require.NotEmpty(t, res.MutationLog)

			for _, r := range res.MutationLog {
				assert.Equal(t, tt.kind, r.Kind)
			}
			assert.Equal(t, len(p.Sequence)+tt.delta*len(res.MutationLog), len(res.CurrentSeq))
		})
	}
}

func TestRun_CountNeverExceedsExpected(t *testing.T) {
	p := baseParams()
	p.Rates = Rates{Substitution: 0.2}
	res := runOK(t, p)

	for _, s := range res.Stats {
		expected := int(float64(len(p.Sequence)) * p.Rates.Total())
		assert.LessOrEqual(t, s.MutationCount, expected)
		assert.Positive(t, s.MutationCount)
	}
}

func TestRun_CodingDensityIsCumulative(t *testing.T) {
	p := baseParams()
	res := runOK(t, p)

	gens := byGeneration(res.MutationLog)
	coding, total := 0, 0
	for _, s := range res.Stats {
		for _, r := range gens[s.Generation] {
			total++
			if r.IsCoding {
				coding++
			}
		}
		want := float64(coding) / float64(max(total, 1))
		assert.InDelta(t, want, s.CodingDensity, 1e-12, "generation %d", s.Generation)
	}
}

func TestRun_CodingDensityWithoutAnnotations(t *testing.T) {
	p := baseParams()
	p.Annotations = nil
	res := runOK(t, p)

	require.NotEmpty(t, res.MutationLog)
	for _, r := range res.MutationLog {
		assert.Equal(t, annotate.Intergenic, r.Feature)
		assert.Equal(t, annotate.Intergenic, r.Type)
		assert.False(t, r.IsCoding)
	}
	for _, s := range res.Stats {
		assert.Equal(t, 0.0, s.CodingDensity)
	}
}

func TestRun_ClassificationUsesPreMutationPosition(t *testing.T) {
	p := baseParams()
	res := runOK(t, p)

	for _, r := range res.MutationLog {
		want := annotate.Classify(r.Position-1, p.Annotations)
		assert.Equal(t, want, r.Classification, "record %+v", r)
	}
}

func TestRun_FeatureTypeDispatch(t *testing.T) {
	p := baseParams()
	p.Dispatch = DispatchFeatureType
	res := runOK(t, p)

	// CDS/promoter/intergenic never name a mutation kind.
	assert.Empty(t, res.MutationLog)
	assert.Equal(t, p.Sequence, res.CurrentSeq)
	total := 0
	for _, s := range res.Stats {
		total += s.MutationCount
	}
	assert.Positive(t, total, "candidates are still counted")

	p.Annotations = []genome.Feature{{Name: "del", Type: "deletion", Start: 1, End: len(p.Sequence)}}
	res = runOK(t, p)
	require.NotEmpty(t, res.MutationLog)
	for _, r := range res.MutationLog {
		assert.Equal(t, Deletion, r.Kind)
	}
	assert.Less(t, len(res.CurrentSeq), len(p.Sequence))
}

func TestRun_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		want   error
	}{
		{"empty sequence", func(p *Params) { p.Sequence = "" }, ErrEmptySequence},
		{"negative generations", func(p *Params) { p.NumGenerations = -1 }, ErrInvalidParams},
		{"negative rate", func(p *Params) { p.Rates.Insertion = -0.1 }, ErrInvalidParams},
		{"bad dispatch", func(p *Params) { p.Dispatch = "coin-flip" }, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			_, err := NewGenerator().Run(context.Background(), p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_Warnings(t *testing.T) {
	p := baseParams()
	p.Sequence = "ACGTNNNNAC"
	res := runOK(t, p)
	assert.Equal(t, []string{WarnShortSequence, WarnHighN}, res.Warnings)

	p = baseParams()
	res = runOK(t, p)
	assert.Empty(t, res.Warnings)
}

func TestRun_ZeroGenerations(t *testing.T) {
	p := baseParams()
	p.NumGenerations = 0
	res := runOK(t, p)

	assert.Equal(t, p.Sequence, res.CurrentSeq)
	assert.Empty(t, res.Stats)
	assert.Equal(t, 0.0, res.Summary.AvgMutationsPerGen)
	assert.Equal(t, []string{WarnZeroGeneration}, res.Warnings)
}

func TestRun_SummaryAverage(t *testing.T) {
	p := baseParams()
	res := runOK(t, p)

	want, ok := AvgPerGeneration(len(res.MutationLog), p.NumGenerations)
	require.True(t, ok)
	assert.Equal(t, want, res.Summary.AvgMutationsPerGen)
	assert.Equal(t, len(res.MutationLog), res.Summary.TotalMutations)
}

func TestRun_ReferencePreview(t *testing.T) {
	p := baseParams()
	res := runOK(t, p)
	assert.Equal(t, p.Sequence[:100]+"...", res.ReferenceSeq)

	p.Sequence = "ACGT"
	p.Rates = Rates{}
	res = runOK(t, p)
	assert.Equal(t, "ACGT...", res.ReferenceSeq)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator().Run(ctx, baseParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_DeletionsNeverUnderflow(t *testing.T) {
	p := Params{
		Sequence:       "ACGTACGTAC",
		Seed:           5,
		NumGenerations: 50,
		Rates:          Rates{Deletion: 0.9},
	}
	res := runOK(t, p)

	assert.GreaterOrEqual(t, len(res.CurrentSeq), 0)
	for _, s := range res.Stats {
		assert.GreaterOrEqual(t, s.PopulationSize, 0)
	}
}

func TestAvgPerGeneration(t *testing.T) {
	avg, ok := AvgPerGeneration(10, 3)
	assert.True(t, ok)
	assert.Equal(t, 3.33, avg)

	avg, ok = AvgPerGeneration(10, 0)
	assert.False(t, ok)
	assert.Equal(t, 0.0, avg)
}

func TestInputWarnings(t *testing.T) {
	assert.Empty(t, InputWarnings(strings.Repeat("A", 200)))
	assert.Equal(t, []string{WarnShortSequence}, InputWarnings(strings.Repeat("A", 199)))

	long := strings.Repeat("A", 180) + strings.Repeat("N", 20)
	assert.Empty(t, InputWarnings(long), "exactly 10% N is not high")
	assert.Equal(t, []string{WarnHighN}, InputWarnings(long+"N"))
}

func TestParseDispatchMode(t *testing.T) {
	m, err := ParseDispatchMode("")
	require.NoError(t, err)
	assert.Equal(t, DispatchRate, m)

	m, err = ParseDispatchMode("Feature-Type")
	require.NoError(t, err)
	assert.Equal(t, DispatchFeatureType, m)

	_, err = ParseDispatchMode("other")
	assert.ErrorIs(t, err, ErrInvalidParams)
}
