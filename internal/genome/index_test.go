package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeatureIndex_Empty(t *testing.T) {
	idx := BuildFeatureIndex(nil)
	_, ok := idx.First(100)
	assert.False(t, ok)
	assert.Empty(t, idx.Overlaps(100))
	assert.Equal(t, 0, idx.Len())
}

func TestFeatureIndex_Boundaries(t *testing.T) {
	idx := BuildFeatureIndex([]Feature{{Name: "A", Start: 101, End: 200}})

	f, ok := idx.First(100)
	require.True(t, ok)
	assert.Equal(t, "A", f.Name)

	_, ok = idx.First(199)
	assert.True(t, ok)
	_, ok = idx.First(200)
	assert.False(t, ok, "end is exclusive")
	_, ok = idx.First(99)
	assert.False(t, ok)
}

func TestFeatureIndex_FirstInListOrder(t *testing.T) {
	feats := []Feature{
		{Name: "late-start", Start: 50, End: 100},
		{Name: "early-start", Start: 1, End: 100},
	}
	idx := BuildFeatureIndex(feats)

	f, ok := idx.First(60)
	require.True(t, ok)
	assert.Equal(t, "late-start", f.Name)

	names := []string{}
	for _, o := range idx.Overlaps(60) {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"late-start", "early-start"}, names)
}

func TestFeatureIndex_LongIntervalBeforeShort(t *testing.T) {
	feats := []Feature{
		{Name: "long", Start: 101, End: 500},
		{Name: "short", Start: 106, End: 110},
	}
	idx := BuildFeatureIndex(feats)

	f, ok := idx.First(400)
	require.True(t, ok)
	assert.Equal(t, "long", f.Name)
}

func TestFeatureIndex_SkipsInvalid(t *testing.T) {
	idx := BuildFeatureIndex([]Feature{{Name: "bad", Start: 40, End: 10}, {Name: "zero", Start: 0, End: 0}})
	assert.Equal(t, 0, idx.Len())
}

func TestFeatureIndex_MatchesLinearScan(t *testing.T) {
	feats := []Feature{
		{Name: "A", Start: 1000, End: 5000},
		{Name: "B", Start: 2000, End: 3000},
		{Name: "C", Start: 4000, End: 8000},
		{Name: "D", Start: 6000, End: 7000},
		{Name: "E", Start: 9000, End: 10000},
		{Name: "F", Start: 1, End: 12000},
		{Name: "G", Start: 7000, End: 6000},
	}
	idx := BuildFeatureIndex(feats)

	for pos := 0; pos <= 12500; pos += 250 {
		var want *Feature
		for i := range feats {
			if feats[i].Contains(pos) {
				want = &feats[i]
				break
			}
		}
		got, ok := idx.First(pos)
		if want == nil {
			assert.False(t, ok, "pos=%d", pos)
			continue
		}
		require.True(t, ok, "pos=%d", pos)
		assert.Equal(t, want.Name, got.Name, "pos=%d", pos)
	}
}
