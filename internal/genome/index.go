package genome

import "sort"

// FeatureIndex answers "first feature containing pos" queries in
// O(log n + k) using a sorted slice with a prefix-max of end coordinates.
// "First" means lowest position in the original feature list, so results match
// a linear scan over that list. Features are never modified after build.
type FeatureIndex struct {
	intervals []interval
	maxEnd    []int // maxEnd[i] = max(end) for intervals[:i+1]
}

type interval struct {
	start   int // 0-based inclusive
	end     int // 0-based exclusive
	order   int // index in the input list
	feature *Feature
}

// BuildFeatureIndex indexes features. Features that cannot contain any position
// are left out.
func BuildFeatureIndex(features []Feature) *FeatureIndex {
	intervals := make([]interval, 0, len(features))
	for i := range features {
		f := &features[i]
		if !f.Valid() {
			continue
		}
		intervals = append(intervals, interval{start: f.Start - 1, end: f.End, order: i, feature: f})
	}
	if len(intervals) == 0 {
		return &FeatureIndex{}
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	maxEnd := make([]int, len(intervals))
	maxEnd[0] = intervals[0].end
	for i := 1; i < len(intervals); i++ {
		maxEnd[i] = max(maxEnd[i-1], intervals[i].end)
	}

	return &FeatureIndex{intervals: intervals, maxEnd: maxEnd}
}

// Len returns the number of indexed features.
func (x *FeatureIndex) Len() int {
	return len(x.intervals)
}

// First returns the earliest-listed feature containing the 0-based position pos.
func (x *FeatureIndex) First(pos int) (*Feature, bool) {
	var best *interval
	x.scan(pos, func(iv *interval) {
		if best == nil || iv.order < best.order {
			best = iv
		}
	})
	if best == nil {
		return nil, false
	}
	return best.feature, true
}

// Overlaps returns every feature containing pos, in original list order.
func (x *FeatureIndex) Overlaps(pos int) []*Feature {
	var hits []*interval
	x.scan(pos, func(iv *interval) { hits = append(hits, iv) })
	sort.Slice(hits, func(i, j int) bool { return hits[i].order < hits[j].order })

	out := make([]*Feature, len(hits))
	for i, iv := range hits {
		out[i] = iv.feature
	}
	return out
}

func (x *FeatureIndex) scan(pos int, fn func(*interval)) {
	// hi is the first index with start > pos; candidates are [0, hi).
	hi := sort.Search(len(x.intervals), func(i int) bool {
		return x.intervals[i].start > pos
	})

	for i := hi - 1; i >= 0; i-- {
		// No interval in [0, i] reaches past pos.
		if x.maxEnd[i] <= pos {
			break
		}
		if x.intervals[i].end > pos {
			fn(&x.intervals[i])
		}
	}
}
