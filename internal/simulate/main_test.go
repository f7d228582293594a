package simulate

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/inodb/vibe-mutsim/internal/rng"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testSequence builds a deterministic ACGT sequence of length n.
func testSequence(n int, seed int64) string {
	src := rng.NewMulberry32(seed)
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = "ACGT"[rng.Intn(src, 4)]
	}
	return string(buf)
}

// fixedSource replays a fixed list of draws.
type fixedSource struct {
	vals []float64
	i    int
}

func (f *fixedSource) Float64() float64 {
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v
}
