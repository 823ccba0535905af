package force

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t testing.TB, workers int, opts Options) *Engine {
	t.Helper()
	pool, err := NewPool(workers)
	require.NoError(t, err)
	if opts.Seed == 0 {
		opts.Seed = 7
	}
	e, err := NewEngine(pool, opts)
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)
	return e
}

// randomPositions scatters n points uniformly in [0,extent)^dims.
func randomPositions(n, dims int, extent float64, seed uint64) []Vec {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	pos := make([]Vec, n)
	for i := range pos {
		for a := 0; a < dims; a++ {
			pos[i][a] = rng.Float64() * extent
		}
	}
	return pos
}

// requireClose checks every force vector against want with a relative tolerance.
func requireClose(t *testing.T, want, got []Vec, rel float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		diff := got[i].Sub(want[i]).Norm()
		limit := rel*want[i].Norm() + 1e-12
		if diff > limit {
			t.Fatalf("node %d: got %v, want %v (diff %g > %g)", i, got[i], want[i], diff, limit)
		}
	}
}

func requireFinite(t *testing.T, forces []Vec) {
	t.Helper()
	for i, f := range forces {
		if !f.IsFinite() {
			t.Fatalf("node %d has non-finite force %v", i, f)
		}
	}
}

func netForce(forces []Vec) Vec {
	var sum Vec
	for _, f := range forces {
		sum = sum.Add(f)
	}
	return sum
}

func maxNorm(forces []Vec) float64 {
	m := 0.0
	for _, f := range forces {
		m = math.Max(m, f.Norm())
	}
	return m
}
