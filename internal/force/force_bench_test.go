package force

import (
	"context"
	"fmt"
	"runtime"
	"testing"
)

// BenchmarkExactVsApprox compares the all-pairs and grid strategies.
func BenchmarkExactVsApprox(b *testing.B) {
	sizes := []int{100, 500, 1000, 2000, 5000}
	ctx := context.Background()

	for _, n := range sizes {
		pos := randomPositions(n, 2, 1000, uint64(n))
		box := DrawingBox{Length: 1000}

		b.Run(fmt.Sprintf("Exact_N=%d", n), func(b *testing.B) {
			e := newTestEngine(b, 1, Options{})
			for i := 0; i < b.N; i++ {
				e.ExactForces(ctx, pos)
			}
		})

		b.Run(fmt.Sprintf("ExactParallel_N=%d", n), func(b *testing.B) {
			e := newTestEngine(b, runtime.NumCPU(), Options{})
			for i := 0; i < b.N; i++ {
				e.ExactForces(ctx, pos)
			}
		})

		b.Run(fmt.Sprintf("Approx_N=%d", n), func(b *testing.B) {
			e := newTestEngine(b, 1, Options{})
			for i := 0; i < b.N; i++ {
				e.ApproxForces(ctx, pos, box, 2)
			}
		})
	}
}
